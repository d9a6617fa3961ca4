package services

import (
	"context"
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"kinder-chat/mocks"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestConnect_Subscribes_Every_Membership(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.conversation(t, "conv-1", "alice", "bob")
	env.conversation(t, "conv-2", "alice")
	env.conversation(t, "conv-3", "bob")

	session, _ := env.connect(t, "alice")

	req.Equal([]string{"conversation:conv-1", "conversation:conv-2", "user:alice"}, session.Groups())
	req.True(env.orchestrator.Online("alice"))
}

func TestConnect_System_Identity_Skips_Memberships(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctrl := gomock.NewController(t)
	participants := mocks.NewMockIParticipantRepository(ctrl)
	participants.EXPECT().ListByUser(gomock.Any()).Times(0)
	env.repos.Participants = participants
	chat := NewChatService(env.log, env.orchestrator, env.repos, nil, 0)

	session, err := chat.Connect(context.Background(), domain.Identity{UserID: "root", Role: domain.RoleAdmin}, &recordingConn{})
	req.NoError(err)
	req.Equal([]string{"user:root"}, session.Groups())
}

func TestConnect_Store_Failure_Still_Admits(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctrl := gomock.NewController(t)
	participants := mocks.NewMockIParticipantRepository(ctrl)
	participants.EXPECT().ListByUser("alice").Return(nil, errStoreDown)
	env.repos.Participants = participants
	chat := NewChatService(env.log, env.orchestrator, env.repos, nil, 0)

	session, err := chat.Connect(context.Background(), domain.Identity{UserID: "alice", Role: domain.RoleParent}, &recordingConn{})
	req.NoError(err)
	req.Equal([]string{"user:alice"}, session.Groups())
	req.True(env.orchestrator.Online("alice"))
}

func TestDisconnect_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.conversation(t, "conv-1", "alice")
	session, _ := env.connect(t, "alice")

	env.chat.Disconnect(session)
	env.chat.Disconnect(session)

	req.False(env.orchestrator.Online("alice"))
	req.Empty(env.orchestrator.Members("conv-1"))
}

func TestDispatch_Unknown_And_Malformed_Frames(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	session, conn := env.connect(t, "alice")

	env.chat.Dispatch(context.Background(), session, []byte(`{"event":"dance","data":{}}`))
	env.chat.Dispatch(context.Background(), session, []byte(`not json`))
	env.chat.Dispatch(context.Background(), session, []byte(`{"event":"mark_as_read","data":"oops"}`))

	errs := conn.Of(event.ErrorType)
	req.Len(errs, 3)
	var payload event.Error
	errs[0].decode(t, &payload)
	req.Equal("Invalid request", payload.Message)
	req.Contains(payload.Details, "dance")
}
