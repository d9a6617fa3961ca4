package repositories

import (
	"kinder-chat/domain"
	"kinder-chat/errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMessage(conversationID, senderID, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		SentAt:         at,
	}
}

func Test_Record_And_Get_Sorted_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()
	messages := []domain.Message{
		newMessage("conv-1", "alice", "hello", at),
		newMessage("conv-1", "bob", "hi", at.Add(1*time.Minute)),
		newMessage("conv-1", "clara", "coucou", at.Add(2*time.Minute)),
		newMessage("conv-2", "dan", "elsewhere", at),
	}
	for _, m := range messages {
		req.NoError(repository.StoreMessage(m))
	}

	expected := make([]domain.Message, 3)
	copy(expected, messages[:3])
	sort.Slice(expected, func(i, j int) bool {
		return expected[i].SentAt.After(expected[j].SentAt)
	})

	// When fetching messages
	fetched, _, err := repository.GetMessages("conv-1", nil)
	req.NoError(err)

	// Then the messages are sorted newest first and scoped to the conversation
	req.Len(fetched, 3)
	for i := range expected {
		req.Equal(expected[i].ID, fetched[i].ID)
		req.True(expected[i].SentAt.Equal(fetched[i].SentAt))
	}
}

func Test_StoreMessage_Rejects_Empty_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	err := repository.StoreMessage(newMessage("conv-1", "alice", "  ", time.Now()))
	req.ErrorIs(err, errors.ErrEmptyMessage)

	fetched, _, err := repository.GetMessages("conv-1", nil)
	req.NoError(err)
	req.Empty(fetched)
}

func Test_MessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	limit := 2
	repository := NewMessageRepository(newTestDB(t), slog.Default(), &limit)
	at := time.Now().UTC()
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		m := newMessage("conv-1", "alice", "msg", at.Add(time.Duration(i)*time.Second))
		ids = append(ids, m.ID)
		req.NoError(repository.StoreMessage(m))
	}

	page1, cursor, err := repository.GetMessages("conv-1", nil)
	req.NoError(err)
	req.Len(page1, 2)
	req.Equal(ids[4], page1[0].ID)
	req.Equal(ids[3], page1[1].ID)

	page2, cursor, err := repository.GetMessages("conv-1", cursor)
	req.NoError(err)
	req.Len(page2, 2)
	req.Equal(ids[2], page2[0].ID)
	req.Equal(ids[1], page2[1].ID)

	page3, _, err := repository.GetMessages("conv-1", cursor)
	req.NoError(err)
	req.Len(page3, 1)
	req.Equal(ids[0], page3[0].ID)
}

func Test_MarkAsRead_Flips_Only_Others_Unread(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()
	req.NoError(repository.StoreMessage(newMessage("conv-1", "alice", "a1", at)))
	req.NoError(repository.StoreMessage(newMessage("conv-1", "bob", "b1", at.Add(time.Second))))
	req.NoError(repository.StoreMessage(newMessage("conv-1", "bob", "b2", at.Add(2*time.Second))))
	req.NoError(repository.StoreMessage(newMessage("conv-2", "bob", "other", at)))

	// When alice reads the conversation
	count, err := repository.MarkAsRead("conv-1", "alice")
	req.NoError(err)
	req.Equal(2, count)

	// Then bob's messages are read, alice's own message is untouched
	messages, _, err := repository.GetMessages("conv-1", nil)
	req.NoError(err)
	for _, m := range messages {
		req.Equal(m.SenderID == "bob", m.IsRead, m.Content)
	}

	// And a repeated call reports nothing new
	count, err = repository.MarkAsRead("conv-1", "alice")
	req.NoError(err)
	req.Zero(count)

	// And the other conversation is untouched
	others, _, err := repository.GetMessages("conv-2", nil)
	req.NoError(err)
	req.False(others[0].IsRead)
}

func Test_MarkAsRead_Concurrent_Calls_Converge(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()
	for i := 0; i < 10; i++ {
		req.NoError(repository.StoreMessage(newMessage("conv-1", "bob", "b", at.Add(time.Duration(i)*time.Millisecond))))
	}

	var wg sync.WaitGroup
	counts := make([]int, 2)
	errs := make([]error, 2)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = repository.MarkAsRead("conv-1", "alice")
		}(i)
	}
	wg.Wait()

	req.NoError(errs[0])
	req.NoError(errs[1])

	req.ElementsMatch([]int{10, 0}, counts)
}

func Test_Message_Conversation_Ids_Cannot_Share_A_Prefix(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(newTestDB(t), slog.Default(), nil)
	at := time.Now().UTC()

	err := repository.StoreMessage(newMessage("conv-1:x", "bob", "hidden", at))
	req.ErrorIs(err, errors.ErrInvalidID)
	req.NoError(repository.StoreMessage(newMessage("conv-1", "bob", "b1", at)))

	// A reader of "conv-1:" never reaches the rows of "conv-1"
	count, err := repository.MarkAsRead("conv-1:", "alice")
	req.NoError(err)
	req.Zero(count)
	messages, _, err := repository.GetMessages("conv-1:", nil)
	req.NoError(err)
	req.Empty(messages)

	messages, _, err = repository.GetMessages("conv-1", nil)
	req.NoError(err)
	req.Len(messages, 1)
	req.False(messages[0].IsRead)
}
