package server

import (
	"kinder-chat/auth"
	"kinder-chat/errors"
	"kinder-chat/services"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConversationServer exposes the provisioning operations used by the back-office and the apps.
type ConversationServer struct {
	log     *slog.Logger
	service *services.ConversationService
}

func NewConversationServer(log *slog.Logger, service *services.ConversationService) *ConversationServer {
	return &ConversationServer{log: log, service: service}
}

func (s *ConversationServer) Create(c *gin.Context) {
	identity, ok := auth.MustIdentity(c)
	if !ok {
		return
	}
	var req services.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.ErrInvalidPayload)
		return
	}
	conversation, err := s.service.Create(identity, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

func (s *ConversationServer) AddParticipant(c *gin.Context) {
	identity, ok := auth.MustIdentity(c)
	if !ok {
		return
	}
	var req services.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.ErrInvalidPayload)
		return
	}
	if err := s.service.AddParticipant(identity, c.Param("id"), req); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *ConversationServer) History(c *gin.Context) {
	identity, ok := auth.MustIdentity(c)
	if !ok {
		return
	}
	var cursor *string
	if v, ok := c.GetQuery("cursor"); ok && v != "" {
		cursor = &v
	}
	history, err := s.service.History(identity, c.Param("id"), cursor)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *ConversationServer) SaveUser(c *gin.Context) {
	identity, ok := auth.MustIdentity(c)
	if !ok {
		return
	}
	var req services.SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errors.ErrInvalidPayload)
		return
	}
	user, err := s.service.SaveUser(identity, c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *ConversationServer) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "path", c.FullPath(), "error", err)
	} else {
		s.log.Debug("Request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
