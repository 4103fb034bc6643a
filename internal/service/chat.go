package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/Karuna/internal/domain"
	"github.com/Strob0t/Karuna/internal/domain/chat"
	"github.com/Strob0t/Karuna/internal/port/cache"
	"github.com/Strob0t/Karuna/internal/port/llm"
)

// SessionStore holds chat histories. Entries expire after the store's TTL,
// which is refreshed whenever a history is written.
type SessionStore interface {
	cache.Store
	PurgeExpired() int
}

// ChatService runs conversational sessions against the model.
type ChatService struct {
	sessions SessionStore
	model    llm.Generator
	log      *slog.Logger

	// mu serializes read-modify-write of histories. It is not held during
	// model calls.
	mu sync.Mutex
}

// NewChatService creates a new ChatService.
func NewChatService(sessions SessionStore, model llm.Generator, log *slog.Logger) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{sessions: sessions, model: model, log: log}
}

// Start opens an empty session and returns its id.
func (s *ChatService) Start(_ context.Context) string {
	id := uuid.NewString()
	s.sessions.Set(id, []chat.Message{})
	return id
}

// Send appends the user message, asks the model with the full history and
// appends its reply. A model error leaves the user turn in the history.
func (s *ChatService) Send(ctx context.Context, sessionID, message string) (string, error) {
	if sessionID == "" || message == "" {
		return "", fmt.Errorf("missing fields: %w", domain.ErrValidation)
	}

	history, err := s.appendTurn(sessionID, chat.Message{Role: chat.RoleUser, Content: message})
	if err != nil {
		return "", err
	}

	reply, err := s.model.Generate(ctx, history)
	if err != nil {
		return "", fmt.Errorf("chat session %s: %w", sessionID, err)
	}
	if reply == "" {
		reply = chat.FallbackReply
	}

	if _, err := s.appendTurn(sessionID, chat.Message{Role: chat.RoleModel, Content: reply}); err != nil {
		// Expired while the model was answering; the reply is still returned.
		s.log.WarnContext(ctx, "chat session expired before reply was stored", "session_id", sessionID)
	}
	return reply, nil
}

// History returns a copy of a session's messages.
func (s *ChatService) History(sessionID string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return slices.Clone(h), nil
}

// RunSweeper purges expired sessions every interval until ctx is done.
func (s *ChatService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.PurgeExpired(); n > 0 {
				s.log.Debug("expired chat sessions purged", "count", n)
			}
		}
	}
}

func (s *ChatService) appendTurn(sessionID string, m chat.Message) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	h = append(slices.Clone(h), m)
	s.sessions.Set(sessionID, h)
	return h, nil
}

func (s *ChatService) load(sessionID string) ([]chat.Message, bool) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	h, ok := v.([]chat.Message)
	return h, ok
}
