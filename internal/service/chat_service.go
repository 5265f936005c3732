package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mmynk/sodarota/internal/ledger"
	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/storage"
)

// Chat input limits, in characters.
const (
	MaxChatNameLength = 60
	MaxChatTextLength = 1000
)

// ChatService appends to and reads the shared chat log.
type ChatService struct {
	store       storage.Store
	idGenerator func() string
	cfg         Config
}

// NewChatService creates a chat service. A nil idGenerator uses random UUIDs.
func NewChatService(store storage.Store, idGenerator func() string, cfg Config) *ChatService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	return &ChatService{store: store, idGenerator: idGenerator, cfg: cfg.withDefaults()}
}

func (s *ChatService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.cfg.Logger, "ChatService", operation, attrs...)
}

// List returns the chat log in posting order.
func (s *ChatService) List(ctx context.Context) ([]models.ChatMessage, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load ledger: %w", err)
		s.loggerWith(ctx, "List").ErrorContext(ctx, "failed to read chat", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	doc.Normalize()
	return doc.Chat, nil
}

// Post appends a message from userName. Both fields are trimmed and required.
func (s *ChatService) Post(ctx context.Context, userName, text string) (msg models.ChatMessage, err error) {
	logger := s.loggerWith(ctx, "Post", "user_name", userName)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to post message", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "message posted", "message_id", msg.ID)
	}()

	userName = strings.TrimSpace(userName)
	text = strings.TrimSpace(text)
	switch {
	case userName == "":
		return msg, &ledger.ValidationError{Field: "userName", Message: "user name is required"}
	case text == "":
		return msg, &ledger.ValidationError{Field: "text", Message: "message text is required"}
	case utf8.RuneCountInString(userName) > MaxChatNameLength:
		return msg, &ledger.ValidationError{Field: "userName", Message: fmt.Sprintf("user name must be at most %d characters", MaxChatNameLength)}
	case utf8.RuneCountInString(text) > MaxChatTextLength:
		return msg, &ledger.ValidationError{Field: "text", Message: fmt.Sprintf("message must be at most %d characters", MaxChatTextLength)}
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return msg, fmt.Errorf("failed to load ledger: %w", err)
	}
	doc.Normalize()

	msg = models.ChatMessage{
		ID:        s.idGenerator(),
		Author:    userName,
		Text:      text,
		Timestamp: s.cfg.Now().UTC(),
	}
	doc.Chat = append(doc.Chat, msg)

	if err := s.store.Save(ctx, doc); err != nil {
		return models.ChatMessage{}, fmt.Errorf("failed to save ledger: %w", err)
	}
	s.cfg.Observer.ObserveChatMessage()
	return msg, nil
}
