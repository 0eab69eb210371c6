package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/repository"
)

var (
	ErrNotParticipant  = errors.New("you are not a participant of this conversation")
	ErrNotMessageOwner = errors.New("messages can only be sent as yourself")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrMissingPeer     = errors.New("recipient is required")
)

type MessageService struct {
	messageRepo repository.MessageRepository
	profiles    *ProfileService
}

func NewMessageService(messageRepo repository.MessageRepository, profiles *ProfileService) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		profiles:    profiles,
	}
}

type SendMessageInput struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

// Conversation returns the messages between self and peer, oldest first. self must be the caller.
func (s *MessageService) Conversation(ctx context.Context, accountID uuid.UUID, self, peer string) ([]domain.Message, error) {
	if peer == "" {
		return nil, ErrMissingPeer
	}
	phone, err := s.profiles.Identity(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if self != phone {
		return nil, ErrNotParticipant
	}

	messages, err := s.messageRepo.ListConversation(ctx, self, peer)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// Send persists a message from the caller. The database assigns the timestamp.
func (s *MessageService) Send(ctx context.Context, accountID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	if input.Recipient == "" {
		return nil, ErrMissingPeer
	}

	// Stored exactly as typed apart from surrounding whitespace.
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	phone, err := s.profiles.Identity(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if input.Sender != "" && input.Sender != phone {
		return nil, ErrNotMessageOwner
	}

	msg := &domain.Message{
		ID:        uuid.New().String(),
		Sender:    phone,
		Recipient: input.Recipient,
		Content:   content,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	return msg, nil
}
