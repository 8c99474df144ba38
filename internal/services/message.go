package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/gw-labs/gw-messenger/internal/logger"
	"github.com/gw-labs/gw-messenger/internal/models"
)

var (
	// ErrAuthenticationFailed is returned when the bearer token does not
	// authorize the claimed principal.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Authenticator checks a bearer authorization header against a user id.
type Authenticator interface {
	Authenticate(ctx context.Context, userID int64, authHeader string) (bool, error)
}

// MessageAppender defines write operations for messages.
type MessageAppender interface {
	AppendMessage(ctx context.Context, sender, recipient int64, content models.MessageContent) (int64, string, error)
}

// MessageLister defines read operations for a recipient's inbox.
type MessageLister interface {
	MessagesByRecipient(ctx context.Context, recipient, start, limit int64) ([]models.MessageDB, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// MessageService handles sending and listing messages plus Kafka publishing.
type MessageService struct {
	auth        Authenticator
	appender    MessageAppender
	lister      MessageLister
	kafkaWriter KafkaWriter
}

// NewMessageService creates a new MessageService.
func NewMessageService(
	auth Authenticator,
	appender MessageAppender,
	lister MessageLister,
	kafkaWriter KafkaWriter,
) *MessageService {
	return &MessageService{
		auth:        auth,
		appender:    appender,
		lister:      lister,
		kafkaWriter: kafkaWriter,
	}
}

// publishEvent publishes an accepted-message event to Kafka. Publishing is
// best-effort: a missing writer or a broker error never fails the send.
func (s *MessageService) publishEvent(ctx context.Context, event models.MessageEvent) {
	if s.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "message_id", event.MessageID)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal message event for Kafka", "message_id", event.MessageID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.MessageID, 10)),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish message event to Kafka", "message_id", event.MessageID, "error", err)
	} else {
		logger.Log.Infow("Message event published to Kafka", "message_id", event.MessageID)
	}
}

// Send authenticates the sender and appends the message, returning the
// assigned id and timestamp. The sender must be the authenticated principal;
// the store itself does not re-check authorization.
func (s *MessageService) Send(ctx context.Context, authHeader string, sender, recipient int64, content models.MessageContent) (int64, string, error) {
	ok, err := s.auth.Authenticate(ctx, sender, authHeader)
	if err != nil {
		logger.Log.Errorw("failed to authenticate sender", "sender", sender, "err", err)
		return 0, "", err
	}
	if !ok {
		logger.Log.Errorw("authentication failed for sender", "sender", sender)
		return 0, "", ErrAuthenticationFailed
	}

	msgID, timestamp, err := s.appender.AppendMessage(ctx, sender, recipient, content)
	if err != nil {
		logger.Log.Errorw("failed to append message", "sender", sender, "recipient", recipient, "err", err)
		return 0, "", err
	}

	s.publishEvent(ctx, models.MessageEvent{
		MessageID: msgID,
		Sender:    sender,
		Recipient: recipient,
		MsgType:   content.Type,
		Timestamp: timestamp,
	})

	return msgID, timestamp, nil
}

// List authenticates the recipient and returns a page of their inbox.
func (s *MessageService) List(ctx context.Context, authHeader string, recipient, start, limit int64) ([]models.MessageDB, error) {
	ok, err := s.auth.Authenticate(ctx, recipient, authHeader)
	if err != nil {
		logger.Log.Errorw("failed to authenticate recipient", "recipient", recipient, "err", err)
		return nil, err
	}
	if !ok {
		logger.Log.Errorw("authentication failed for recipient", "recipient", recipient)
		return nil, ErrAuthenticationFailed
	}

	messages, err := s.lister.MessagesByRecipient(ctx, recipient, start, limit)
	if err != nil {
		logger.Log.Errorw("failed to list messages", "recipient", recipient, "err", err)
		return nil, err
	}

	return messages, nil
}
