package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gw-labs/gw-messenger/internal/logger"
	"github.com/gw-labs/gw-messenger/internal/models"
	"github.com/gw-labs/gw-messenger/internal/services"
)

// MessageSender defines the interface that the message service must implement.
type MessageSender interface {
	Send(ctx context.Context, authHeader string, sender, recipient int64, content models.MessageContent) (int64, string, error)
}

// SendMessageRequest represents the JSON body for sending a message.
// Fields are pointers so a missing field can be rejected before any store
// call is attempted.
// swagger:model SendMessageRequest
type SendMessageRequest struct {
	// Sending user id
	// required: true
	// default: 0
	Sender *int64 `json:"sender"`

	// Receiving user id
	// required: true
	// default: 1
	Recipient *int64 `json:"recipient"`

	// Type-tagged message content
	// required: true
	Content *models.MessageContent `json:"content"`
}

// SendMessageResponse represents a successful send response
// swagger:model SendMessageResponse
type SendMessageResponse struct {
	// Assigned message id
	// default: 0
	ID int64 `json:"id"`

	// Store-assigned creation time
	// default: 2024-01-02T03:04:05Z
	Timestamp string `json:"timestamp"`
}

// SendMessageErrorResponse represents an error response for sending
// swagger:model SendMessageErrorResponse
type SendMessageErrorResponse struct {
	// Error message
	// default: Authentication failed, incorrect token for sender
	Error string `json:"error"`
}

// NewSendMessageHandler returns an HTTP handler for sending a message.
// @Summary Send a message
// @Description Sends a text, image or video message from the authenticated sender to a recipient.
// @Tags messages
// @Accept json
// @Produce json
// @Param sendMessageRequest body handlers.SendMessageRequest true "Message to send"
// @Success 201 {object} handlers.SendMessageResponse "Message accepted"
// @Failure 400 {object} handlers.SendMessageErrorResponse "Invalid message type / invalid request"
// @Failure 401 {object} handlers.SendMessageErrorResponse "Authentication failed"
// @Router /messages [post]
// @Security BearerAuth
func NewSendMessageHandler(svc MessageSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(SendMessageErrorResponse{
				Error: "invalid request body",
			})
			return
		}

		if req.Sender == nil || req.Recipient == nil || req.Content == nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(SendMessageErrorResponse{
				Error: "sender, recipient and content are required",
			})
			return
		}

		id, timestamp, err := svc.Send(r.Context(), r.Header.Get("Authorization"), *req.Sender, *req.Recipient, *req.Content)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrAuthenticationFailed):
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(SendMessageErrorResponse{
					Error: "Authentication failed, incorrect token for sender",
				})
			case errors.Is(err, models.ErrInvalidMessageType):
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(SendMessageErrorResponse{
					Error: "Invalid message type",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(SendMessageErrorResponse{
					Error: "Internal server error",
				})
			}
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SendMessageResponse{
			ID:        id,
			Timestamp: timestamp,
		})
	}
}
