package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gw-labs/gw-messenger/internal/logger"
	"github.com/gw-labs/gw-messenger/internal/models"
	"github.com/gw-labs/gw-messenger/internal/services"
)

// DefaultListLimit is applied when the caller omits the limit parameter.
const DefaultListLimit = 100

// MessageListViewer defines the interface that the message service must implement.
type MessageListViewer interface {
	List(ctx context.Context, authHeader string, recipient, start, limit int64) ([]models.MessageDB, error)
}

// ListMessagesResponse represents a page of a recipient's inbox
// swagger:model ListMessagesResponse
type ListMessagesResponse struct {
	// Messages in ascending id order
	Messages []models.MessageView `json:"messages"`
}

// ListMessagesErrorResponse represents an error response for listing
// swagger:model ListMessagesErrorResponse
type ListMessagesErrorResponse struct {
	// Error message
	// default: Authentication failed
	Error string `json:"error"`
}

// NewListMessagesHandler returns an HTTP handler for paging through an inbox.
// @Summary List messages
// @Description Returns up to limit messages addressed to the authenticated recipient, skipping the first start matches, in ascending id order.
// @Tags messages
// @Produce json
// @Param recipient query int true "Recipient user id"
// @Param start query int true "Number of matching messages to skip"
// @Param limit query int false "Maximum number of messages to return" default(100)
// @Success 200 {object} handlers.ListMessagesResponse "Page of messages"
// @Failure 400 {object} handlers.ListMessagesErrorResponse "Malformed query"
// @Failure 401 {object} handlers.ListMessagesErrorResponse "Authentication failed"
// @Router /messages [get]
// @Security BearerAuth
func NewListMessagesHandler(svc MessageListViewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		query := r.URL.Query()

		recipient, err := strconv.ParseInt(query.Get("recipient"), 10, 64)
		if err != nil {
			badQuery(w)
			return
		}
		start, err := strconv.ParseInt(query.Get("start"), 10, 64)
		if err != nil || start < 0 {
			badQuery(w)
			return
		}

		limit := int64(DefaultListLimit)
		if raw := query.Get("limit"); raw != "" {
			limit, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || limit < 0 {
				badQuery(w)
				return
			}
		}

		messages, err := svc.List(r.Context(), r.Header.Get("Authorization"), recipient, start, limit)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrAuthenticationFailed):
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(ListMessagesErrorResponse{
					Error: "Authentication failed",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ListMessagesErrorResponse{
					Error: "Internal server error",
				})
			}
			return
		}

		views := make([]models.MessageView, 0, len(messages))
		for _, m := range messages {
			views = append(views, m.View())
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(ListMessagesResponse{
			Messages: views,
		})
	}
}

func badQuery(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ListMessagesErrorResponse{
		Error: "invalid query parameters",
	})
}
