package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gw-labs/gw-messenger/internal/logger"
	"github.com/gw-labs/gw-messenger/internal/services"
)

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, username, password string) (int64, error)
}

// RegisterRequest represents the JSON body for account creation
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Username
	// required: true
	// default: john_doe
	Username string `json:"username"`

	// Password
	// required: true
	// default: secret123
	Password string `json:"password"`
}

// RegisterResponse represents a successful account creation response
// swagger:model RegisterResponse
type RegisterResponse struct {
	// Assigned user id
	// default: 0
	ID int64 `json:"id"`
}

// RegisterErrorResponse represents an error response for account creation
// swagger:model RegisterErrorResponse
type RegisterErrorResponse struct {
	// Error message
	// default: User already exists
	Error string `json:"error"`
}

// NewRegisterHandler returns an HTTP handler for account creation.
// @Summary Create a new account
// @Description Creates a new user account with a unique username and returns the assigned id.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "Account creation request"
// @Success 201 {object} handlers.RegisterResponse "Account created"
// @Failure 400 {object} handlers.RegisterErrorResponse "User already exists / invalid request"
// @Router /users [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(RegisterErrorResponse{
				Error: "invalid request body",
			})
			return
		}

		if req.Username == "" || req.Password == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(RegisterErrorResponse{
				Error: "username and password are required",
			})
			return
		}

		id, err := svc.Register(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserAlreadyExists):
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(RegisterErrorResponse{
					Error: "User already exists",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(RegisterErrorResponse{
					Error: "Internal server error",
				})
			}
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(RegisterResponse{
			ID: id,
		})
	}
}
