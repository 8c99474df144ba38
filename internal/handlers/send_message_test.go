package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/gw-labs/gw-messenger/internal/models"
	"github.com/gw-labs/gw-messenger/internal/services"
)

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func TestSendMessageHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockMessageSender(ctrl)

	content := models.MessageContent{Type: models.MessageTypeText, Text: strPtr("hello")}

	tests := []struct {
		name         string
		inputBody    interface{}
		authHeader   string
		mockSetup    func()
		expectedCode int
		expectedBody interface{}
	}{
		{
			name: "success",
			inputBody: SendMessageRequest{
				Sender:    intPtr(0),
				Recipient: intPtr(1),
				Content:   &content,
			},
			authHeader: "Bearer token-a",
			mockSetup: func() {
				mockSvc.EXPECT().
					Send(gomock.Any(), "Bearer token-a", int64(0), int64(1), content).
					Return(int64(0), "2024-01-02T03:04:05Z", nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: &SendMessageResponse{
				ID:        0,
				Timestamp: "2024-01-02T03:04:05Z",
			},
		},
		{
			name:         "invalid JSON",
			inputBody:    "{invalid json}",
			mockSetup:    func() {},
			expectedCode: http.StatusBadRequest,
			expectedBody: &SendMessageErrorResponse{
				Error: "invalid request body",
			},
		},
		{
			name: "missing content",
			inputBody: SendMessageRequest{
				Sender:    intPtr(0),
				Recipient: intPtr(1),
			},
			mockSetup:    func() {},
			expectedCode: http.StatusBadRequest,
			expectedBody: &SendMessageErrorResponse{
				Error: "sender, recipient and content are required",
			},
		},
		{
			name: "missing sender",
			inputBody: SendMessageRequest{
				Recipient: intPtr(1),
				Content:   &content,
			},
			mockSetup:    func() {},
			expectedCode: http.StatusBadRequest,
			expectedBody: &SendMessageErrorResponse{
				Error: "sender, recipient and content are required",
			},
		},
		{
			name: "authentication failed",
			inputBody: SendMessageRequest{
				Sender:    intPtr(0),
				Recipient: intPtr(1),
				Content:   &content,
			},
			authHeader: "Bearer wrong",
			mockSetup: func() {
				mockSvc.EXPECT().
					Send(gomock.Any(), "Bearer wrong", int64(0), int64(1), content).
					Return(int64(0), "", services.ErrAuthenticationFailed)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: &SendMessageErrorResponse{
				Error: "Authentication failed, incorrect token for sender",
			},
		},
		{
			name: "invalid message type",
			inputBody: SendMessageRequest{
				Sender:    intPtr(0),
				Recipient: intPtr(1),
				Content:   &models.MessageContent{Type: "audio"},
			},
			authHeader: "Bearer token-a",
			mockSetup: func() {
				mockSvc.EXPECT().
					Send(gomock.Any(), "Bearer token-a", int64(0), int64(1), models.MessageContent{Type: "audio"}).
					Return(int64(0), "", models.ErrInvalidMessageType)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: &SendMessageErrorResponse{
				Error: "Invalid message type",
			},
		},
		{
			name: "internal error",
			inputBody: SendMessageRequest{
				Sender:    intPtr(0),
				Recipient: intPtr(1),
				Content:   &content,
			},
			authHeader: "Bearer token-a",
			mockSetup: func() {
				mockSvc.EXPECT().
					Send(gomock.Any(), "Bearer token-a", int64(0), int64(1), content).
					Return(int64(0), "", errors.New("database error"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: &SendMessageErrorResponse{
				Error: "Internal server error",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			var bodyBytes []byte
			switch v := tt.inputBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, _ = json.Marshal(v)
			}

			req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewReader(bodyBytes))
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler := NewSendMessageHandler(mockSvc)
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)

			var respBody interface{}
			switch tt.expectedCode {
			case http.StatusCreated:
				respBody = &SendMessageResponse{}
			default:
				respBody = &SendMessageErrorResponse{}
			}
			err := json.Unmarshal(w.Body.Bytes(), respBody)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedBody, respBody)
		})
	}
}
