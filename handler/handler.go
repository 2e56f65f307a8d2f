package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"retail-assistant/internal/domain"
	"retail-assistant/internal/tenant"
	"retail-assistant/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	claimSubject      = "sub"
	claimCustomerID   = "custom:customer_id"
)

var newUUID = func() string { return uuid.NewString() }

// ChatProcessor runs one chat message through the assistant pipeline.
type ChatProcessor interface {
	ProcessMessage(ctx context.Context, in usecase.MessageInput) domain.ChatResponse
}

type Handler struct {
	svc ChatProcessor
}

type chatRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(svc ChatProcessor) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: chat processor must not be nil")
	}
	return &Handler{svc: svc}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = newUUID()
	}
	log := slog.With("correlation_id", correlationID)

	var body chatRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		log.Warn("invalid chat request body", "err", err)
		return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput)}), nil
	}

	session := sessionFromClaims(req.RequestContext.Authorizer)
	if session.UserID != "" {
		ctx = tenant.WithSession(ctx, session)
	}

	resp := h.svc.ProcessMessage(ctx, usecase.MessageInput{Text: body.Message, UserID: session.UserID})
	if !resp.IsSuccess {
		log.Info("chat message not processed", "user_id", session.UserID, "error_message", resp.ErrorMessage)
	}
	return jsonResponse(http.StatusOK, correlationID, resp), nil
}

// sessionFromClaims reads the principal from a Cognito/JWT authorizer. Claims
// arrive either nested under "claims" or flat on the authorizer map.
func sessionFromClaims(authorizer map[string]interface{}) tenant.Session {
	claims := authorizer
	if nested, ok := authorizer["claims"].(map[string]interface{}); ok {
		claims = nested
	}
	return tenant.Session{
		UserID:     claimString(claims, claimSubject),
		CustomerID: claimString(claims, claimCustomerID),
	}
}

func claimString(claims map[string]interface{}, key string) string {
	v, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func jsonResponse(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	buf, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		buf = []byte(`{"error":"` + string(usecase.ErrorInternal) + `"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(buf),
	}
}
