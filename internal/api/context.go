package api

import (
	"context"

	"github.com/mindwell/stress-engine/internal/models"
)

type contextKey string

const (
	clientContextKey contextKey = "api_client"
	userContextKey   contextKey = "user_id"
)

// ClientFromContext extracts ApiClient from context
func ClientFromContext(ctx context.Context) *models.ApiClient {
	client, ok := ctx.Value(clientContextKey).(*models.ApiClient)
	if !ok {
		return nil
	}
	return client
}

// ContextWithClient adds ApiClient to context
func ContextWithClient(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

// UserFromContext extracts the authenticated user ID from context
func UserFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(userContextKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// ContextWithUser adds the authenticated user ID to context
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}
