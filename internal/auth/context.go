package auth

import (
	"context"

	"github.com/jcs-corp/jcs-assistant/internal/types"
)

type contextKey string

const authContextKey contextKey = "assistant_auth"

// AuthInfo holds authenticated identity information extracted from an API key.
type AuthInfo struct {
	KeyID          string
	OrganizationID string
	TeamID         string
	UserID         string
	AllowedTasks   []string
	RPMLimit       *int
}

// TaskAllowed reports whether the authenticated key may run the category.
func (a *AuthInfo) TaskAllowed(category types.TaskCategory) bool {
	meta := KeyMetadata{AllowedTasks: a.AllowedTasks}
	return meta.TaskAllowed(category)
}

func ContextWithAuth(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authContextKey, info)
}

func AuthFromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authContextKey).(*AuthInfo)
	return info, ok
}
