package context

import (
	"context"
	"strconv"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	userContextKey contextKey = "user"
)

// UserInfo is the identity carried by a verified bearer token. This service
// never issues tokens; it only verifies them against the shared secret.
type UserInfo struct {
	ID       int64
	Username string
}

// GetUserFromContext retrieves user info from context. Returns nil for
// anonymous requests; most link routes work without an identity.
func GetUserFromContext(ctx context.Context) *UserInfo {
	if user, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return user
	}

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil
	}

	return getUserFromClaims(claims)
}

// getUserFromClaims creates UserInfo from JWT claims
func getUserFromClaims(claims map[string]interface{}) *UserInfo {
	username, _ := claims["username"].(string)

	var userID int64
	switch v := claims["user_id"].(type) {
	case float64:
		userID = int64(v)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		userID = parsed
	default:
		return nil
	}

	if userID <= 0 || username == "" {
		return nil
	}

	return &UserInfo{
		ID:       userID,
		Username: username,
	}
}

// WithUser adds user info to the context
func WithUser(ctx context.Context, user *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
