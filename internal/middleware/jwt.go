// Package middleware carries the HTTP middleware. The gateway consumes an
// already-authenticated identity; tokens are issued elsewhere and only
// verified here.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lumahq/luma/internal/logging"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userId"
	// UserNameKey is the context key for user display name
	UserNameKey ContextKey = "userName"
)

// ErrInvalidToken is returned when token verification fails.
var ErrInvalidToken = errors.New("invalid token")

// JWTMiddleware verifies bearer tokens with the shared secret and sets the
// user identity in the request context. trustedIssuer, when non-empty,
// restricts which issuer is accepted.
func JWTMiddleware(accessSecret, trustedIssuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				unauthorized(w, "invalid authorization header format")
				return
			}
			token := parts[1]
			if token == "" {
				unauthorized(w, "empty token")
				return
			}

			claims, err := verifyJWT(token, accessSecret)
			if err != nil {
				logging.Errorf("Failed to verify JWT: %v", err)
				unauthorized(w, "invalid token")
				return
			}

			if trustedIssuer != "" {
				if iss, _ := claims["iss"].(string); iss != trustedIssuer {
					logging.Errorf("Invalid token issuer: %v", claims["iss"])
					unauthorized(w, "invalid token issuer")
					return
				}
			}

			userID := claimString(claims, "userId")
			if userID == "" {
				userID = claimString(claims, "sub")
			}
			if userID == "" {
				unauthorized(w, "token carries no user identity")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, userID)
			ctx = context.WithValue(ctx, UserNameKey, claimString(claims, "name"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// verifyJWT validates a token's signature and standard claims and returns
// its claim set.
func verifyJWT(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

// unauthorized sends a 401 response
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// GetUserID extracts the user ID from context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserName extracts the user display name from context.
func GetUserName(ctx context.Context) string {
	if name, ok := ctx.Value(UserNameKey).(string); ok {
		return name
	}
	return ""
}
