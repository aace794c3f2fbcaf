package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/infrastructure/auth"
	"github.com/oneflow/backend/internal/infrastructure/logger"
	"github.com/oneflow/backend/internal/interfaces/http/dto"
)

// Context keys and header names used by the JWT middleware
const (
	ActorKey      = "finance_actor"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Authenticator resolves a bearer token to a caller
type Authenticator interface {
	Authenticate(token string) (finance.Actor, error)
}

var _ Authenticator = (*auth.JWTService)(nil)

// JWTAuth requires a valid bearer token and stores the caller as the
// request's finance.Actor
func JWTAuth(authenticator Authenticator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortWithError(c, dto.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing token")
			return
		}

		actor, err := authenticator.Authenticate(token)
		if err != nil {
			log.Warn("JWT authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
			)
			if errors.Is(err, auth.ErrExpiredToken) {
				abortWithError(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortWithError(c, dto.ErrCodeTokenInvalid, "Invalid token")
			return
		}

		c.Set(ActorKey, actor)
		c.Set(logger.GinUsernameKey, actor.Username)
		c.Request = c.Request.WithContext(logger.WithUsername(c.Request.Context(), actor.Username))
		c.Next()
	}
}

// GetActor returns the authenticated caller
func GetActor(c *gin.Context) (finance.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return finance.Actor{}, false
	}
	actor, ok := v.(finance.Actor)
	return actor, ok
}

// RequireRole lets the request through only for the given roles.
// It must run after JWTAuth.
func RequireRole(roles ...finance.Role) gin.HandlerFunc {
	allowed := make(map[finance.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			abortWithError(c, dto.ErrCodeForbidden, "Your role does not allow this action")
			return
		}
		c.Next()
	}
}
