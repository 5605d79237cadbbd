package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/auth"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

const (
	ServiceIDKey  = "service_id"
	authHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
	// browsers cannot set headers on a websocket handshake
	tokenQueryKey = "token"
)

// TokenParser verifies an access token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Auth resolves the bearer token to a ServiceID and stores it under ServiceIDKey.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			response.Unauthorized(c, apperr.CodeUnauthorized, "missing access token")
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			msg := "invalid access token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "access token expired"
			}
			response.Unauthorized(c, apperr.CodeInvalidToken, msg)
			return
		}
		c.Set(ServiceIDKey, claims.ServiceID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader(authHeaderKey)
	if strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if h == "" {
		return c.Query(tokenQueryKey)
	}
	return ""
}

// ServiceID returns the authenticated caller. It is only valid behind Auth.
func ServiceID(c *gin.Context) model.ServiceID {
	if v, ok := c.Get(ServiceIDKey); ok {
		if id, ok := v.(model.ServiceID); ok {
			return id
		}
	}
	return 0
}
