package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityCtxKey = "identity"
	sessionHeader  = "X-Session-ID"
	sessionCookie  = "session_id"
	internalKeyHdr = "X-API-Key"
	bearerPrefix   = "Bearer "
)

// requestLogger emits one line per request, at warn for 4xx and error for 5xx.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}

// identityMiddleware attaches the caller's identity when a valid bearer token
// is presented. Requests without a token continue anonymously; a bad token
// is rejected.
func identityMiddleware(v *IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || v == nil {
			c.Next()
			return
		}
		raw := strings.TrimPrefix(header, bearerPrefix)
		if raw == header {
			abortError(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}
		id, err := v.Verify(raw)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		c.Set(identityCtxKey, id)
		c.Next()
	}
}

func requireIdentity(c *gin.Context) {
	if identityFrom(c) == nil {
		abortError(c, http.StatusUnauthorized, "sign in required")
		return
	}
	c.Next()
}

func identityFrom(c *gin.Context) *Identity {
	v, ok := c.Get(identityCtxKey)
	if !ok {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}

// internalKeyMiddleware guards provisioning and catalog-sync routes. An empty
// key disables them.
func internalKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(internalKeyHdr)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			abortError(c, http.StatusUnauthorized, "invalid api key")
			return
		}
		c.Next()
	}
}

// sessionID reads the cart session from the header, then the cookie.
func sessionID(c *gin.Context) string {
	if s := strings.TrimSpace(c.GetHeader(sessionHeader)); s != "" {
		return s
	}
	if s, err := c.Cookie(sessionCookie); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func requireSession(c *gin.Context) {
	if sessionID(c) == "" {
		abortError(c, http.StatusBadRequest, "session id required")
		return
	}
	c.Next()
}
