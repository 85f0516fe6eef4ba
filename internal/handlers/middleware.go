package handlers

import (
	"net/http"
	"strings"
	"time"

	"task_manager/internal/models"

	"github.com/gin-gonic/gin"
)

const identityCtxKey = "identity"

func (h *Handler) authMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortWithMessage(c, http.StatusUnauthorized, "missing Authorization header")
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		abortWithMessage(c, http.StatusUnauthorized, "invalid Authorization header format")
		return
	}

	identity, err := h.services.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		abortWithMessage(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	// store in Gin context
	c.Set(identityCtxKey, identity)
	c.Next()
}

// callerIdentity returns the identity stored by authMiddleware.
func callerIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityCtxKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

// requestLogger logs one line per request.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if h.log == nil {
			return
		}
		h.log.Infow("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// recovery turns panics into a 500 JSON body.
func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		if h.log != nil {
			h.log.Errorw("http_panic", "path", c.Request.URL.Path, "panic", rec)
		}
		abortWithMessage(c, http.StatusInternalServerError, msgInternal)
	})
}

// cors answers preflight requests and sets the allow headers for known origins.
func (h *Handler) cors() gin.HandlerFunc {
	allowAny := false
	allowed := make(map[string]struct{}, len(h.corsOrigins))
	for _, o := range h.corsOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAny = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; ok || allowAny {
				if allowAny {
					c.Header("Access-Control-Allow-Origin", "*")
				} else {
					c.Header("Access-Control-Allow-Origin", origin)
					c.Header("Vary", "Origin")
				}
				c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
