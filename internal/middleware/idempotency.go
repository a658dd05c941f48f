package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// ResponseStore persists replayable responses. CacheStore in internal/redis
// satisfies it.
type ResponseStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response when a POST is retried
// with the same Idempotency-Key. Keys are scoped to the caller and route.
func IdempotencyMiddleware(store ResponseStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyKey(c, key)

		var cached cachedResponse
		found, err := store.Get(ctx, cacheKey, &cached)
		if err != nil {
			// Store unavailable: serve the request without replay protection.
			logger.Warn("idempotency lookup failed", zap.String("key", cacheKey), zap.Error(err))
			c.Next()
			return
		}
		if found {
			c.Header("Idempotent-Replay", "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 500 {
			response := cachedResponse{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.Bytes(),
			}
			if err := store.Set(ctx, cacheKey, &response, idempotencyTTL); err != nil {
				logger.Warn("idempotency store failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}
}

func idempotencyKey(c *gin.Context, key string) string {
	scope := "anonymous"
	if party, ok := PartyFromContext(c); ok {
		scope = string(party.Type) + ":" + party.ID
	}
	return "idempotency:" + scope + ":" + c.Request.URL.Path + ":" + key
}
