package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta gives each request a metadata map that handlers attach to the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta stores one metadata value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := ResponseMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
		if c != nil {
			c.Set(responseMetaKey, meta)
		}
	}
	meta[key] = value
}

// SetCacheHit records whether the payload was served from the stats cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// MetaSince returns the response metadata with processing_time_ms measured from start.
func MetaSince(c *gin.Context, start time.Time) map[string]interface{} {
	SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	return ResponseMeta(c)
}

// ResponseMeta returns the metadata map stored on the context, or nil.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}
