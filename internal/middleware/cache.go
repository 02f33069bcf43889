package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta attaches a metadata map that handlers fill and the envelope
// renders. Processing time is recorded unless a handler already set it.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Set("meta_started_at", time.Now())
		c.Next()
	}
}

// SetMeta stores a single metadata value for the response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// SetCacheHit records whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// ExtractMeta returns the metadata map with processing time filled in.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	if _, set := meta["processing_time_ms"]; !set {
		if started, ok := c.Get("meta_started_at"); ok {
			if t, ok := started.(time.Time); ok {
				meta["processing_time_ms"] = time.Since(t).Milliseconds()
			}
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if raw, exists := c.Get(responseMetaKey); exists {
		if meta, ok := raw.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
