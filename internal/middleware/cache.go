package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const metaKey = "envelope_meta"

// WithResponseMeta seeds a metadata map on the request context. Handlers
// fold it into the response envelope; anything written after the handler
// serialized its response is dropped.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
		meta := metaFor(c)
		if _, ok := meta["processing_time_ms"]; !ok {
			meta["processing_time_ms"] = time.Since(started).Milliseconds()
		}
	}
}

// SetCacheHit marks whether the response was served from the snapshot
// cache rather than a fresh load.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)["cache_hit"] = hit
}

// ExtractMeta returns the metadata map for the current request, or nil
// when none was seeded.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(metaKey); ok {
		if meta, ok := v.(map[string]interface{}); ok {
			return meta
		}
	}
	return nil
}

func metaFor(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(metaKey, meta)
	return meta
}
