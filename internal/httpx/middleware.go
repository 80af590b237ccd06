package httpx

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

// RID returns the request id set by RequestID.
func RID(c *gin.Context) string {
	return c.GetString("rid")
}

func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("rid", RID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
		}
		if a, ok := actorOf(c); ok {
			fields = append(fields, zap.String("actor", a.ID))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("[http]", fields...)
		default:
			log.Info("[http]", fields...)
		}
	}
}
