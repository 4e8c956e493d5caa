package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/direct-system/labdesk-api/pkg/config"
	"github.com/direct-system/labdesk-api/pkg/middleware/requestid"
)

// New builds a zap logger from the runtime configuration. A log level that
// fails to parse falls back to info rather than aborting startup.
func New(cfg *config.Config) (*zap.Logger, error) {
	base := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		base = zap.NewProductionConfig()
	}

	base.Encoding = "json"
	if cfg.Log.Format == "console" {
		base.Encoding = "console"
	}

	if cfg.Log.Level != "" {
		if err := base.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			base.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	base.EncoderConfig.TimeKey = "timestamp"
	base.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return base.Build()
}

// GinMiddleware logs one structured line per request after the handler chain
// has run.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if id := requestid.Value(c); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}

		l.Info("http_request", fields...)
	}
}
