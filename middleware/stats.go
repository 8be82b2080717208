package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/upworkmkd/msd-seo-audit/stats"
)

// Stats records per-request audit counters after each analysis call.
func Stats(storage *stats.Storage, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path != "/api/analyze" || c.Request.Method != http.MethodPost {
			return
		}

		failed := c.Writer.Status() >= 400
		storage.RecordAudit(failed)

		log.WithFields(logrus.Fields{
			"ip":       c.ClientIP(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Milliseconds(),
		}).Info("audit request completed")
	}
}
