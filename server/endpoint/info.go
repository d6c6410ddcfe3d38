package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/vidscribe/version"
)

var startTime = time.Now()

// Info reports the build version and process uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    v.String(),
			"release":    v.IsRelease(),
			"build":      v,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"started_at": startTime.UTC().Format(time.RFC3339),
		})
	}
}
