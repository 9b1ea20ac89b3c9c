package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness, a JSON view of the job counters
// and, when gatherer is set, prometheus metrics.
func (w *Worker) HealthHandler(db Pinger, gatherer prometheus.Gatherer) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/readyz", func(c *gin.Context) {
		if !w.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db": err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/stats", func(c *gin.Context) {
		s := w.metrics.Snapshot()
		byType := make(gin.H, len(s.ByType))
		for t, cs := range s.ByType {
			byType[t] = statsJSON(cs)
		}

		out := statsJSON(s.JobCountersSnapshot)
		out["byType"] = byType
		c.JSON(http.StatusOK, out)
	})

	return r
}

func statsJSON(s observability.JobCountersSnapshot) gin.H {
	return gin.H{
		"claimed":           s.Claimed,
		"done":              s.Done,
		"failed":            s.Failed,
		"retried":           s.Retried,
		"deadLettered":      s.DeadLettered,
		"duplicatesSkipped": s.DuplicatesSkipped,
		"durationCount":     s.DurationCount,
		"averageDurationMs": s.AverageDuration.Milliseconds(),
		"maxDurationMs":     s.MaxDuration.Milliseconds(),
	}
}
