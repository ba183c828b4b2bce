package httpapi

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alexanderramin/barnlog/internal/auth"
	"github.com/alexanderramin/barnlog/internal/ratelimit"
)

const identityKey = "barnlog_identity"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barnlog_http_requests_total",
		Help: "HTTP requests served, by route and status",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "barnlog_http_request_duration_seconds",
		Help:    "HTTP request latency, by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// SetIdentity stores the verified caller on the request context.
func SetIdentity(c *gin.Context, id auth.Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the verified caller, if any.
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(auth.Identity); ok {
			return id, true
		}
	}
	return auth.Identity{}, false
}

func mustIdentity(c *gin.Context) auth.Identity {
	id, _ := GetIdentity(c)
	return id
}

// authenticate verifies the bearer credential and stores the identity.
// Rejected credentials are charged to the client IP under failures, so
// guessing tokens runs into 429s like any other unauthenticated caller.
func authenticate(verifier *auth.Verifier, limiter *ratelimit.Limiter, failures ratelimit.Bucket, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var id auth.Identity
			id, err = verifier.Verify(token)
			if err == nil {
				SetIdentity(c, id)
				c.Next()
				return
			}
		}
		key := "ip:" + c.ClientIP()
		logger.DebugContext(c.Request.Context(), "credential rejected", "key", key, "error", err)
		if limitErr := limiter.CheckAll(key, failures); limitErr != nil {
			logger.InfoContext(c.Request.Context(), "rate limited", "key", key, "error", limitErr)
			err = limitErr
		}
		respond(c, logger, err)
	}
}

// rateLimit counts the request against every bucket. Authenticated
// callers are keyed by rider, everyone else by client IP.
func rateLimit(limiter *ratelimit.Limiter, logger *slog.Logger, buckets ...ratelimit.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, ok := GetIdentity(c); ok {
			key = "rider:" + id.RiderID
		}
		if err := limiter.CheckAll(key, buckets...); err != nil {
			logger.InfoContext(c.Request.Context(), "rate limited", "key", key, "error", err)
			respond(c, logger, err)
			return
		}
		c.Next()
	}
}

// observe records request metrics and a structured access log line.
func observe(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}
