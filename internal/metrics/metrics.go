package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route",
	}, []string{"method", "route", "status"})

	VoteToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vote_toggles_total",
		Help: "Vote toggles by item kind and result",
	}, []string{"kind", "result"})

	CommentOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comment_operations_total",
		Help: "Comment add/edit/delete operations",
	}, []string{"operation", "status"})

	FeedFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_fetches_total",
		Help: "News site feed fetches",
	}, []string{"status"})

	FeedItemsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_items_ingested_total",
		Help: "Articles created from feeds",
	})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "list_cache_lookups_total",
		Help: "List cache lookups by result",
	}, []string{"result"})
)

// MustRegister 注册全部指标
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		HTTPRequestDuration,
		HTTPRequestsTotal,
		VoteToggles,
		CommentOperations,
		FeedFetches,
		FeedItemsIngested,
		CacheLookups,
	)
}

// Middleware records latency and count per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// ObserveVote 记录一次投票切换
func ObserveVote(kind string, cast bool, err error) {
	result := "retracted"
	switch {
	case err != nil:
		result = "error"
	case cast:
		result = "cast"
	}
	VoteToggles.WithLabelValues(kind, result).Inc()
}

func ObserveComment(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CommentOperations.WithLabelValues(operation, status).Inc()
}

func ObserveFeedFetch(err error, ingested int) {
	status := "success"
	if err != nil {
		status = "error"
	}
	FeedFetches.WithLabelValues(status).Inc()
	FeedItemsIngested.Add(float64(ingested))
}

func ObserveCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
