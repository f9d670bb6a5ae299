package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MemberWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "famtree",
		Name:      "member_writes_total",
		Help:      "Total number of member mutations by operation",
	}, []string{"op"})

	PartnerLinks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "famtree",
		Name:      "partner_links_total",
		Help:      "Total number of partner link and clear operations",
	}, []string{"op"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "famtree",
		Name:      "cache_lookups_total",
		Help:      "Role cache lookups by cache and result",
	}, []string{"cache", "result"})

	MediaUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "famtree",
		Name:      "media_upload_bytes",
		Help:      "Size of accepted media uploads",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
	})

	MediaObjectsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "famtree",
		Name:      "media_objects_purged_total",
		Help:      "Total number of media objects deleted by the purge worker",
	})

	PurgeQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "famtree",
		Name:      "purge_queue_depth",
		Help:      "Number of pending media purge tasks",
	})

	EventsPublishFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "famtree",
		Name:      "events_publish_failed_total",
		Help:      "Tree events that could not be published",
	}, []string{"type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "famtree",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "famtree",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
