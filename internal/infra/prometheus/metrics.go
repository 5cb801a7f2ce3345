package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the resolution and management paths.
var (
	Redirects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tinylink_redirects_total",
		Help: "Visits answered with an HTTP redirect (clicks counted).",
	})

	Previews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tinylink_previews_total",
		Help: "Visits answered with the rendered preview page.",
	})

	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tinylink_links_created_total",
		Help: "Short links created through the management API.",
	})

	MetadataFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tinylink_metadata_fallbacks_total",
		Help: "Metadata fetches that degraded to the fallback payload.",
	})
)
