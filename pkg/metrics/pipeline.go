package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records checkout and fulfillment pipeline activity.
type PipelineMetrics struct {
	fulfillmentDuration *prometheus.HistogramVec
	webhookEvents       *prometheus.CounterVec
	grantsMinted        prometheus.Counter
	downloads           *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	fulfillmentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fulfillment_duration_seconds",
		Help:    "Duration of order fulfillment in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed payment webhook events.",
	}, []string{"type", "outcome"})
	grantsMinted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "download_grants_minted_total",
		Help: "Download grants minted during fulfillment.",
	})
	downloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "downloads_total",
		Help: "Download grant redemption attempts.",
	}, []string{"outcome"})
	reg.MustRegister(fulfillmentDuration, webhookEvents, grantsMinted, downloads)
	return &PipelineMetrics{
		fulfillmentDuration: fulfillmentDuration,
		webhookEvents:       webhookEvents,
		grantsMinted:        grantsMinted,
		downloads:           downloads,
	}
}

// ObserveFulfillment records how long fulfilling an order took.
func (p *PipelineMetrics) ObserveFulfillment(outcome string, duration time.Duration) {
	if p == nil || p.fulfillmentDuration == nil {
		return
	}
	p.fulfillmentDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncWebhookEvent increments the webhook counter for the event type.
func (p *PipelineMetrics) IncWebhookEvent(eventType, outcome string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// AddGrantsMinted adds to the minted grant counter.
func (p *PipelineMetrics) AddGrantsMinted(count int) {
	if p == nil || p.grantsMinted == nil || count <= 0 {
		return
	}
	p.grantsMinted.Add(float64(count))
}

// IncDownload increments the download counter for the given outcome.
func (p *PipelineMetrics) IncDownload(outcome string) {
	if p == nil || p.downloads == nil {
		return
	}
	p.downloads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
