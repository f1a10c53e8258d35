package observability

import (
	"time"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rngsync"

// KindUnknown is the frame label for every kind the client does not handle.
const KindUnknown = "unknown"

// Submission outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeInvalid   = "invalid"
	OutcomeThrottled = "throttled"
	OutcomeFailed    = "failed"
)

// Metrics groups the counters and gauges exported by the client.
type Metrics struct {
	framesReceived      *prometheus.CounterVec
	parseErrors         prometheus.Counter
	entriesRecorded     prometheus.Counter
	persistenceFailures *prometheus.CounterVec
	submissions         *prometheus.CounterVec
	submitDuration      prometheus.Histogram
	channelState        *prometheus.GaugeVec
}

// NewMetrics creates the instruments and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_frames_total",
			Help:      "Push frames received, by envelope kind (NewRandom or unknown).",
		}, []string{"kind"}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_parse_errors_total",
			Help:      "Push frames dropped because they could not be decoded.",
		}),
		entriesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_entries_recorded_total",
			Help:      "Entries inserted into the history.",
		}),
		persistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_persistence_failures_total",
			Help:      "Durable storage operations that failed, by operation.",
		}, []string{"op"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_submissions_total",
			Help:      "Generation requests, by outcome.",
		}, []string{"outcome"}),
		submitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_submit_duration_seconds",
			Help:      "Duration of request transport calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		channelState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current session channel state, 0 otherwise.",
		}, []string{"state"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.framesReceived,
			m.parseErrors,
			m.entriesRecorded,
			m.persistenceFailures,
			m.submissions,
			m.submitDuration,
			m.channelState,
		)
	}
	return m
}

// FrameReceived counts a decoded frame. Kinds other than NewRandom share the
// "unknown" label so peers cannot grow the series set.
func (m *Metrics) FrameReceived(kind string) {
	if m == nil {
		return
	}
	if kind != domain.KindNewRandom {
		kind = KindUnknown
	}
	m.framesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) ParseError() {
	if m == nil {
		return
	}
	m.parseErrors.Inc()
}

func (m *Metrics) EntryRecorded() {
	if m == nil {
		return
	}
	m.entriesRecorded.Inc()
}

func (m *Metrics) PersistenceFailure(op string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(op).Inc()
}

// Submission records one gateway outcome. d is only observed for calls that reached the transport.
func (m *Metrics) Submission(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomeFailed {
		m.submitDuration.Observe(d.Seconds())
	}
}

// ChannelState marks current as the active state among all.
func (m *Metrics) ChannelState(current string, all ...string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.channelState.WithLabelValues(s).Set(v)
	}
}
