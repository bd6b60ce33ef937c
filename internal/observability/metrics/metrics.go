package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallMetrics exposes counters/histograms for the voice interview flow.
type CallMetrics struct {
	callsStarted     prometheus.Counter
	turnsTotal       *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	llmLatency       prometheus.Histogram
	synthesisLatency *prometheus.HistogramVec
}

func NewCallMetrics(reg prometheus.Registerer) *CallMetrics {
	m := &CallMetrics{
		callsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pitchpanel",
			Subsystem: "calls",
			Name:      "started_total",
			Help:      "Total inbound calls answered",
		}),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitchpanel",
			Subsystem: "calls",
			Name:      "turns_total",
			Help:      "Completed conversation turns by agent and outcome",
		}, []string{"agent", "outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitchpanel",
			Subsystem: "calls",
			Name:      "agent_transitions_total",
			Help:      "Agent handoffs by outgoing and incoming agent",
		}, []string{"from", "to"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pitchpanel",
			Subsystem: "llm",
			Name:      "generate_latency_seconds",
			Help:      "Latency of language model completions",
			Buckets:   prometheus.DefBuckets,
		}),
		synthesisLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pitchpanel",
			Subsystem: "speech",
			Name:      "synthesis_latency_seconds",
			Help:      "Latency of speech synthesis requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsStarted, m.turnsTotal, m.transitionsTotal, m.llmLatency, m.synthesisLatency)
	return m
}

func (m *CallMetrics) ObserveCallStarted() {
	if m == nil {
		return
	}
	m.callsStarted.Inc()
}

func (m *CallMetrics) ObserveTurn(agent, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(agent, outcome).Inc()
}

func (m *CallMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *CallMetrics) ObserveLLMLatency(seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(seconds)
}

func (m *CallMetrics) ObserveSynthesisLatency(agent string, seconds float64) {
	if m == nil {
		return
	}
	m.synthesisLatency.WithLabelValues(agent).Observe(seconds)
}
