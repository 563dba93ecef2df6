package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics
var (
	EvidenceLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carepathiq_evidence_lookups_total",
			Help: "Total number of literature lookups by outcome",
		},
		[]string{"status"}, // "hit" | "empty" | "failed"
	)
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carepathiq_llm_calls_total",
			Help: "Total number of LLM calls by operation and outcome",
		},
		[]string{"operation", "status"},
	)
	DocumentSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carepathiq_document_saves_total",
			Help: "Total number of pathway document writes",
		},
		[]string{"mode", "status"}, // mode: "explicit" | "checkpoint"
	)
)

func init() {
	prometheus.MustRegister(EvidenceLookups)
	prometheus.MustRegister(LLMCalls)
	prometheus.MustRegister(DocumentSaves)
}
