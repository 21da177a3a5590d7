// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Question lifecycle
	QuestionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heapoverflow_questions_created_total",
			Help: "Total questions created",
		},
	)

	QuestionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapoverflow_questions_closed_total",
			Help: "Total questions closed",
		},
		[]string{"reason"},
	)

	// Category registry
	CategoryMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapoverflow_category_mutations_total",
			Help: "Total category mutations",
		},
		[]string{"operation"}, // "create", "modify" or "delete"
	)

	// Message cache
	CachedMessageLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapoverflow_cached_message_lookups_total",
			Help: "Cached message lookups",
		},
		[]string{"result"}, // "hit", "miss" or "stale"
	)

	// Submission workflow
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapoverflow_submissions_total",
			Help: "Question submissions by outcome",
		},
		[]string{"outcome"},
	)

	// Command surface
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heapoverflow_commands_total",
			Help: "Commands handled",
		},
		[]string{"command", "result"}, // result is an error kind
	)
)

// Cache lookup results.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupStale = "stale"
)

// Submission outcomes.
const (
	SubmissionCreated    = "created"
	SubmissionBlank      = "blank"
	SubmissionNoPending  = "no_pending"
	SubmissionMismatch   = "mismatch"
	SubmissionFailed     = "failed"
	SubmissionIncomplete = "incomplete"
)
