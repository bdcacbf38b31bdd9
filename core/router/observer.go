package router

import "time"

// Outcome classifies how a request left the dispatcher.
type Outcome string

const (
	OutcomeMatched          Outcome = "matched"
	OutcomeHalted           Outcome = "halted"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeMethodNotAllowed Outcome = "method_not_allowed"
	OutcomeFailed           Outcome = "failed"
	OutcomeTimeout          Outcome = "timeout"
)

// Observation describes one finalized request.
type Observation struct {
	Method    string
	Path      string
	Pattern   string
	Blueprint string
	Status    int
	Duration  time.Duration
	Outcome   Outcome
}

// Observer receives an Observation for every request the dispatcher finalizes.
// Observe is called from request goroutines and must be safe for concurrent use.
type Observer interface {
	Observe(Observation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Observation)

func (f ObserverFunc) Observe(o Observation) { f(o) }
