package model

import (
	"errors"
	"fmt"
)

// ExtractionError means no subject/predicate/object could be derived from the claim.
// It is fatal for a verification request.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("triple extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "triple extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RetrievalError names the evidence source that failed.
type RetrievalError struct {
	Source string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("evidence retrieval from %s failed: %v", e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func (e *RetrievalError) Warning() string {
	return fmt.Sprintf("evidence retrieval from %s failed", e.Source)
}

// ClassificationError wraps a failure of a verdict strategy.
type ClassificationError struct {
	Strategy string
	Err      error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification with %s failed: %v", e.Strategy, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

func (e *ClassificationError) Warning() string {
	return fmt.Sprintf("classifier %s failed", e.Strategy)
}

// ResolutionDegraded is a warning, not a failure: the primary linkers could not be
// reached and only fuzzy matching was used.
type ResolutionDegraded struct {
	Mention string
	Err     error
}

func (e *ResolutionDegraded) Error() string {
	return fmt.Sprintf("entity resolution for %q degraded to fuzzy matching: %v", e.Mention, e.Err)
}

func (e *ResolutionDegraded) Unwrap() error { return e.Err }

func (e *ResolutionDegraded) Warning() string {
	return fmt.Sprintf("entity resolution for %q degraded to fuzzy matching", e.Mention)
}

// Warning renders err for a response. Only the failing source or strategy is
// named; upstream messages, endpoints and model output stay in the logs.
func Warning(err error) string {
	var w interface{ Warning() string }
	if errors.As(err, &w) {
		return w.Warning()
	}
	return "internal error"
}
