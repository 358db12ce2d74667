package service

import "artify-catalog/internal/domain"

// WriteStatus tells the caller how much of a mutation has finished. A failed downstream
// step wins over a pending enrichment; Effects.EventPublished still tells the two apart.
type WriteStatus string

const (
	// StatusCompleted: the store write and every downstream step succeeded.
	StatusCompleted WriteStatus = "completed"
	// StatusEnrichmentPending: durably created; tags will arrive asynchronously.
	StatusEnrichmentPending WriteStatus = "enrichment_pending"
	// StatusDegraded: durably written, but a downstream step failed and was absorbed.
	StatusDegraded WriteStatus = "degraded"
)

// Effects records the best-effort steps that ran after a successful store write.
type Effects struct {
	CacheInvalidated bool
	EventPublished   bool
	Failures         []*DownstreamError
}

// Degraded reports whether any best-effort step failed.
func (e Effects) Degraded() bool {
	return len(e.Failures) > 0
}

func (e *Effects) fail(err *DownstreamError) {
	e.Failures = append(e.Failures, err)
}

// WriteResult is the primary result of a mutation plus its best-effort side effects.
type WriteResult struct {
	Product *domain.Product
	Status  WriteStatus
	Effects Effects
}

func newWriteResult(product *domain.Product, effects Effects) *WriteResult {
	status := StatusCompleted
	switch {
	case effects.Degraded():
		status = StatusDegraded
	case effects.EventPublished:
		status = StatusEnrichmentPending
	}
	return &WriteResult{Product: product, Status: status, Effects: effects}
}
