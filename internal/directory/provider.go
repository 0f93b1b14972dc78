// Package directory looks up patients by free text.
package directory

import (
	"context"

	"patientsearch/internal/domain"
)

// Provider kinds accepted by configuration
const (
	KindHTTP  = "http"
	KindLocal = "local"
)

// Provider performs the patient lookup behind the search widget.
// Lookup must not have side effects; it may fail.
type Provider interface {
	Lookup(ctx context.Context, text string) ([]domain.PatientSummary, error)
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context, text string) ([]domain.PatientSummary, error)

func (f ProviderFunc) Lookup(ctx context.Context, text string) ([]domain.PatientSummary, error) {
	return f(ctx, text)
}
