package service

import (
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// ProspectRepositoryAdapter adapts a store.ProspectStore to the
// ProspectRepository interface. The prospect view is read-only and never
// transactional, so the adapter is a plain embedding.
type ProspectRepositoryAdapter struct {
	store.ProspectStore
}

// NewProspectRepositoryAdapter creates a new adapter that implements
// ProspectRepository by delegating to a store.ProspectStore implementation
func NewProspectRepositoryAdapter(
	prospectStore store.ProspectStore,
) *ProspectRepositoryAdapter {
	return &ProspectRepositoryAdapter{
		ProspectStore: prospectStore,
	}
}

// Verify that ProspectRepositoryAdapter implements service.ProspectRepository
var _ ProspectRepository = (*ProspectRepositoryAdapter)(nil)
