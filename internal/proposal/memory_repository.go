package proposal

import (
	"context"
	"errors"
	"sync"
)

// memoryRepository keeps proposals in a slice to preserve insertion order.
// Reads take the shared lock; mutations take the exclusive lock only for the
// in-memory update, never across external calls.
type memoryRepository struct {
	mu        sync.RWMutex
	proposals []Proposal
}

// NewMemoryRepository constructs an in-memory proposal store.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Insert(_ context.Context, p Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.proposals {
		if r.proposals[i].ID == p.ID {
			return errors.New("proposal exists")
		}
	}
	r.proposals = append(r.proposals, p.clone())
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Proposal, 0, len(r.proposals))
	for i := range r.proposals {
		out = append(out, r.proposals[i].clone())
	}
	return out, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.proposals {
		if r.proposals[i].ID == id {
			return r.proposals[i].clone(), nil
		}
	}
	return Proposal{}, ErrProposalNotFound
}

func (r *memoryRepository) AddSignature(_ context.Context, id, signature string) (Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.proposals {
		if r.proposals[i].ID == id {
			applySignature(&r.proposals[i], signature)
			return r.proposals[i].clone(), nil
		}
	}
	return Proposal{}, ErrProposalNotFound
}
