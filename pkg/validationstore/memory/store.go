package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/account-resolution/pkg/validationstore"
)

type store struct {
	mu      sync.Mutex
	records []*validationstore.Record
}

// New returns a new in memory validationstore.Store
func New() validationstore.Store {
	return &store{}
}

// Put implements validationstore.Store.Put
func (s *store) Put(_ context.Context, data *validationstore.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(data.Address); item != nil {
		return validationstore.ErrAlreadyExists
	}

	data.CreatedAt = time.Now()
	data.LastUpdatedAt = data.CreatedAt

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Update implements validationstore.Store.Update
func (s *store) Update(_ context.Context, data *validationstore.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(data.Address)
	if item == nil || item.Program != data.Program {
		return validationstore.ErrNotFound
	}

	item.Data = make([]byte, len(data.Data))
	copy(item.Data, data.Data)
	item.LastUpdatedAt = time.Now()

	item.CopyTo(data)

	return nil
}

// Get implements validationstore.Store.Get
func (s *store) Get(_ context.Context, address string) (*validationstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(address)
	if item == nil {
		return nil, validationstore.ErrNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByProgram implements validationstore.Store.GetAllByProgram
func (s *store) GetAllByProgram(_ context.Context, program string) ([]*validationstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*validationstore.Record
	for _, item := range s.records {
		if item.Program == program {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, validationstore.ErrNotFound
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Address < res[j].Address
	})

	return res, nil
}

func (s *store) findByAddress(address string) *validationstore.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}

	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}
