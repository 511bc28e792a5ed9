package validationstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/account-resolution/pkg/solana"
)

var (
	ErrNotFound      = errors.New("validation account not found")
	ErrAlreadyExists = errors.New("validation account already exists")
)

// Record is a validation account: a TLV buffer holding the requirement lists
// for one or more instructions of Program.
type Record struct {
	Address string
	Program string

	Data []byte

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

type Store interface {
	// Put creates a new validation account record.
	//
	// ErrAlreadyExists is returned if a record already exists for the address.
	Put(ctx context.Context, record *Record) error

	// Update replaces the data of an existing validation account record.
	//
	// ErrNotFound is returned if no record exists for the address.
	Update(ctx context.Context, record *Record) error

	// Get gets a validation account record by its address.
	//
	// ErrNotFound is returned if no record exists for the address.
	Get(ctx context.Context, address string) (*Record, error)

	// GetAllByProgram gets all validation account records for a program,
	// ordered by address.
	//
	// ErrNotFound is returned if the program has no records.
	GetAllByProgram(ctx context.Context, program string) ([]*Record, error)
}

func (r *Record) Validate() error {
	if _, err := solana.PublicKeyFromString(r.Address); err != nil {
		return errors.Wrap(err, "invalid address")
	}

	if _, err := solana.PublicKeyFromString(r.Program); err != nil {
		return errors.Wrap(err, "invalid program")
	}

	if len(r.Data) == 0 {
		return errors.New("data is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)

	return Record{
		Address:       r.Address,
		Program:       r.Program,
		Data:          data,
		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Address = r.Address
	dst.Program = r.Program
	dst.Data = make([]byte, len(r.Data))
	copy(dst.Data, r.Data)
	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}
