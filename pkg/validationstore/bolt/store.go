package bolt

import (
	"bytes"
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/code-payments/account-resolution/pkg/validationstore"
)

var (
	// bucketRecords maps address -> encoded record.
	bucketRecords = []byte("validation_accounts")

	// bucketProgramIndex maps program:address -> nil.
	bucketProgramIndex = []byte("program_index")
)

const programIndexSeparator = ':'

type store struct {
	log *logrus.Entry
	db  *bolt.DB
}

// New returns a validationstore.Store backed by the bbolt database at path,
// creating it if it doesn't exist.
func New(path string) (validationstore.Store, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, errors.Wrap(err, "error creating store directory")
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, nil, errors.Wrap(err, "error opening bolt database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketProgramIndex} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "error creating bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	s := &store{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "validationstore/bolt",
			"path": path,
		}),
		db: db,
	}
	return s, db.Close, nil
}

// Put implements validationstore.Store.Put
func (s *store) Put(_ context.Context, record *validationstore.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	now := time.Now()

	return s.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		if records.Get([]byte(record.Address)) != nil {
			return validationstore.ErrAlreadyExists
		}

		cloned := record.Clone()
		cloned.CreatedAt = now
		cloned.LastUpdatedAt = now

		encoded, err := encodeRecord(&cloned)
		if err != nil {
			return err
		}

		if err := records.Put([]byte(record.Address), encoded); err != nil {
			return errors.Wrap(err, "error putting record")
		}

		if err := tx.Bucket(bucketProgramIndex).Put(programIndexKey(record.Program, record.Address), []byte{}); err != nil {
			return errors.Wrap(err, "error putting program index")
		}

		s.log.WithField("address", record.Address).Debug("created validation account")

		record.CreatedAt = now
		record.LastUpdatedAt = now
		return nil
	})
}

// Update implements validationstore.Store.Update
func (s *store) Update(_ context.Context, record *validationstore.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)

		existing, err := decodeRecord(records.Get([]byte(record.Address)))
		if err != nil {
			return err
		}
		if existing.Program != record.Program {
			return validationstore.ErrNotFound
		}

		existing.Data = make([]byte, len(record.Data))
		copy(existing.Data, record.Data)
		existing.LastUpdatedAt = time.Now()

		encoded, err := encodeRecord(existing)
		if err != nil {
			return err
		}

		if err := records.Put([]byte(record.Address), encoded); err != nil {
			return errors.Wrap(err, "error putting record")
		}

		s.log.WithField("address", record.Address).Debug("updated validation account")

		existing.CopyTo(record)
		return nil
	})
}

// Get implements validationstore.Store.Get
func (s *store) Get(_ context.Context, address string) (*validationstore.Record, error) {
	var res *validationstore.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		record, err := decodeRecord(tx.Bucket(bucketRecords).Get([]byte(address)))
		if err != nil {
			return err
		}
		res = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetAllByProgram implements validationstore.Store.GetAllByProgram
func (s *store) GetAllByProgram(_ context.Context, program string) ([]*validationstore.Record, error) {
	var res []*validationstore.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		prefix := programIndexKey(program, "")

		c := tx.Bucket(bucketProgramIndex).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			address := k[len(prefix):]

			record, err := decodeRecord(records.Get(address))
			if err != nil {
				return errors.Wrapf(err, "error loading indexed record %s", address)
			}
			res = append(res, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, validationstore.ErrNotFound
	}
	return res, nil
}

func programIndexKey(program, address string) []byte {
	key := make([]byte, 0, len(program)+1+len(address))
	key = append(key, program...)
	key = append(key, programIndexSeparator)
	key = append(key, address...)
	return key
}

func encodeRecord(record *validationstore.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(record); err != nil {
		return nil, errors.Wrap(err, "error encoding record")
	}
	return buf.Bytes(), nil
}

func decodeRecord(encoded []byte) (*validationstore.Record, error) {
	if encoded == nil {
		return nil, validationstore.ErrNotFound
	}

	var record validationstore.Record
	if err := gob.NewDecoder(bytes.NewReader(encoded)).Decode(&record); err != nil {
		return nil, errors.Wrap(err, "error decoding record")
	}
	return &record, nil
}

func (s *store) reset() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketProgramIndex} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
