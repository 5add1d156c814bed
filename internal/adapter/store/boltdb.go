package store

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"faceid/internal/domain"
)

var (
	bucketFaces = []byte("faces")
	bucketMeta  = []byte("meta")
	keyListing  = []byte("face_recognition_data")
)

// BoltStore persists the enrollment listing in a single bbolt key so
// insertion order survives a round trip.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bolt db")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketFaces, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return errors.Wrapf(err, "failed to create bucket %s", b)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load() ([]domain.Record, error) {
	var records []domain.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFaces).Get(keyListing)
		if data == nil {
			return nil
		}
		return errors.Wrap(json.Unmarshal(data, &records), "failed to decode listing")
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BoltStore) Save(records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "failed to encode listing")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return errors.Wrap(tx.Bucket(bucketFaces).Put(keyListing, data), "failed to write listing")
	})
}

func (s *BoltStore) RemoveAll() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return errors.Wrap(tx.Bucket(bucketFaces).Delete(keyListing), "failed to delete listing")
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
