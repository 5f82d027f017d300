// Package store persists the state that must survive restarts: paired
// remote GUIDs and fetched album artwork. Both live in one bolt database.
package store

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var (
	pairingBucket = []byte("pairing")
	artworkBucket = []byte("albumart")
)

// Store is a handle on the bolt database
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database and ensures the buckets exist
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{pairingBucket, artworkBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "create bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (me *Store) Close() error {
	return me.db.Close()
}

// AddPairing records a paired GUID. Re-adding is a no-op.
func (me *Store) AddPairing(guid uint64) error {
	return me.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(pairingBucket).Put(guidKey(guid), []byte{})
	})
}

// HasPairing reports whether the GUID has been paired
func (me *Store) HasPairing(guid uint64) (ok bool, err error) {
	err = me.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(pairingBucket).Get(guidKey(guid)) != nil
		return nil
	})
	return
}

// Pairings lists all paired GUIDs
func (me *Store) Pairings() (guids []uint64, err error) {
	err = me.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(pairingBucket).ForEach(func(k, _ []byte) error {
			if len(k) == 8 {
				guids = append(guids, binary.BigEndian.Uint64(k))
			}
			return nil
		})
	})
	return
}

// PutArtwork stores the original image bytes under the normalized artist
// and album pair
func (me *Store) PutArtwork(artist, album string, data []byte) error {
	return me.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(artworkBucket).Put(artKey(artist, album), data)
	})
}

// GetArtwork returns the stored image bytes, if any
func (me *Store) GetArtwork(artist, album string) (data []byte, ok bool, err error) {
	err = me.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(artworkBucket).Get(artKey(artist, album))
		if raw != nil {
			data = append([]byte(nil), raw...)
			ok = true
		}
		return nil
	})
	return
}

func guidKey(guid uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, guid)
	return key
}

func artKey(artist, album string) []byte {
	key := make([]byte, 0, len(artist)+len(album)+1)
	key = append(key, artist...)
	key = append(key, 0)
	key = append(key, album...)
	return key
}
