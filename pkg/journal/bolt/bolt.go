// Package bolt stores the journal in a single bbolt file, for users who want
// a durable journal without cgo or a database server.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/papercomputeco/playground/pkg/journal"
)

var (
	// entriesBucket maps an 8-byte big-endian sequence to a JSON entry, so
	// cursor order is append order.
	entriesBucket = []byte("entries")

	// idsBucket maps entry IDs to their sequence key.
	idsBucket = []byte("ids")
)

// Driver implements journal.Driver on bbolt.
type Driver struct {
	db *bolt.DB
}

// NewDriver opens or creates the database file at path.
func NewDriver(path string) (*Driver, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{entriesBucket, idsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal buckets: %w", err)
	}

	return &Driver{db: db}, nil
}

func (d *Driver) Append(_ context.Context, e *journal.Entry) error {
	if e == nil {
		return errors.New("cannot append nil entry")
	}
	journal.Prepare(e, time.Now())

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding journal entry: %w", err)
	}

	return d.db.Update(func(tx *bolt.Tx) error {
		entries := tx.Bucket(entriesBucket)
		seq, err := entries.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating journal key: %w", err)
		}

		key := binary.BigEndian.AppendUint64(nil, seq)
		if err := entries.Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(idsBucket).Put([]byte(e.ID), key)
	})
}

func (d *Driver) List(_ context.Context, f journal.Filter) ([]*journal.Entry, error) {
	var out []*journal.Entry
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(entriesBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			e, err := decode(v)
			if err != nil {
				return err
			}
			if f.ChatID != "" && e.ChatID != f.ChatID {
				continue
			}
			out = append(out, e)
			if f.Limit > 0 && len(out) == f.Limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (d *Driver) Get(_ context.Context, id string) (*journal.Entry, error) {
	var e *journal.Entry
	err := d.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(idsBucket).Get([]byte(id))
		if key == nil {
			return journal.NotFoundError{ID: id}
		}
		data := tx.Bucket(entriesBucket).Get(key)
		if data == nil {
			return journal.NotFoundError{ID: id}
		}

		var err error
		e, err = decode(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (d *Driver) Clear(_ context.Context, chatID string) (int, error) {
	removed := 0
	err := d.db.Update(func(tx *bolt.Tx) error {
		entries, ids := tx.Bucket(entriesBucket), tx.Bucket(idsBucket)

		// Deleting under a live cursor skips keys, so collect first.
		var doomed []*journal.Entry
		var keys [][]byte
		err := entries.ForEach(func(k, v []byte) error {
			e, err := decode(v)
			if err != nil {
				return err
			}
			if chatID == "" || e.ChatID == chatID {
				doomed = append(doomed, e)
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for i, k := range keys {
			if err := entries.Delete(k); err != nil {
				return err
			}
			if err := ids.Delete([]byte(doomed[i].ID)); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	return removed, err
}

func (d *Driver) Close() error {
	return d.db.Close()
}

func decode(data []byte) (*journal.Entry, error) {
	e := &journal.Entry{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decoding journal entry: %w", err)
	}
	return e, nil
}
