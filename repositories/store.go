package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sequenceBandwidth = 100
	maxTxnAttempts    = 3
)

// Store owns the Badger handle and the id sequences shared by all repositories.
type Store struct {
	db              *badger.DB
	userSeq         *badger.Sequence
	conversationSeq *badger.Sequence
	messageSeq      *badger.Sequence
}

func NewStore(db *badger.DB) (*Store, error) {
	s := &Store{db: db}
	var err error
	if s.userSeq, err = db.GetSequence([]byte("seq:user"), sequenceBandwidth); err != nil {
		return nil, fmt.Errorf("user sequence: %w", err)
	}
	if s.conversationSeq, err = db.GetSequence([]byte("seq:conversation"), sequenceBandwidth); err != nil {
		_ = s.userSeq.Release()
		return nil, fmt.Errorf("conversation sequence: %w", err)
	}
	if s.messageSeq, err = db.GetSequence([]byte("seq:message"), sequenceBandwidth); err != nil {
		_ = s.userSeq.Release()
		_ = s.conversationSeq.Release()
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return s, nil
}

func (s *Store) DB() *badger.DB {
	return s.db
}

// Close releases the leased sequence ranges. The Badger handle is left open.
func (s *Store) Close() error {
	return errors.Join(
		s.userSeq.Release(),
		s.conversationSeq.Release(),
		s.messageSeq.Release(),
	)
}

// next returns strictly positive ids: zero is reserved as "no id".
func next(seq *badger.Sequence) (uint64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// update runs fn in a read-write transaction and retries it when Badger
// reports a conflict with a concurrently committed transaction.
// The retried fn sees the winner's writes, so uniqueness checks inside fn hold.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
