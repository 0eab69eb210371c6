package client

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// StoredSession is what the terminal client keeps between runs.
type StoredSession struct {
	AccessToken string
	AccountID   uuid.UUID
	Email       string
	Identity    string
	ExpiresAt   time.Time
}

func (s *StoredSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionStore persists the session in a badger database.
type SessionStore struct {
	db *badger.DB
}

var sessionEncoding, _ = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()

func sessionKey() []byte {
	return []byte("session")
}

// OpenSessionStore opens the store in dir. An empty dir keeps everything in memory.
func OpenSessionStore(dir string) (*SessionStore, error) {
	opt := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opt = opt.WithInMemory(true)
	}
	db, err := badger.Open(opt)
	if err != nil {
		return nil, err
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Save(session *StoredSession) error {
	data, err := sessionEncoding.Marshal(session)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(), data)
	})
}

// Load returns nil, nil when no session has been saved.
func (s *SessionStore) Load() (*StoredSession, error) {
	var session *StoredSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey())
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			session = new(StoredSession)
			return cbor.Unmarshal(val, session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey())
	})
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}
