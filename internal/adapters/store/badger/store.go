package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	keyPrefix         = "session/"
	dirMode           = 0o750
	maxConflictRetry  = 3
	defaultGCInterval = 5 * time.Minute
	defaultGCRatio    = 0.5
)

type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	// GCInterval drives value log garbage collection. Zero disables it.
	GCInterval time.Duration
	Logger     *zap.Logger
}

func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
		GCInterval: defaultGCInterval,
	}
}

// Store persists sessions as JSON under session/<id>. Every committed turn is
// a checkpoint: reopening the directory restores the exact session state.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
	stopGC chan struct{}
	gcDone chan struct{}
}

var _ ports.SessionStore = (*Store)(nil)

type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for a persistent store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, dirMode); err != nil {
			return nil, fmt.Errorf("create session store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval)
	}

	return s, nil
}

func (s *Store) runGC(interval time.Duration) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(defaultGCRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("session store value log gc", zap.Error(err))
			}
		}
	}
}

func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.gcDone
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close session store: %w", err)
	}

	return nil
}

func sessionKey(id string) []byte {
	return []byte(keyPrefix + id)
}

func (s *Store) Create(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(sessionKey(session.ID))
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, session.ID)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("check session %s: %w", session.ID, err)
		}

		return txn.Set(sessionKey(session.ID), data)
	})
}

func (s *Store) Get(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	var session domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = readSession(txn, id)
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}

	return session, nil
}

func (s *Store) Update(ctx context.Context, id string, fn func(*domain.Session) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetry; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			session, err := readSession(txn, id)
			if err != nil {
				return err
			}
			if err := fn(&session); err != nil {
				return err
			}

			data, err := json.Marshal(session)
			if err != nil {
				return fmt.Errorf("encode session %s: %w", id, err)
			}

			return txn.Set(sessionKey(id), data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("session store write conflict, retrying", zap.String("session_id", id), zap.Int("attempt", attempt+1))
	}

	return fmt.Errorf("update session %s: %w", id, err)
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var session domain.Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			})
			if err != nil {
				return fmt.Errorf("decode session %s: %w", it.Item().Key(), err)
			}
			sessions = append(sessions, session)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func readSession(txn *badger.Txn, id string) (domain.Session, error) {
	item, err := txn.Get(sessionKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		return domain.Session{}, fmt.Errorf("read session %s: %w", id, err)
	}

	var session domain.Session
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	}); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}

	return session, nil
}
