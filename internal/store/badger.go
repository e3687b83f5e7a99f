package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var (
	headKey        = []byte("head")
	snapshotPrefix = []byte("snapshot/")
	mistakePrefix  = []byte("mistake/")
	flagPrefix     = []byte("flag/")
)

type BadgerConfig struct {
	// Path is ignored when InMemory is true.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger
}

// InMemoryBadgerConfig is used by tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// BadgerSnapshotStore keeps every committed snapshot in an embedded badger
// database. A commit is a single badger transaction.
type BadgerSnapshotStore struct {
	db *badger.DB
}

func OpenBadger(cfg BadgerConfig) (*BadgerSnapshotStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{s: cfg.Logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerSnapshotStore{db: db}, nil
}

func (s *BadgerSnapshotStore) Close() error {
	return s.db.Close()
}

func (s *BadgerSnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		head, err := readHead(txn)
		if err != nil {
			return err
		}
		if head == 0 {
			snap = domain.EmptySnapshot()
			return nil
		}
		snap, err = readSnapshot(txn, head)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: head %d has no snapshot", domain.ErrCorruptState, head)
		}
		return err
	})
	return snap, err
}

func (s *BadgerSnapshotStore) LoadSequence(ctx context.Context, sequence int64) (*domain.Snapshot, error) {
	if sequence == 0 {
		return domain.EmptySnapshot(), nil
	}
	var snap *domain.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		snap, err = readSnapshot(txn, sequence)
		return err
	})
	return snap, err
}

func (s *BadgerSnapshotStore) Save(ctx context.Context, c domain.Commit) error {
	if err := validateCommit(c); err != nil {
		return err
	}
	doc, err := EncodeSnapshot(c.Snapshot)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		head, err := readHead(txn)
		if err != nil {
			return err
		}
		if head != c.ExpectedSequence {
			return fmt.Errorf("%w: head is %d, cycle expected %d", domain.ErrConcurrentCycleConflict, head, c.ExpectedSequence)
		}

		seq := c.Snapshot.CycleSequence
		if err := txn.Set(snapshotKey(seq), doc); err != nil {
			return err
		}
		for _, m := range c.Mistakes {
			data, err := encodeMistake(m)
			if err != nil {
				return err
			}
			if err := txn.Set(mistakeKey(seq, m.ID.String()), data); err != nil {
				return err
			}
		}
		for _, id := range c.ConsumedFlags {
			if err := txn.Delete(append(append([]byte{}, flagPrefix...), id.String()...)); err != nil {
				return err
			}
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(seq))
		return txn.Set(headKey, buf)
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", domain.ErrConcurrentCycleConflict, err)
	}
	return err
}

// Mistakes returns the newest records first.
func (s *BadgerSnapshotStore) Mistakes(ctx context.Context, limit int) ([]domain.MistakeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	records := []domain.MistakeRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, mistakePrefix, func(val []byte) error {
			m, err := decodeMistake(val)
			if err != nil {
				return err
			}
			records = append(records, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *BadgerSnapshotStore) EnqueueFlags(ctx context.Context, flags []domain.AdvisoryFlag) error {
	if len(flags) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, f := range flags {
			data, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := txn.Set(append(append([]byte{}, flagPrefix...), f.ID.String()...), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerSnapshotStore) PendingFlags(ctx context.Context) ([]domain.AdvisoryFlag, error) {
	flags := []domain.AdvisoryFlag{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, flagPrefix, func(val []byte) error {
			f, err := decodeFlag(val)
			if err != nil {
				return err
			}
			flags = append(flags, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortFlags(flags)
	return flags, nil
}

func readHead(txn *badger.Txn) (int64, error) {
	item, err := txn.Get(headKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var head int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: head pointer has %d bytes", domain.ErrCorruptState, len(val))
		}
		head = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return head, err
}

func readSnapshot(txn *badger.Txn, seq int64) (*domain.Snapshot, error) {
	item, err := txn.Get(snapshotKey(seq))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

func scanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

func snapshotKey(seq int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", snapshotPrefix, seq))
}

func mistakeKey(seq int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", mistakePrefix, seq, id))
}
