// Package journal records every node pair run in a bbolt database so the
// operator can see when runs started, how they ended, and which node failed.
//
// Journal is safe for concurrent use. bbolt serializes write transactions and
// lets read transactions run alongside them, so no extra locking is added.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/salahayoub/ethup/pkg/types"
)

var runsBucket = []byte("runs")

// ErrRunNotFound is returned by Finish and Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Outcome is how a run ended.
type Outcome string

const (
	// Running means the run has not finished, or ethup died before recording it.
	Running Outcome = "running"
	// Stopped is an operator-requested shutdown.
	Stopped Outcome = "stopped"
	// Failed means one node exited on its own.
	Failed Outcome = "failed"
	// SpawnFailed means a node could not be started.
	SpawnFailed Outcome = "spawn-failed"
)

// Run is one journal entry.
type Run struct {
	ID         uint64     `json:"id"`
	Chain      string     `json:"chain"`
	Started    time.Time  `json:"started"`
	Ended      time.Time  `json:"ended"`
	Outcome    Outcome    `json:"outcome"`
	FailedRole types.Role `json:"failed_role,omitempty"`
	ExitCode   int        `json:"exit_code,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Duration is how long the run lasted, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.Ended.IsZero() {
		return 0
	}
	return r.Ended.Sub(r.Started)
}

// Result is what Finish records.
type Result struct {
	Outcome    Outcome
	FailedRole types.Role
	ExitCode   int
	Err        error
}

// Journal is the run history store.
type Journal struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(runsBucket); err != nil {
			return fmt.Errorf("failed to create runs bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db, now: time.Now}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin records a new running entry for chain and returns its ID.
func (j *Journal) Begin(chain string) (uint64, error) {
	var id uint64
	err := j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		id = seq
		return put(bucket, Run{
			ID:      id,
			Chain:   chain,
			Started: j.now().UTC(),
			Outcome: Running,
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// Finish stamps the end time and outcome on run id.
func (j *Journal) Finish(id uint64, res Result) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		run, err := get(bucket, id)
		if err != nil {
			return err
		}

		run.Ended = j.now().UTC()
		run.Outcome = res.Outcome
		run.FailedRole = res.FailedRole
		run.ExitCode = res.ExitCode
		if res.Err != nil {
			run.Error = res.Err.Error()
		}
		return put(bucket, run)
	})
}

// Get returns run id.
func (j *Journal) Get(id uint64) (Run, error) {
	var run Run
	err := j.db.View(func(tx *bbolt.Tx) error {
		var err error
		run, err = get(tx.Bucket(runsBucket), id)
		return err
	})
	return run, err
}

// List returns up to limit runs, newest first. A limit of 0 returns all runs.
func (j *Journal) List(limit int) ([]Run, error) {
	var runs []Run
	err := j.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(runsBucket).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("failed to decode run %d: %w", bytesToUint64(k), err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

func get(bucket *bbolt.Bucket, id uint64) (Run, error) {
	v := bucket.Get(uint64ToBytes(id))
	if v == nil {
		return Run{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	var run Run
	if err := json.Unmarshal(v, &run); err != nil {
		return Run{}, fmt.Errorf("failed to decode run %d: %w", id, err)
	}
	return run, nil
}

func put(bucket *bbolt.Bucket, run Run) error {
	val, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	return bucket.Put(uint64ToBytes(run.ID), val)
}

// uint64ToBytes encodes big-endian so cursor order is ID order.
func uint64ToBytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesToUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
