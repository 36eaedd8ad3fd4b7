// Package storage persists the listing stream: it suppresses repeated URLs,
// adds translated columns, and upserts rows in batches that are committed
// after a configured number of fresh inserts. An operator checkpoint may
// follow each committed batch.
package storage

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/jonathan/npa-sniper/internal/db"
	"github.com/jonathan/npa-sniper/internal/logging"
	"github.com/jonathan/npa-sniper/internal/types"
)

// DefaultBatchSize is the number of fresh inserts per committed batch.
const DefaultBatchSize = 1000

// ErrAborted is returned by a Confirmer to stop the run after a committed batch.
// Persist reports it as RunStatusAborted, never as an error.
var ErrAborted = errors.New("aborted by operator")

// StoreError is a fatal database fault. Batches committed before it stay durable.
type StoreError struct {
	Op    string
	URL   string
	Cause error
}

func (e *StoreError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("storage error during %s of %s: %v", e.Op, e.URL, e.Cause)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Tx is an open batch of upserts.
type Tx interface {
	UpsertProperty(ctx context.Context, p *db.PropertyInput) (bool, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens upsert batches.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// DBStore adapts *db.DB to Store.
type DBStore struct {
	DB *db.DB
}

// Begin implements Store.
func (s DBStore) Begin(ctx context.Context) (Tx, error) {
	return s.DB.Begin(ctx)
}

// Translator renders text in the target language. Implementations should
// return the original text rather than fail.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Checkpoint describes a committed batch.
type Checkpoint struct {
	Batch         int
	BatchInserted int
	TotalInserted int
	Processed     int
}

// Confirmer decides whether to continue after a committed batch.
// Returning ErrAborted stops the run cleanly.
type Confirmer interface {
	Confirm(ctx context.Context, cp Checkpoint) error
}

// Recorder observes storage outcomes.
type Recorder interface {
	ListingStored(inserted bool)
	DuplicateSkipped()
	BatchCommitted()
}

// Options configures a Persister.
type Options struct {
	BatchSize      int
	TargetLanguage string
}

// Persister writes a listing stream to a Store.
type Persister struct {
	store      Store
	translator Translator
	confirmer  Confirmer
	recorder   Recorder
	opts       Options
	logger     logging.Logger
}

// NewPersister creates a Persister. A nil confirmer never pauses; a zero BatchSize commits once at the end.
func NewPersister(store Store, translator Translator, confirmer Confirmer, opts Options, logger logging.Logger) *Persister {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = "en"
	}
	opts.BatchSize = max(0, opts.BatchSize)
	return &Persister{
		store:      store,
		translator: translator,
		confirmer:  confirmer,
		opts:       opts,
		logger:     logger,
	}
}

// WithRecorder sets the outcome observer.
func (p *Persister) WithRecorder(r Recorder) *Persister {
	p.recorder = r
	return p
}

// Persist drains seq into the store and returns the run counters.
// A database fault returns a *StoreError with Status failed; only the open
// batch is rolled back. An operator abort returns Status aborted and no error.
func (p *Persister) Persist(ctx context.Context, seq iter.Seq2[types.Listing, error]) (types.RunSummary, error) {
	run := &run{Persister: p, seen: make(map[string]struct{})}
	return run.drain(ctx, seq)
}

type run struct {
	*Persister
	seen          map[string]struct{}
	tx            Tx
	batchRows     int
	batchInserted int
	summary       types.RunSummary
}

func (r *run) drain(ctx context.Context, seq iter.Seq2[types.Listing, error]) (types.RunSummary, error) {
	r.summary.Status = types.RunStatusRunning

	for listing, err := range seq {
		if err != nil {
			// Rows already upserted belong to pages the stream has marked complete.
			if cerr := r.commit(context.WithoutCancel(ctx)); cerr != nil {
				return r.fail(cerr)
			}
			r.summary.Status = types.RunStatusFailed
			r.logSummary()
			return r.summary, fmt.Errorf("listing stream failed: %w", err)
		}

		if err := r.upsert(ctx, listing); err != nil {
			return r.fail(err)
		}

		if r.opts.BatchSize > 0 && r.batchInserted >= r.opts.BatchSize {
			cp := Checkpoint{
				Batch:         r.summary.Batches + 1,
				BatchInserted: r.batchInserted,
				TotalInserted: r.summary.Inserted,
				Processed:     r.summary.Processed,
			}
			if err := r.commit(ctx); err != nil {
				return r.fail(err)
			}
			r.logger.Info("batch committed",
				logging.Int("batch", cp.Batch),
				logging.Int("batch_inserted", cp.BatchInserted),
				logging.Int("processed", cp.Processed),
				logging.Int("total_inserted", cp.TotalInserted))

			if r.confirmer != nil {
				if err := r.confirmer.Confirm(ctx, cp); err != nil {
					if errors.Is(err, ErrAborted) {
						r.summary.Status = types.RunStatusAborted
						r.logSummary()
						return r.summary, nil
					}
					r.summary.Status = types.RunStatusFailed
					r.logSummary()
					return r.summary, fmt.Errorf("batch checkpoint: %w", err)
				}
			}
		}
	}

	if err := r.commit(ctx); err != nil {
		return r.fail(err)
	}
	r.summary.Status = types.RunStatusCompleted
	r.logSummary()
	return r.summary, nil
}

func (r *run) upsert(ctx context.Context, listing types.Listing) error {
	if listing.URL == "" {
		r.summary.MissingURL++
		return nil
	}
	if _, dup := r.seen[listing.URL]; dup {
		r.summary.DuplicatesSkipped++
		if r.recorder != nil {
			r.recorder.DuplicateSkipped()
		}
		return nil
	}
	r.seen[listing.URL] = struct{}{}

	row := buildRow(ctx, listing, r.translator, r.opts.TargetLanguage)

	if r.tx == nil {
		tx, err := r.store.Begin(ctx)
		if err != nil {
			return &StoreError{Op: "begin", Cause: err}
		}
		r.tx = tx
	}

	inserted, err := r.tx.UpsertProperty(ctx, row)
	if err != nil {
		return &StoreError{Op: "upsert", URL: listing.URL, Cause: err}
	}

	r.batchRows++
	r.summary.Processed++
	if inserted {
		r.batchInserted++
		r.summary.Inserted++
	}
	r.summary.Updated = r.summary.Processed - r.summary.Inserted
	if r.recorder != nil {
		r.recorder.ListingStored(inserted)
	}
	return nil
}

// commit closes the open batch, if any.
func (r *run) commit(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return &StoreError{Op: "commit", Cause: err}
	}
	if r.batchRows > 0 {
		r.summary.Batches++
		if r.recorder != nil {
			r.recorder.BatchCommitted()
		}
	}
	r.batchRows = 0
	r.batchInserted = 0
	return nil
}

func (r *run) fail(err error) (types.RunSummary, error) {
	if r.tx != nil {
		if rerr := r.tx.Rollback(context.Background()); rerr != nil {
			r.logger.Warn("rollback failed", logging.Error(rerr))
		}
		r.tx = nil
	}
	r.summary.Status = types.RunStatusFailed
	r.logger.Error("storage run failed",
		logging.Int("processed", r.summary.Processed),
		logging.Int("committed_batches", r.summary.Batches),
		logging.Error(err))
	return r.summary, err
}

func (r *run) logSummary() {
	r.logger.Info("storage run finished",
		logging.String("status", string(r.summary.Status)),
		logging.Int("processed", r.summary.Processed),
		logging.Int("inserted", r.summary.Inserted),
		logging.Int("updated", r.summary.Updated),
		logging.Int("duplicates_skipped", r.summary.DuplicatesSkipped),
		logging.Int("missing_url", r.summary.MissingURL),
		logging.Int("batches", r.summary.Batches))
}
