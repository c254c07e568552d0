// Package pipeline orchestrates the three runs of the census job: ingest
// (CSV files into the database), compute (population-by-country summary
// JSON), and dump (raw table JSON). Each run opens its own connection,
// executes a fixed sequence of steps, and closes the connection before
// returning. Steps are timed and recorded through the metrics package.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"census/internal/config"
	"census/internal/jsonout"
	"census/internal/loader"
	"census/internal/metrics"
	"census/internal/model"
	"census/internal/retry"
	"census/internal/store"
)

// connectFn is a seam for tests.
var connectFn = store.Connect

const (
	defaultMaxAttempts = 10
	defaultRetryDelay  = 5 * time.Second
)

// connect opens the configured store under the bounded retry policy. Zero
// config values fall back to 10 attempts, 5 seconds apart.
func connect(ctx context.Context, cfg config.Config) (store.Store, error) {
	attempts := cfg.Connect.MaxAttempts
	if attempts == 0 {
		attempts = defaultMaxAttempts
	}
	delay := time.Duration(cfg.Connect.RetryDelaySeconds) * time.Second
	if cfg.Connect.RetryDelaySeconds == 0 {
		delay = defaultRetryDelay
	}

	sc := store.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN}
	return connectFn(ctx, sc, retry.NewPolicy(attempts, delay))
}

// step runs fn, records its outcome and duration under the job's metrics,
// and prefixes any error with the step name.
func step(job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, name, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// inTx hands fn either the store itself or, when perFile is set, a fresh
// transaction that is committed on success and rolled back on failure.
func inTx(ctx context.Context, st store.Store, perFile bool, fn func(store.Inserter) error) error {
	if !perFile {
		return fn(st)
	}
	tx, err := st.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("rollback: %v", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

// RunIngest loads the places CSV and then the people CSV into the database.
// Places load first so every person row can resolve its place_of_birth
// against the in-memory index; the database is never queried for lookups.
func RunIngest(ctx context.Context, cfg config.Config) error {
	st, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.Storage.AutoCreateTables {
		if err := step(cfg.Job, "ensure_schema", func() error {
			return st.EnsureSchema(ctx)
		}); err != nil {
			return err
		}
	}
	if err := step(cfg.Job, "check_tables", func() error {
		return st.CheckTables(ctx)
	}); err != nil {
		return err
	}

	opt := loader.FromConfig(cfg.Ingest.Options)

	var (
		index  loader.PlaceIndex
		places int
	)
	err = step(cfg.Job, "load_places", func() error {
		return inTx(ctx, st, cfg.Storage.PerFileTx, func(ins store.Inserter) error {
			var err error
			index, places, err = loader.LoadPlaces(ctx, cfg.Ingest.PlacesCSV, ins, opt)
			return err
		})
	})
	if err != nil {
		return err
	}
	metrics.RecordRows(cfg.Job, "places_inserted", int64(places))

	var people int
	err = step(cfg.Job, "load_people", func() error {
		return inTx(ctx, st, cfg.Storage.PerFileTx, func(ins store.Inserter) error {
			var err error
			people, err = loader.LoadPeople(ctx, cfg.Ingest.PeopleCSV, index, ins, opt)
			return err
		})
	})
	if err != nil {
		return err
	}
	metrics.RecordRows(cfg.Job, "people_inserted", int64(people))
	return nil
}

// RunCompute executes the population-by-country aggregate and writes the
// summary JSON artifact. Re-running against unchanged data rewrites an
// identical file.
func RunCompute(ctx context.Context, cfg config.Config) error {
	st, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := step(cfg.Job, "check_tables", func() error {
		return st.CheckTables(ctx)
	}); err != nil {
		return err
	}

	return writeSummary(ctx, st, cfg)
}

// writeSummary runs the aggregate and writes the summary artifact. Shared by
// the compute and dump runs.
func writeSummary(ctx context.Context, st store.Store, cfg config.Config) error {
	var counts []model.CountryCount
	if err := step(cfg.Job, "count_by_country", func() error {
		var err error
		counts, err = st.CountByCountry(ctx)
		return err
	}); err != nil {
		return err
	}

	return step(cfg.Job, "write_summary", func() error {
		if err := jsonout.Write(cfg.Output.SummaryJSON, model.SummaryMap(counts)); err != nil {
			return err
		}
		log.Printf("wrote %s (%d countries)", cfg.Output.SummaryJSON, len(counts))
		return nil
	})
}

// RunDump writes the raw contents of both tables as JSON arrays, ordered by
// id, and then the population summary. An empty output path skips that
// artifact. Loading is left to the ingest run; dump only reads.
func RunDump(ctx context.Context, cfg config.Config) error {
	st, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := step(cfg.Job, "check_tables", func() error {
		return st.CheckTables(ctx)
	}); err != nil {
		return err
	}

	if cfg.Output.PlacesJSON != "" {
		if err := step(cfg.Job, "dump_places", func() error {
			places, err := st.Places(ctx)
			if err != nil {
				return err
			}
			return jsonout.Write(cfg.Output.PlacesJSON, places)
		}); err != nil {
			return err
		}
	}

	if cfg.Output.PeopleJSON != "" {
		if err := step(cfg.Job, "dump_people", func() error {
			people, err := st.People(ctx)
			if err != nil {
				return err
			}
			return jsonout.Write(cfg.Output.PeopleJSON, people)
		}); err != nil {
			return err
		}
	}

	if cfg.Output.SummaryJSON != "" {
		return writeSummary(ctx, st, cfg)
	}
	return nil
}
