// Package store contains the storage-agnostic contracts for the census
// pipeline: the Store interface, a kind-keyed factory that concrete backends
// register with at init time, and the retrying Connect helper.
//
// The rest of the application depends only on this package; database drivers
// live in the backend subpackages and are wired in by blank-importing
// census/internal/store/all.
package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"census/internal/model"
	"census/internal/retry"
)

// Inserter is the minimal write surface the CSV loader needs. It is satisfied
// by both Store (row-per-unit loading) and Tx (per-file transactions).
type Inserter interface {
	// InsertPlace inserts one place and returns its generated id.
	InsertPlace(ctx context.Context, p model.Place) (int64, error)

	// InsertPerson inserts one person. PlaceOfBirthID must already exist.
	InsertPerson(ctx context.Context, p model.Person) error
}

// Tx is a transaction scoped to one CSV load.
type Tx interface {
	Inserter
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is a live connection to one of the supported databases.
type Store interface {
	Inserter

	// CheckTables verifies the places and people tables exist and are
	// readable. A missing or unreadable table yields a *SchemaError.
	CheckTables(ctx context.Context) error

	// EnsureSchema creates the two tables from the static schema when absent.
	EnsureSchema(ctx context.Context) error

	// CountByCountry runs the population aggregate: people joined to places,
	// grouped by country. Countries without people are absent from the result.
	CountByCountry(ctx context.Context) ([]model.CountryCount, error)

	// Places and People return full table contents for the JSON dumps,
	// ordered by id so dump output is stable.
	Places(ctx context.Context) ([]model.Place, error)
	People(ctx context.Context) ([]model.Person, error)

	// Begin starts a transaction for per-file loading.
	Begin(ctx context.Context) (Tx, error)

	// Close releases the connection. Safe to call exactly once.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the registered backend ("mysql", "postgres", "mssql",
	// "sqlite").
	Kind string

	// DSN is handed to the backend's driver unparsed.
	DSN string
}

// Factory constructs a connected Store from a Config.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	regMu    sync.Mutex
	registry = map[string]Factory{}
)

// Register wires a backend into the factory. Called from backend package init
// functions; a duplicate kind panics to surface wiring mistakes early.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("store: duplicate backend registration for kind %q", kind))
	}
	registry[kind] = f
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Store of the configured kind. The returned store is already
// pinged; construction fails fast on an unreachable database.
func New(ctx context.Context, cfg Config) (Store, error) {
	regMu.Lock()
	f, ok := registry[cfg.Kind]
	regMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Connect opens a Store, retrying under the given policy while the database
// is not ready yet. Exhaustion surfaces the policy's *retry.ExhaustedError,
// which carries the attempt count. One progress line is logged per attempt.
func Connect(ctx context.Context, cfg Config, pol retry.Policy) (Store, error) {
	var st Store
	err := pol.Do(ctx, func(n int) error {
		s, err := New(ctx, cfg)
		if err != nil {
			log.Printf("store: %s not ready yet (attempt %d/%d): %v", cfg.Kind, n, pol.MaxAttempts, err)
			return err
		}
		st = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("store: connected to %s", cfg.Kind)
	return st, nil
}
