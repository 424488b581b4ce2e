// Package migrate applies versioned, Go-coded schema migrations and records
// which versions have been applied.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/okian/bakery/pkg/logger"
)

// Sentinel kinds for migration errors.
var (
	ErrDuplicateVersion = errors.New("duplicate migration version")
	ErrUnknownVersion   = errors.New("applied migration missing from registry")
	ErrNothingToRevert  = errors.New("no migrations to roll back")
)

// Migration is one reversible schema change.
type Migration interface {
	Version() string
	Name() string
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// Registry holds migrations keyed by version.
type Registry struct {
	migrations map[string]Migration
}

// NewRegistry creates a registry holding ms. It panics on duplicate versions,
// which can only come from a programming error.
func NewRegistry(ms ...Migration) *Registry {
	r := &Registry{migrations: make(map[string]Migration, len(ms))}
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds m to the registry.
func (r *Registry) Register(m Migration) error {
	if _, ok := r.migrations[m.Version()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVersion, m.Version())
	}
	r.migrations[m.Version()] = m
	return nil
}

// Get returns a migration by version.
func (r *Registry) Get(version string) (Migration, bool) {
	m, ok := r.migrations[version]
	return m, ok
}

// All returns all migrations sorted by version.
func (r *Registry) All() []Migration {
	out := make([]Migration, 0, len(r.migrations))
	for _, m := range r.migrations {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Version() < out[j].Version()
	})
	return out
}

// Status lists applied and pending migrations.
type Status struct {
	Applied []Record
	Pending []Migration
}

// Runner executes migrations against a database.
type Runner struct {
	db        *gorm.DB
	registry  *Registry
	versioner *Versioner
	log       logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger reports each applied or reverted migration to l.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a runner that tracks versions in table.
func NewRunner(db *gorm.DB, registry *Registry, table string, opts ...Option) *Runner {
	r := &Runner{
		db:        db,
		registry:  registry,
		versioner: NewVersioner(db, table),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Migrate applies every pending migration in version order. Each migration
// and its version record commit together.
func (r *Runner) Migrate(ctx context.Context) ([]Migration, error) {
	pending, err := r.pending(ctx)
	if err != nil {
		return nil, err
	}

	applied := make([]Migration, 0, len(pending))
	for _, m := range pending {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return r.versioner.recordApplied(tx, m.Version(), m.Name())
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s_%s: %w", m.Version(), m.Name(), err)
		}
		applied = append(applied, m)
		r.info(ctx, "migration applied", m)
	}
	return applied, nil
}

// Rollback reverts the last n applied migrations, newest first.
func (r *Runner) Rollback(ctx context.Context, n int) ([]Migration, error) {
	if err := r.versioner.Initialize(ctx); err != nil {
		return nil, err
	}
	records, err := r.versioner.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNothingToRevert
	}
	if n <= 0 || n > len(records) {
		n = len(records)
	}

	reverted := make([]Migration, 0, n)
	for i := len(records) - 1; i >= len(records)-n; i-- {
		version := records[i].Version
		m, ok := r.registry.Get(version)
		if !ok {
			return reverted, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return r.versioner.removeApplied(tx, version)
		})
		if err != nil {
			return reverted, fmt.Errorf("revert migration %s_%s: %w", m.Version(), m.Name(), err)
		}
		reverted = append(reverted, m)
		r.info(ctx, "migration reverted", m)
	}
	return reverted, nil
}

// Status reports applied and pending migrations.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	if err := r.versioner.Initialize(ctx); err != nil {
		return Status{}, err
	}
	records, err := r.versioner.Applied(ctx)
	if err != nil {
		return Status{}, err
	}
	pending, err := r.pending(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Applied: records, Pending: pending}, nil
}

func (r *Runner) pending(ctx context.Context) ([]Migration, error) {
	if err := r.versioner.Initialize(ctx); err != nil {
		return nil, err
	}
	records, err := r.versioner.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(records))
	for _, rec := range records {
		done[rec.Version] = true
	}

	var pending []Migration
	for _, m := range r.registry.All() {
		if !done[m.Version()] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

func (r *Runner) info(ctx context.Context, msg string, m Migration) {
	if r.log == nil {
		return
	}
	r.log.Info(ctx, msg, logger.String("version", m.Version()), logger.String("name", m.Name()))
}
