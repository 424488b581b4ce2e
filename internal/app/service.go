// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	repository "github.com/okian/bakery/internal/adapters/repository"
	"github.com/okian/bakery/internal/domain/model"
	"github.com/okian/bakery/pkg/logger"
	"github.com/okian/bakery/pkg/metrics"
)

// Service implements the API dependencies for the bakery system.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	// Configuration
	refreshInterval time.Duration

	// State
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRefreshInterval sets how often the entity count gauges are refreshed.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// New constructs a Service on top of store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		refreshInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background gauge refresh. It is safe to call twice.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if err := s.store.Ping(ctx); err != nil {
		return WrapKind("service.start", ErrPersistence, err)
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.refreshLoop(ctx, s.stopCh, s.doneCh)

	s.started = true
	s.logger.Info(ctx, "bakery service started",
		logger.Duration("refresh_interval", s.refreshInterval),
	)
	return nil
}

// Stop halts the background refresh and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.started = false
	s.logger.Info(context.Background(), "bakery service stopped")
}

func (s *Service) refreshLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	s.refreshCounts(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.refreshCounts(ctx)
		}
	}
}

func (s *Service) refreshCounts(ctx context.Context) (repository.Counts, error) {
	counts, err := s.store.Count(ctx)
	if err != nil {
		if s.logger != nil && ctx.Err() == nil {
			s.logger.Warn(ctx, "count refresh failed", logger.Error(err))
		}
		return repository.Counts{}, err
	}
	metrics.UpdateEntityCount(metrics.EntityBakery, counts.Bakeries)
	metrics.UpdateEntityCount(metrics.EntityBakedGood, counts.BakedGoods)
	return counts, nil
}

// CreateBakedGood validates and stores a new baked good.
func (s *Service) CreateBakedGood(ctx context.Context, name string, price float64) (model.BakedGood, error) {
	const op = "service.create_baked_good"

	if strings.TrimSpace(name) == "" {
		return model.BakedGood{}, WrapKind(op, ErrValidation, errors.New("name must not be empty"))
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return model.BakedGood{}, WrapKind(op, ErrValidation, errors.New("price must be a finite number"))
	}
	if price < 0 {
		return model.BakedGood{}, WrapKind(op, ErrValidation, errors.New("price must not be negative"))
	}

	g := model.BakedGood{Name: name, Price: price}
	err := s.store.WithinTx(ctx, "create_baked_good", func(tx repository.Tx) error {
		return tx.CreateBakedGood(ctx, &g)
	})
	if err != nil {
		s.log().Error(ctx, "create baked good failed", logger.String("name", name), logger.Error(err))
		return model.BakedGood{}, WrapKind(op, ErrPersistence, err)
	}

	metrics.RecordBakedGoodCreated()
	s.log().Debug(ctx, "baked good created",
		logger.Int64("id", g.ID),
		logger.String("name", g.Name),
		logger.Float64("price", g.Price),
	)
	return g, nil
}

// UpdateBakery applies patch to the bakery with id. A missing bakery yields
// ErrNotFound and nothing is written.
func (s *Service) UpdateBakery(ctx context.Context, id int64, patch model.BakeryPatch) (model.Bakery, error) {
	const op = "service.update_bakery"

	var b model.Bakery
	err := s.store.WithinTx(ctx, "update_bakery", func(tx repository.Tx) error {
		var err error
		b, err = tx.GetBakery(ctx, id)
		if err != nil {
			return err
		}
		if !patch.Apply(&b) {
			return nil
		}
		return tx.SaveBakery(ctx, &b)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordNotFound(metrics.EntityBakery)
			return model.Bakery{}, WrapKind(op, ErrNotFound, err)
		}
		s.log().Error(ctx, "update bakery failed", logger.Int64("id", id), logger.Error(err))
		return model.Bakery{}, WrapKind(op, ErrPersistence, err)
	}

	metrics.RecordBakeryUpdated()
	s.log().Debug(ctx, "bakery updated", logger.Int64("id", b.ID), logger.String("name", b.Name))
	return b, nil
}

// DeleteBakedGood removes the baked good with id. A missing row yields
// ErrNotFound.
func (s *Service) DeleteBakedGood(ctx context.Context, id int64) error {
	const op = "service.delete_baked_good"

	err := s.store.WithinTx(ctx, "delete_baked_good", func(tx repository.Tx) error {
		if _, err := tx.GetBakedGood(ctx, id); err != nil {
			return err
		}
		return tx.DeleteBakedGood(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordNotFound(metrics.EntityBakedGood)
			return WrapKind(op, ErrNotFound, err)
		}
		s.log().Error(ctx, "delete baked good failed", logger.Int64("id", id), logger.Error(err))
		return WrapKind(op, ErrPersistence, err)
	}

	metrics.RecordBakedGoodDeleted()
	s.log().Debug(ctx, "baked good deleted", logger.Int64("id", id))
	return nil
}

// SeedOptions controls Seed.
type SeedOptions struct {
	Bakeries       int
	GoodsPerBakery int
	Reset          bool
}

var seedGoods = []struct {
	name  string
	price float64
}{
	{"Croissant", 3.5},
	{"Baguette", 2.75},
	{"Cinnamon Roll", 4.25},
	{"Sourdough Loaf", 7},
	{"Eclair", 3.95},
	{"Rye Bread", 5.5},
	{"Apple Turnover", 3.25},
	{"Bagel", 1.8},
}

// Seed inserts demo bakeries, each owning some baked goods, in one unit of
// work. With Reset the existing rows are removed first.
func (s *Service) Seed(ctx context.Context, opts SeedOptions) (repository.Counts, error) {
	const op = "service.seed"

	if opts.Bakeries < 0 || opts.GoodsPerBakery < 0 {
		return repository.Counts{}, WrapKind(op, ErrValidation, errors.New("counts must not be negative"))
	}

	err := s.store.WithinTx(ctx, "seed", func(tx repository.Tx) error {
		if opts.Reset {
			if err := tx.DeleteAll(ctx); err != nil {
				return err
			}
		}
		for i := 0; i < opts.Bakeries; i++ {
			b := model.Bakery{Name: fmt.Sprintf("Bakery %d", i+1)}
			if err := tx.CreateBakery(ctx, &b); err != nil {
				return err
			}
			for j := 0; j < opts.GoodsPerBakery; j++ {
				item := seedGoods[(i+j)%len(seedGoods)]
				g := model.BakedGood{Name: item.name, Price: item.price, BakeryID: &b.ID}
				if err := tx.CreateBakedGood(ctx, &g); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return repository.Counts{}, WrapKind(op, ErrPersistence, err)
	}

	counts, err := s.refreshCounts(ctx)
	if err != nil {
		return repository.Counts{}, WrapKind(op, ErrPersistence, err)
	}
	s.log().Info(ctx, "seed complete",
		logger.Int64("bakeries", counts.Bakeries),
		logger.Int64("baked_goods", counts.BakedGoods),
	)
	return counts, nil
}

// Stats is the service snapshot served at /stats.
type Stats struct {
	Started    bool  `json:"started"`
	Bakeries   int64 `json:"bakeries"`
	BakedGoods int64 `json:"baked_goods"`
}

// GetStats reads the current row counts and refreshes the entity gauges.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	counts, err := s.refreshCounts(ctx)
	if err != nil {
		return Stats{}, WrapKind("service.stats", ErrPersistence, err)
	}
	return Stats{Started: started, Bakeries: counts.Bakeries, BakedGoods: counts.BakedGoods}, nil
}

// log returns the configured logger, falling back to the global one.
func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l != nil {
		return l
	}
	return logger.Get()
}
