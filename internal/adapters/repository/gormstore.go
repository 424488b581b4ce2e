package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/okian/bakery/internal/domain/model"
	"github.com/okian/bakery/pkg/metrics"
)

// GormStore is the gorm-backed Store.
type GormStore struct {
	db     *gorm.DB
	driver string
}

// DB exposes the connection for schema migrations.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Driver returns the dialect name, e.g. "sqlite".
func (s *GormStore) Driver() string {
	return s.driver
}

// WithinTx implements Store.
func (s *GormStore) WithinTx(ctx context.Context, op string, fn func(tx Tx) error) (err error) {
	start := time.Now()
	panicked := true
	defer func() {
		outcome := metrics.OutcomeCommit
		if panicked || err != nil {
			outcome = metrics.OutcomeRollback
		}
		metrics.RecordUnitOfWork(op, outcome, float64(time.Since(start).Microseconds())/1000)
	}()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	panicked = false
	return err
}

// Count implements Store.
func (s *GormStore) Count(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Bakery{}).Count(&c.Bakeries).Error; err != nil {
		return Counts{}, fmt.Errorf("count bakeries: %w", err)
	}
	if err := db.Model(&model.BakedGood{}).Count(&c.BakedGoods).Error; err != nil {
		return Counts{}, fmt.Errorf("count baked goods: %w", err)
	}
	return c, nil
}

// Ping implements Store.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Store.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormTx implements Tx on a transaction handle.
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) CreateBakery(ctx context.Context, b *model.Bakery) error {
	if err := t.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("insert bakery: %w", err)
	}
	return nil
}

func (t *gormTx) GetBakery(ctx context.Context, id int64) (model.Bakery, error) {
	var b model.Bakery
	if err := t.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Bakery{}, fmt.Errorf("%w: bakery %d", ErrNotFound, id)
		}
		return model.Bakery{}, fmt.Errorf("select bakery %d: %w", id, err)
	}
	return b, nil
}

func (t *gormTx) SaveBakery(ctx context.Context, b *model.Bakery) error {
	if err := t.db.WithContext(ctx).Save(b).Error; err != nil {
		return fmt.Errorf("update bakery %d: %w", b.ID, err)
	}
	return nil
}

func (t *gormTx) CreateBakedGood(ctx context.Context, g *model.BakedGood) error {
	if err := t.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("insert baked good: %w", err)
	}
	return nil
}

func (t *gormTx) GetBakedGood(ctx context.Context, id int64) (model.BakedGood, error) {
	var g model.BakedGood
	if err := t.db.WithContext(ctx).First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.BakedGood{}, fmt.Errorf("%w: baked good %d", ErrNotFound, id)
		}
		return model.BakedGood{}, fmt.Errorf("select baked good %d: %w", id, err)
	}
	return g, nil
}

func (t *gormTx) DeleteBakedGood(ctx context.Context, id int64) error {
	res := t.db.WithContext(ctx).Delete(&model.BakedGood{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete baked good %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: baked good %d", ErrNotFound, id)
	}
	return nil
}

func (t *gormTx) DeleteAll(ctx context.Context) error {
	db := t.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := db.Delete(&model.BakedGood{}).Error; err != nil {
		return fmt.Errorf("delete baked goods: %w", err)
	}
	if err := db.Delete(&model.Bakery{}).Error; err != nil {
		return fmt.Errorf("delete bakeries: %w", err)
	}
	return nil
}
