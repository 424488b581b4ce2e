package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/bakery/internal/adapters/repository"
	"github.com/okian/bakery/internal/adapters/repository/migrate"
	service "github.com/okian/bakery/internal/app"
	"github.com/okian/bakery/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newSQLiteStore(ctx context.Context) *repository.GormStore {
	store, err := repository.Open(ctx, "sqlite://:memory:")
	So(err, ShouldBeNil)
	_, err = migrate.NewRunner(store.DB(), migrate.Schema(), "_bakery_migrations").Migrate(ctx)
	So(err, ShouldBeNil)
	return store
}

func strPtr(s string) *string { return &s }

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by sqlite", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := newSQLiteStore(ctx)
		defer func() { _ = store.Close() }()
		svc := service.New(store)

		Convey("When creating baked goods", func() {
			first, err := svc.CreateBakedGood(ctx, "Croissant", 3.5)
			So(err, ShouldBeNil)
			second, err := svc.CreateBakedGood(ctx, "Baguette", 2.75)
			So(err, ShouldBeNil)

			Convey("Then each gets a distinct id", func() {
				So(first.ID, ShouldEqual, 1)
				So(second.ID, ShouldNotEqual, first.ID)
				So(first.Name, ShouldEqual, "Croissant")
				So(first.Price, ShouldEqual, 3.5)
			})

			Convey("And deleting one removes only that row", func() {
				So(svc.DeleteBakedGood(ctx, first.ID), ShouldBeNil)

				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.BakedGoods, ShouldEqual, int64(1))

				err = svc.DeleteBakedGood(ctx, first.ID)
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When deleting a baked good that never existed", func() {
			_, err := svc.CreateBakedGood(ctx, "Eclair", 3.95)
			So(err, ShouldBeNil)

			err = svc.DeleteBakedGood(ctx, 404)

			Convey("Then ErrNotFound is returned and the count is unchanged", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				counts, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(counts.BakedGoods, ShouldEqual, 1)
			})
		})

		Convey("When updating bakeries", func() {
			counts, err := svc.Seed(ctx, service.SeedOptions{Bakeries: 1})
			So(err, ShouldBeNil)
			So(counts.Bakeries, ShouldEqual, 1)

			Convey("And a new name is given", func() {
				b, err := svc.UpdateBakery(ctx, 1, model.BakeryPatch{Name: strPtr("Flour Power")})

				Convey("Then the full record carries it", func() {
					So(err, ShouldBeNil)
					So(b.ID, ShouldEqual, 1)
					So(b.Name, ShouldEqual, "Flour Power")
					So(b.CreatedAt.IsZero(), ShouldBeFalse)
					So(b.UpdatedAt.IsZero(), ShouldBeFalse)
				})
			})

			Convey("And no name is given", func() {
				b, err := svc.UpdateBakery(ctx, 1, model.BakeryPatch{})

				Convey("Then the prior name is kept", func() {
					So(err, ShouldBeNil)
					So(b.Name, ShouldEqual, "Bakery 1")
				})
			})

			Convey("And the bakery is missing", func() {
				_, err := svc.UpdateBakery(ctx, 99, model.BakeryPatch{Name: strPtr("Ghost")})

				Convey("Then ErrNotFound is returned and nothing changes", func() {
					So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
					counts, err := store.Count(ctx)
					So(err, ShouldBeNil)
					So(counts.Bakeries, ShouldEqual, 1)
				})
			})
		})

		Convey("When seeding", func() {
			counts, err := svc.Seed(ctx, service.SeedOptions{Bakeries: 3, GoodsPerBakery: 4})
			So(err, ShouldBeNil)
			So(counts, ShouldResemble, repository.Counts{Bakeries: 3, BakedGoods: 12})

			Convey("And seeding again with reset", func() {
				counts, err := svc.Seed(ctx, service.SeedOptions{Bakeries: 1, GoodsPerBakery: 2, Reset: true})

				Convey("Then only the new rows remain", func() {
					So(err, ShouldBeNil)
					So(counts, ShouldResemble, repository.Counts{Bakeries: 1, BakedGoods: 2})
				})
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service backed by sqlite", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := newSQLiteStore(ctx)
		defer func() { _ = store.Close() }()
		svc := service.New(store, service.WithRefreshInterval(5*time.Millisecond))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When multiple goroutines create baked goods concurrently", func() {
			const workers, perWorker = 8, 10
			var wg sync.WaitGroup
			errs := make(chan error, workers*perWorker)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						if _, err := svc.CreateBakedGood(ctx, "Bagel", 1.8); err != nil {
							errs <- err
						}
					}
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then every create succeeds", func() {
				So(len(errs), ShouldEqual, 0)
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.BakedGoods, ShouldEqual, int64(workers*perWorker))
				So(stats.Started, ShouldBeTrue)
			})
		})
	})
}
