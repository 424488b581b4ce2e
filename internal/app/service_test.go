package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	repository "github.com/okian/bakery/internal/adapters/repository"
	service "github.com/okian/bakery/internal/app"
	"github.com/okian/bakery/internal/domain/model"
	"github.com/okian/bakery/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubStore fails every unit of work with err and counts calls.
type stubStore struct {
	err      error
	calls    int
	counts   repository.Counts
	countErr error
	pingErr  error
}

func (s *stubStore) WithinTx(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return fn(nopTx{})
}

func (s *stubStore) Count(ctx context.Context) (repository.Counts, error) {
	return s.counts, s.countErr
}

func (s *stubStore) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubStore) Close() error { return nil }

type nopTx struct{}

func (nopTx) CreateBakery(context.Context, *model.Bakery) error { return nil }

func (nopTx) GetBakery(_ context.Context, id int64) (model.Bakery, error) {
	return model.Bakery{ID: id, Name: "Stub"}, nil
}

func (nopTx) SaveBakery(context.Context, *model.Bakery) error { return nil }

func (nopTx) CreateBakedGood(_ context.Context, g *model.BakedGood) error {
	g.ID = 7
	return nil
}

func (nopTx) GetBakedGood(_ context.Context, id int64) (model.BakedGood, error) {
	return model.BakedGood{ID: id}, nil
}

func (nopTx) DeleteBakedGood(context.Context, int64) error { return nil }

func (nopTx) DeleteAll(context.Context) error { return nil }

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(&stubStore{})

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(&stubStore{},
			service.WithLogger(logger.Get()),
			service.WithRefreshInterval(time.Second),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		store := &stubStore{counts: repository.Counts{Bakeries: 2, BakedGoods: 5}}
		svc := service.New(store, service.WithRefreshInterval(10*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then a second start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Started, ShouldBeTrue)
				So(stats.Bakeries, ShouldEqual, int64(2))
				So(stats.BakedGoods, ShouldEqual, int64(5))
			})
		})

		Convey("When the store is unreachable", func() {
			store.pingErr = errors.New("connection refused")
			err := svc.Start(ctx)

			Convey("Then start fails and the service stays stopped", func() {
				So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Started, ShouldBeFalse)
			})
		})

		Convey("When stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Started, ShouldBeFalse)
			})
		})

		Convey("When counting fails", func() {
			store.countErr = errors.New("db gone")
			_, err := svc.GetStats(ctx)

			Convey("Then a persistence error is returned", func() {
				So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
			})
		})
	})
}

func TestService_CreateBakedGoodValidation(t *testing.T) {
	Convey("Given a service", t, func() {
		store := &stubStore{}
		svc := service.New(store)
		ctx := context.Background()

		cases := []struct {
			name  string
			price float64
		}{
			{"", 1},
			{"   ", 1},
			{"Croissant", -0.01},
			{"Croissant", math.NaN()},
			{"Croissant", math.Inf(1)},
		}

		Convey("When the input is invalid", func() {
			for _, tc := range cases {
				_, err := svc.CreateBakedGood(ctx, tc.name, tc.price)
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			}

			Convey("Then the store is never touched", func() {
				So(store.calls, ShouldEqual, 0)
			})
		})

		Convey("When the input is valid", func() {
			g, err := svc.CreateBakedGood(ctx, "Croissant", 0)

			Convey("Then the created row is returned", func() {
				So(err, ShouldBeNil)
				So(g.ID, ShouldEqual, 7)
				So(g.Price, ShouldEqual, 0)
				So(store.calls, ShouldEqual, 1)
			})
		})
	})
}

func TestService_PersistenceErrors(t *testing.T) {
	Convey("Given a store whose units of work fail", t, func() {
		cause := errors.New("disk full")
		svc := service.New(&stubStore{err: cause})
		ctx := context.Background()

		Convey("Then create reports a persistence error carrying the cause", func() {
			_, err := svc.CreateBakedGood(ctx, "Croissant", 3.5)
			So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)

			var opErr *service.OpError
			So(errors.As(err, &opErr), ShouldBeTrue)
			So(opErr.Op, ShouldEqual, "service.create_baked_good")
			So(opErr.Cause(), ShouldEqual, cause)
		})

		Convey("Then update reports a persistence error", func() {
			name := "New"
			_, err := svc.UpdateBakery(ctx, 1, model.BakeryPatch{Name: &name})
			So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
			So(errors.Is(err, service.ErrNotFound), ShouldBeFalse)
		})

		Convey("Then delete reports a persistence error", func() {
			err := svc.DeleteBakedGood(ctx, 1)
			So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
		})

		Convey("Then seed reports a persistence error", func() {
			_, err := svc.Seed(ctx, service.SeedOptions{Bakeries: 1})
			So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
		})
	})

	Convey("Given a store that reports a missing row", t, func() {
		svc := service.New(&stubStore{err: repository.ErrNotFound})
		ctx := context.Background()

		Convey("Then update and delete report ErrNotFound", func() {
			_, err := svc.UpdateBakery(ctx, 9, model.BakeryPatch{})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)

			err = svc.DeleteBakedGood(ctx, 9)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestOpError(t *testing.T) {
	Convey("Given kind errors", t, func() {
		Convey("When a cause is present", func() {
			err := service.WrapKind("op", service.ErrValidation, errors.New("bad price"))
			So(err.Error(), ShouldEqual, "op: validation failed: bad price")
		})

		Convey("When there is no cause", func() {
			err := service.WrapKind("op", service.ErrNotFound, nil)
			So(err.Error(), ShouldEqual, "op: not found")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)

			var opErr *service.OpError
			So(errors.As(err, &opErr), ShouldBeTrue)
			So(opErr.Cause(), ShouldEqual, service.ErrNotFound)
		})
	})
}

func TestService_SeedValidation(t *testing.T) {
	Convey("Given negative seed counts", t, func() {
		store := &stubStore{}
		_, err := service.New(store).Seed(context.Background(), service.SeedOptions{Bakeries: -1})

		Convey("Then nothing is written", func() {
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
			So(store.calls, ShouldEqual, 0)
		})
	})
}
