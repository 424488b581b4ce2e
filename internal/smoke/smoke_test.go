package smoke

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/bakery/internal/adapters/http/api"
	repository "github.com/okian/bakery/internal/adapters/repository"
	"github.com/okian/bakery/internal/adapters/repository/migrate"
	service "github.com/okian/bakery/internal/app"
	"github.com/okian/bakery/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestServer(ctx context.Context) (*httptest.Server, func()) {
	store, err := repository.Open(ctx, "sqlite://:memory:")
	So(err, ShouldBeNil)
	_, err = migrate.NewRunner(store.DB(), migrate.Schema(), "_bakery_migrations").Migrate(ctx)
	So(err, ShouldBeNil)

	svc := service.New(store)
	srv := api.NewServer(svc, svc)
	mux := http.NewServeMux()
	srv.Register(ctx, mux)
	ts := httptest.NewServer(srv.Wrap(mux))
	return ts, func() {
		ts.Close()
		_ = store.Close()
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running bakery API", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		ts, cleanup := newTestServer(ctx)
		defer cleanup()

		Convey("When a smoke run creates and deletes goods", func() {
			stats, err := Run(ctx, &Config{
				BaseURL:  ts.URL,
				NumGoods: 25,
				Workers:  4,
				Timeout:  5 * time.Second,
			})

			Convey("Then every request succeeds and the store is back to its baseline", func() {
				So(err, ShouldBeNil)
				So(stats.GoodsGenerated, ShouldEqual, 25)
				So(stats.GoodsCreated, ShouldEqual, 25)
				So(stats.CreateFailed, ShouldEqual, 0)
				So(stats.GoodsDeleted, ShouldEqual, 25)
				So(stats.DeleteFailed, ShouldEqual, 0)
				So(stats.Duration, ShouldBeGreaterThan, time.Duration(0))

				client := newHTTPClient(ts.URL, time.Second)
				s, err := fetchStats(ctx, client)
				So(err, ShouldBeNil)
				So(s.BakedGoods, ShouldEqual, int64(0))
			})
		})

		Convey("When the run has nothing to create", func() {
			stats, err := Run(ctx, &Config{BaseURL: ts.URL, Workers: 2, Timeout: time.Second})

			Convey("Then it still passes its checks", func() {
				So(err, ShouldBeNil)
				So(stats.GoodsCreated, ShouldEqual, 0)
			})
		})
	})

	Convey("Given no server at the target URL", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		Convey("When running", func() {
			_, err := Run(context.Background(), &Config{BaseURL: url, NumGoods: 1, Workers: 1, Timeout: time.Second})

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}

func TestVerification(t *testing.T) {
	Convey("Given a bakery API", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ts, cleanup := newTestServer(ctx)
		defer cleanup()
		client := newHTTPClient(ts.URL+"/", time.Second)

		Convey("When the expected count is wrong", func() {
			err := verifyCount(ctx, client, 3)

			Convey("Then verification fails", func() {
				So(errors.Is(err, ErrVerification), ShouldBeTrue)
			})
		})

		Convey("When a created good is still present", func() {
			row, err := createSingleGood(ctx, client, goodForm{Name: "Bagel", Price: 1.8})
			So(err, ShouldBeNil)
			So(row.ID, ShouldEqual, int64(1))

			err = verifyDeleted(ctx, client, []createdGood{row})

			Convey("Then the repeat delete removes it and reports the unexpected 200", func() {
				So(errors.Is(err, ErrVerification), ShouldBeTrue)
				So(verifyCount(ctx, client, 0), ShouldBeNil)
			})
		})

		Convey("When the first delete of a batch fails", func() {
			row, err := createSingleGood(ctx, client, goodForm{Name: "Rye Bread", Price: 5.5})
			So(err, ShouldBeNil)
			missing := createdGood{ID: 999, Name: "Ghost", Price: 1}

			stats := &Stats{}
			deleted := deleteGoods(ctx, client, &Config{Workers: 1}, []createdGood{missing, row}, stats)

			Convey("Then only the successful delete is returned and checked again", func() {
				So(stats.GoodsDeleted, ShouldEqual, 1)
				So(stats.DeleteFailed, ShouldEqual, 1)
				So(deleted, ShouldResemble, []createdGood{row})
				So(verifyDeleted(ctx, client, deleted), ShouldBeNil)
			})
		})
	})
}

func TestRunPool(t *testing.T) {
	Convey("Given a list of items", t, func() {
		items := make([]int, 100)
		for i := range items {
			items[i] = i + 1
		}

		Convey("When processed by a pool", func() {
			var sum int64
			runPool(context.Background(), 7, items, func(n int) {
				atomic.AddInt64(&sum, int64(n))
			})

			Convey("Then each item is handled once", func() {
				So(sum, ShouldEqual, int64(5050))
			})
		})

		Convey("When the worker count is not positive", func() {
			var calls int64
			runPool(context.Background(), 0, items, func(int) {
				atomic.AddInt64(&calls, 1)
			})

			Convey("Then a single worker still drains the list", func() {
				So(calls, ShouldEqual, int64(100))
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			var calls int64
			runPool(ctx, 3, items, func(int) {
				atomic.AddInt64(&calls, 1)
			})

			Convey("Then nothing is processed", func() {
				So(calls, ShouldEqual, int64(0))
			})
		})
	})

	Convey("Given the generator", t, func() {
		stats := &Stats{}
		goods := generateGoods(context.Background(), 50, stats)

		Convey("Then names are unique and prices are in range", func() {
			So(stats.GoodsGenerated, ShouldEqual, 50)
			seen := make(map[string]bool)
			for _, g := range goods {
				So(seen[g.Name], ShouldBeFalse)
				seen[g.Name] = true
				So(g.Price, ShouldBeBetweenOrEqual, 0.01, 10.0)
			}
		})
	})
}
