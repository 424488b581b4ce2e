package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/bakery/internal/adapters/http/swagger"
	repository "github.com/okian/bakery/internal/adapters/repository"
	app "github.com/okian/bakery/internal/app"
	"github.com/okian/bakery/internal/config"
	"github.com/okian/bakery/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.DatabaseURL = "sqlite://:memory:"
	return cfg
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("BAKERY_ADDR", ":8080")
			_ = os.Setenv("BAKERY_DATABASE_URL", "sqlite://:memory:")
			_ = os.Setenv("BAKERY_REQUEST_TIMEOUT_MS", "1500")
			defer func() {
				_ = os.Unsetenv("BAKERY_ADDR")
				_ = os.Unsetenv("BAKERY_DATABASE_URL")
				_ = os.Unsetenv("BAKERY_REQUEST_TIMEOUT_MS")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DatabaseURL, convey.ShouldEqual, "sqlite://:memory:")
				convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 1500*time.Millisecond)
			})
		})

		convey.Convey("When opening the store with auto migrate", func() {
			ctx := context.Background()
			store, err := openStore(ctx, testConfig(), logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()

			convey.Convey("Then the schema is ready", func() {
				counts, err := store.Count(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(counts, convey.ShouldResemble, repository.Counts{})
			})
		})

		convey.Convey("When opening the store without auto migrate", func() {
			ctx := context.Background()
			cfg := testConfig()
			cfg.AutoMigrate = false
			store, err := openStore(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()

			convey.Convey("Then no tables exist", func() {
				_, err := store.Count(ctx)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the database url is unsupported", func() {
			cfg := testConfig()
			cfg.DatabaseURL = "redis://localhost:6379"
			_, err := openStore(context.Background(), cfg, logger.Get())

			convey.Convey("Then opening fails with the driver error", func() {
				convey.So(errors.Is(err, repository.ErrUnsupportedDriver), convey.ShouldBeTrue)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the assembled handler", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := testConfig()
		store, err := openStore(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		svc := app.New(store)
		handler, err := newHandler(ctx, cfg, svc, logger.Get())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When requesting the root", func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			convey.Convey("Then the banner is served with a request id", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldEqual, "<h1>Bakery GET-POST-PATCH-DELETE API</h1>")
				convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When calling every documented route", func() {
			doc, err := swagger.Load()
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then none of them is unrouted", func() {
				for _, route := range doc.Routes() {
					method, path, _ := strings.Cut(route, " ")
					path = strings.ReplaceAll(path, "{id}", "1")
					body := url.Values{"name": {"Croissant"}, "price": {"3.5"}}.Encode()
					req := httptest.NewRequest(method, path, strings.NewReader(body))
					req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
					w := httptest.NewRecorder()
					handler.ServeHTTP(w, req)

					convey.So(w.Code, convey.ShouldNotEqual, http.StatusMethodNotAllowed)
					if method != http.MethodDelete && method != http.MethodPatch {
						convey.So(w.Code, convey.ShouldBeLessThan, http.StatusBadRequest)
					}
				}
			})
		})

		convey.Convey("When requesting the docs", func() {
			for _, path := range []string{"/openapi.yaml", "/api-docs"} {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("BAKERY_ADDR", "")
			defer func() { _ = os.Unsetenv("BAKERY_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the log format is unknown", func() {
			cfg := testConfig()
			cfg.LogFormat = "xml"

			convey.Convey("Then run fails before serving", func() {
				err := run(context.Background(), cfg)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(logger.Init(), convey.ShouldBeNil)
			})
		})
	})
}
