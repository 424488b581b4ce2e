package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/bakery/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5555")
			convey.So(cfg.DatabaseURL, convey.ShouldEqual, "sqlite://app.db")
			convey.So(cfg.AutoMigrate, convey.ShouldBeTrue)
			convey.So(cfg.MigrationTable, convey.ShouldEqual, "_bakery_migrations")
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.MetricsInterval(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.SlowQueryThreshold(), convey.ShouldEqual, 200*time.Millisecond)
			convey.So(cfg.DBMaxOpenConns, convey.ShouldEqual, 10)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a config with database pool settings", t, func() {
		cfg := config.New()

		convey.Convey("When max open conns is negative", func() {
			cfg.DBMaxOpenConns = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When max open conns is zero", func() {
			cfg.DBMaxOpenConns = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the slow query threshold is not positive", func() {
			cfg.DBSlowQueryMS = 0
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "db_slow_query_ms")
		})
	})

	convey.Convey("Given a config with an invalid log format", t, func() {
		cfg := config.New()
		cfg.LogFormat = "xml"

		convey.Convey("Then validation should fail with ErrInvalidConfig", func() {
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "log_format")
		})
	})
}
