package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/bakery/pkg/logger"
)

// ErrVerification marks a run whose observed state disagrees with what it did.
var ErrVerification = errors.New("smoke verification failed")

// Run executes the complete smoke run and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}
	log := logger.Get().With(logger.String("baseURL", config.BaseURL))

	log.Info(ctx, "starting bakery smoke run",
		logger.Int("goods", config.NumGoods),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
	)

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Baseline counts
	before, err := fetchStats(ctx, client)
	if err != nil {
		return stats, fmt.Errorf("baseline stats failed: %w", err)
	}

	// Step 3: Create concurrently
	goods := generateGoods(ctx, config.NumGoods, stats)
	created := createGoods(ctx, client, config, goods, stats)

	// Step 4: The store should have grown by exactly what was created
	if err := verifyCount(ctx, client, before.BakedGoods+int64(len(created))); err != nil {
		return stats, err
	}

	// Step 5: Delete concurrently, then confirm the rows are gone
	deleted := deleteGoods(ctx, client, config, created, stats)
	if err := verifyCount(ctx, client, before.BakedGoods+int64(len(created)-stats.GoodsDeleted)); err != nil {
		return stats, err
	}
	if err := verifyDeleted(ctx, client, deleted); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.CreateFailed > 0 || stats.DeleteFailed > 0 {
		return stats, fmt.Errorf("%w: %d creates and %d deletes failed", ErrVerification, stats.CreateFailed, stats.DeleteFailed)
	}
	log.Info(ctx, "smoke run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Any 200 is healthy; the body is Prometheus text
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	attempted := stats.GoodsCreated + stats.CreateFailed + stats.GoodsDeleted + stats.DeleteFailed
	if attempted > 0 {
		successRate = float64(stats.GoodsCreated+stats.GoodsDeleted) / float64(attempted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(attempted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("goodsGenerated", stats.GoodsGenerated),
		logger.Int("goodsCreated", stats.GoodsCreated),
		logger.Int("createFailed", stats.CreateFailed),
		logger.Int("goodsDeleted", stats.GoodsDeleted),
		logger.Int("deleteFailed", stats.DeleteFailed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond),
	)
}
