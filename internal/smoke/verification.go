package smoke

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/bakery/pkg/logger"
)

// fetchStats reads GET /stats.
func fetchStats(ctx context.Context, client *HTTPClient) (statsResponse, error) {
	var s statsResponse
	if err := client.getJSON(ctx, "/stats", &s); err != nil {
		return statsResponse{}, err
	}
	return s, nil
}

// verifyCount checks that the service reports want baked goods.
func verifyCount(ctx context.Context, client *HTTPClient, want int64) error {
	s, err := fetchStats(ctx, client)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}
	if s.BakedGoods != want {
		return fmt.Errorf("%w: service reports %d baked goods, expected %d", ErrVerification, s.BakedGoods, want)
	}
	logger.Get().Info(ctx, "baked good count verified", logger.Int64("count", want))
	return nil
}

// verifyDeleted checks that deleting an already deleted row is a 404. goods
// must hold only rows whose delete succeeded; the first one is tried again.
func verifyDeleted(ctx context.Context, client *HTTPClient, goods []createdGood) error {
	if len(goods) == 0 {
		return nil
	}
	status, err := deleteSingleGood(ctx, client, goods[0].ID)
	if err != nil {
		return fmt.Errorf("repeat delete failed: %w", err)
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("%w: second delete of %d returned %d", ErrVerification, goods[0].ID, status)
	}
	return nil
}
