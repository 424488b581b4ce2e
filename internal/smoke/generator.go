package smoke

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/bakery/pkg/logger"
)

var goodNames = []string{
	"Croissant",
	"Baguette",
	"Cinnamon Roll",
	"Sourdough Loaf",
	"Eclair",
	"Rye Bread",
	"Apple Turnover",
	"Bagel",
}

// randomInt returns a uniform int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generateGoods builds n baked goods with unique names and prices between
// 0.01 and 10.00.
func generateGoods(ctx context.Context, n int, stats *Stats) []goodForm {
	goods := make([]goodForm, n)
	for i := range goods {
		goods[i] = goodForm{
			Name:  goodNames[randomInt(len(goodNames))] + " " + uuid.NewString()[:8],
			Price: float64(randomInt(priceCents)+1) / 100,
		}
	}
	stats.GoodsGenerated = n
	logger.Get().Info(ctx, "baked goods generated", logger.Int("count", n))
	return goods
}
