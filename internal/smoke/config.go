// Package smoke drives a running bakery API over HTTP: it creates baked goods
// concurrently, checks the reported counts, then deletes what it created.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL  string        // Base URL of the service
	NumGoods int           // Number of baked goods to create
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every request
}

// Stats holds run statistics.
type Stats struct {
	GoodsGenerated int
	GoodsCreated   int
	CreateFailed   int
	GoodsDeleted   int
	DeleteFailed   int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}

// goodForm is one baked good to submit.
type goodForm struct {
	Name  string
	Price float64
}

// createdGood mirrors the POST /baked_goods response.
type createdGood struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// statsResponse mirrors the GET /stats response.
type statsResponse struct {
	Started    bool  `json:"started"`
	Bakeries   int64 `json:"bakeries"`
	BakedGoods int64 `json:"baked_goods"`
}
