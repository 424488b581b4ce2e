package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bakery/pkg/logger"
)

// HTTPClient wraps http.Client with timeout and request ids.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.client.Do(req)
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// PostForm performs a form-encoded POST request.
func (c *HTTPClient) PostForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, form)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// getJSON performs a GET and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// runPool feeds items to workers goroutines and waits for them to finish.
func runPool[T any](ctx context.Context, workers int, items []T, fn func(T)) {
	if workers < 1 {
		workers = 1
	}
	ch := make(chan T, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range ch {
				if ctx.Err() != nil {
					continue
				}
				fn(item)
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case ch <- item:
			}
		}
	}()
	wg.Wait()
}

// createGoods submits goods concurrently and returns the created rows.
func createGoods(ctx context.Context, client *HTTPClient, config *Config, goods []goodForm, stats *Stats) []createdGood {
	log := logger.Get()
	log.Info(ctx, "creating baked goods", logger.Int("count", len(goods)), logger.Int("workers", config.Workers))

	var (
		mu      sync.Mutex
		created = make([]createdGood, 0, len(goods))
		failed  int64
	)
	runPool(ctx, config.Workers, goods, func(g goodForm) {
		row, err := createSingleGood(ctx, client, g)
		if err != nil {
			atomic.AddInt64(&failed, 1)
			if config.Verbose {
				log.Warn(ctx, "create failed", logger.String("name", g.Name), logger.Error(err))
			}
			return
		}
		mu.Lock()
		created = append(created, row)
		mu.Unlock()
	})

	stats.GoodsCreated = len(created)
	stats.CreateFailed = int(failed)
	log.Info(ctx, "baked goods created",
		logger.Int("successful", stats.GoodsCreated),
		logger.Int("failed", stats.CreateFailed),
	)
	return created
}

// createSingleGood posts one baked good and checks the echoed fields.
func createSingleGood(ctx context.Context, client *HTTPClient, g goodForm) (createdGood, error) {
	form := url.Values{
		"name":  {g.Name},
		"price": {strconv.FormatFloat(g.Price, 'f', -1, 64)},
	}
	resp, err := client.PostForm(ctx, "/baked_goods", form)
	if err != nil {
		return createdGood{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return createdGood{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var row createdGood
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return createdGood{}, fmt.Errorf("decode response: %w", err)
	}
	if row.Name != g.Name || row.Price != g.Price {
		return createdGood{}, fmt.Errorf("echoed %q %.2f, sent %q %.2f", row.Name, row.Price, g.Name, g.Price)
	}
	return row, nil
}

// deleteGoods deletes goods concurrently and returns the rows whose delete
// returned 200.
func deleteGoods(ctx context.Context, client *HTTPClient, config *Config, goods []createdGood, stats *Stats) []createdGood {
	log := logger.Get()
	log.Info(ctx, "deleting baked goods", logger.Int("count", len(goods)))

	var (
		mu      sync.Mutex
		deleted = make([]createdGood, 0, len(goods))
		failed  int64
	)
	runPool(ctx, config.Workers, goods, func(g createdGood) {
		status, err := deleteSingleGood(ctx, client, g.ID)
		if err != nil || status != http.StatusOK {
			atomic.AddInt64(&failed, 1)
			if config.Verbose {
				log.Warn(ctx, "delete failed", logger.Int64("id", g.ID), logger.Int("status", status), logger.Error(err))
			}
			return
		}
		mu.Lock()
		deleted = append(deleted, g)
		mu.Unlock()
	})

	stats.GoodsDeleted = len(deleted)
	stats.DeleteFailed = int(failed)
	log.Info(ctx, "baked goods deleted",
		logger.Int("successful", stats.GoodsDeleted),
		logger.Int("failed", stats.DeleteFailed),
	)
	return deleted
}

// deleteSingleGood deletes one baked good and returns the status code.
func deleteSingleGood(ctx context.Context, client *HTTPClient, id int64) (int, error) {
	resp, err := client.Delete(ctx, "/baked_goods/"+strconv.FormatInt(id, 10))
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
