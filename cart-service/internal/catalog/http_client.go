package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config carries the collaborator endpoints explicitly; no process-wide
// base-URL statics.
type Config struct {
	ProductBaseURL string
	CouponBaseURL  string
	Timeout        time.Duration
}

func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:    name,
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// A 404 is an answer, not an outage; it must not trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCouponNotFound)
		},
	}
}

// HTTPProductClient fetches product snapshots over HTTP. A circuit breaker
// sheds load from a collaborator that keeps failing; callers see the
// breaker's error as a plain lookup failure and degrade accordingly.
type HTTPProductClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]Product]
}

func NewHTTPProductClient(cfg Config) *HTTPProductClient {
	return &HTTPProductClient{
		baseURL: cfg.ProductBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]Product](breakerSettings("product-catalog")),
	}
}

func (c *HTTPProductClient) GetProducts(ctx context.Context) ([]Product, error) {
	return c.breaker.Execute(func() ([]Product, error) {
		var products []Product
		if err := c.getJSON(ctx, c.baseURL+"/api/v1/products", &products); err != nil {
			return nil, err
		}
		return products, nil
	})
}

func (c *HTTPProductClient) GetProduct(ctx context.Context, id int64) (*Product, error) {
	products, err := c.breaker.Execute(func() ([]Product, error) {
		var product Product
		err := c.getJSON(ctx, fmt.Sprintf("%s/api/v1/products/%d", c.baseURL, id), &product)
		if err != nil {
			return nil, err
		}
		return []Product{product}, nil
	})
	if err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (c *HTTPProductClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call product service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("product service returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode product response: %w", err)
	}
	return nil
}

// HTTPCouponClient fetches coupon snapshots over HTTP.
type HTTPCouponClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Coupon]
}

func NewHTTPCouponClient(cfg Config) *HTTPCouponClient {
	return &HTTPCouponClient{
		baseURL: cfg.CouponBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*Coupon](breakerSettings("coupon-catalog")),
	}
}

func (c *HTTPCouponClient) GetCoupon(ctx context.Context, code string) (*Coupon, error) {
	return c.breaker.Execute(func() (*Coupon, error) {
		url := fmt.Sprintf("%s/api/v1/coupons/%s", c.baseURL, code)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call coupon service: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrCouponNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("coupon service returned %d", resp.StatusCode)
		}

		var coupon Coupon
		if err := json.NewDecoder(resp.Body).Decode(&coupon); err != nil {
			return nil, fmt.Errorf("decode coupon response: %w", err)
		}
		return &coupon, nil
	})
}
