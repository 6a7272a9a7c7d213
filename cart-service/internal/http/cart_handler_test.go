package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahran001/e-commerce/cart-service/internal/cache"
	"github.com/zahran001/e-commerce/cart-service/internal/domain"
	"github.com/zahran001/e-commerce/cart-service/internal/repository"
	"github.com/zahran001/e-commerce/cart-service/internal/service"
)

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Cart, error) { return nil, cache.ErrCacheMiss }
func (noopCache) Set(context.Context, string, *domain.Cart) error   { return nil }
func (noopCache) Delete(context.Context, string) error              { return nil }

type nopPricer struct{}

func (nopPricer) Price(_ context.Context, cart *domain.Cart) {
	for i := range cart.Lines {
		cart.Lines[i].UnitPrice = 10
		cart.Header.CartTotal += float64(cart.Lines[i].Quantity) * 10
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

func newTestRouter(repo repository.CartRepository) http.Handler {
	svc := service.NewCartService(repo, noopCache{}, nopPricer{}, noopPublisher{}, zerolog.Nop())
	handler := NewCartHandler(svc, 5*time.Second, zerolog.Nop())
	return NewRouter(handler, 5*time.Second)
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpsertEndpoint_CreatesAndMerges(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := postJSON(t, router, "/api/v1/cart/upsert", UpsertItemRequestDTO{UserID: "user-1", ProductID: 10, Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/api/v1/cart/upsert", UpsertItemRequestDTO{UserID: "user-1", ProductID: 10, Quantity: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	var cart domain.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
}

func TestUpsertEndpoint_Validation(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := postJSON(t, router, "/api/v1/cart/upsert", UpsertItemRequestDTO{UserID: "user-1", ProductID: 10, Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/v1/cart/upsert", UpsertItemRequestDTO{UserID: "user-1", ProductID: -1, Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/v1/cart/upsert", UpsertItemRequestDTO{UserID: "", ProductID: 10, Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertEndpoint_MalformedBody(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/upsert", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCartEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/nobody", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cart_not_found", resp.Code)
}

func TestGetCartEndpoint_ReturnsPricedCart(t *testing.T) {
	repo := repository.NewMemoryRepository()
	_, err := repo.UpsertItem(context.Background(), "user-1", 10, 2)
	require.NoError(t, err)

	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/user-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var cart domain.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, 20.0, cart.Header.CartTotal)
}

func TestRemoveEndpoint_IdempotentOnMissingLine(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	rec := postJSON(t, router, "/api/v1/cart/remove", RemoveLineRequestDTO{LineID: 12345})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCouponEndpoints(t *testing.T) {
	repo := repository.NewMemoryRepository()
	_, err := repo.UpsertItem(context.Background(), "user-1", 10, 1)
	require.NoError(t, err)

	router := newTestRouter(repo)

	rec := postJSON(t, router, "/api/v1/cart/apply-coupon", CouponRequestDTO{UserID: "nobody", CouponCode: "10OFF"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postJSON(t, router, "/api/v1/cart/apply-coupon", CouponRequestDTO{UserID: "user-1", CouponCode: "10OFF"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/api/v1/cart/apply-coupon", CouponRequestDTO{UserID: "user-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty code goes through remove-coupon instead")

	rec = postJSON(t, router, "/api/v1/cart/remove-coupon", CouponRequestDTO{UserID: "user-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmailEndpoint_Accepted(t *testing.T) {
	repo := repository.NewMemoryRepository()
	_, err := repo.UpsertItem(context.Background(), "user-1", 10, 1)
	require.NoError(t, err)

	router := newTestRouter(repo)

	rec := postJSON(t, router, "/api/v1/cart/email", EmailCartRequestDTO{UserID: "user-1", Email: "user@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCorrelationIDHeader_EchoedAndGenerated(t *testing.T) {
	router := newTestRouter(repository.NewMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "corr-123", rec.Header().Get("X-Correlation-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
