package orders

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeziellopes/observability/internal/logging"
	domain "github.com/jeziellopes/observability/internal/orders"
	"github.com/jeziellopes/observability/internal/orders/noop"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := domain.NewService(domain.NewStore(), noop.Publisher{}, logging.NewNop())
	h := NewHandler(svc, logging.NewNop())

	r := chi.NewRouter()
	r.Post("/orders", h.Create)
	r.Get("/orders", h.List)
	r.Get("/orders/{id}", h.Get)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreate_Valid(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/orders", "application/json",
		strings.NewReader(`{"userId":7,"userName":"Alice","total":99.99}`))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)

	var created domain.Order
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Alice", created.UserName)
}

func TestCreate_InvalidBody(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/orders", "application/json", strings.NewReader(`not-json`))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreate_InvalidOrder(t *testing.T) {
	srv := testServer(t)

	res, err := http.Post(srv.URL+"/orders", "application/json",
		strings.NewReader(`{"userId":7,"userName":"","total":10}`))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGet_NotFound(t *testing.T) {
	srv := testServer(t)

	res, err := http.Get(srv.URL + "/orders/404")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGet_BadID(t *testing.T) {
	srv := testServer(t)

	res, err := http.Get(srv.URL + "/orders/abc")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
