package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradalibre/ticketing/internal/config"
)

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          30 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestNewRedisCache(t *testing.T) {
	t.Parallel()

	t.Run("serves a stored payload without calling the handler", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/events/1/sessions/10/seats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/events/:id/sessions/:sid/seats")

		cfg := cacheCfg()
		payload, err := encodePayload(http.StatusOK,
			http.Header{"Content-Type": {"application/json"}},
			[]byte(`{"seats":[]}`))
		require.NoError(t, err)
		mock.ExpectGet(cacheKeyFrom(cfg, c)).SetVal(string(payload))

		handlerCalled := false
		mw := NewRedisCache(cfg, rdb)
		err = mw(func(c echo.Context) error {
			handlerCalled = true
			return c.String(http.StatusOK, "fresh")
		})(c)
		require.NoError(t, err)

		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
		assert.Equal(t, `{"seats":[]}`, rec.Body.String())
	})

	t.Run("misses fall through to the handler", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/events/1/sessions/10/seats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/events/:id/sessions/:sid/seats")

		cfg := cacheCfg()
		mock.ExpectGet(cacheKeyFrom(cfg, c)).RedisNil()

		mw := NewRedisCache(cfg, rdb)
		err := mw(func(c echo.Context) error {
			return c.String(http.StatusOK, "fresh")
		})(c)
		require.NoError(t, err)

		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		assert.Equal(t, "fresh", rec.Body.String())
	})

	t.Run("skips non-cacheable methods", func(t *testing.T) {
		rdb, _ := redismock.NewClientMock()
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		mw := NewRedisCache(cacheCfg(), rdb)
		err := mw(func(c echo.Context) error {
			return c.String(http.StatusCreated, "done")
		})(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestEncodeDecodePayload(t *testing.T) {
	t.Parallel()

	hdr := http.Header{"Content-Type": {"application/json"}, "X-Custom": {"a", "b"}}
	payload, err := encodePayload(http.StatusOK, hdr, []byte("body-bytes"))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, "body-bytes", string(body))

	_, _, _, ok = decodePayload([]byte("short"))
	assert.False(t, ok)
}
