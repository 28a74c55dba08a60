package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTProvider_FetchInfo(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/quote", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("symbol") {
		case "AAPL":
			_, _ = w.Write([]byte(`{"longName":"Apple Inc.","regularMarketPrice":150.0}`))
		case "ZZZZ":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer server.Close()

	p := NewRESTProvider(server.URL+"/", "secret", "", 5*time.Second)
	assert.Equal(t, "rest", p.Name())

	info, err := p.FetchInfo(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", info["longName"])

	_, err = p.FetchInfo(context.Background(), "ZZZZ")
	require.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = p.FetchInfo(context.Background(), "MSFT")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownSymbol)
}
