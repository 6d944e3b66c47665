package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

func TestHTTPFetcher(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/recipe":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html><body>Crème brûlée</body></html>"))
		case "/latin1":
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<p>Cr\xe8me</p>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(config.CatalogConfig{
		RequestTimeout: 5 * time.Second,
		UserAgent:      "ChefAI-Test/1.0",
	})

	body, err := f.Fetch(context.Background(), server.URL+"/recipe")
	require.NoError(t, err)
	assert.Contains(t, body, "Crème brûlée")
	assert.Equal(t, "ChefAI-Test/1.0", gotUA)

	body, err = f.Fetch(context.Background(), server.URL+"/latin1")
	require.NoError(t, err)
	assert.Contains(t, body, "Crème")

	_, err = f.Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFetchFailed)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPFetcherTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	f := NewHTTPFetcher(config.CatalogConfig{RequestTimeout: 20 * time.Millisecond})
	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, common.ErrFetchFailed)
}
