package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBrowserBinary(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"headless-shell",
		"headless_shell",
		"chromium",
		"chromium-browser",
		"google-chrome",
		"google-chrome-stable",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no browser binary available")
}

func TestIntegrationNavigate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	requireBrowserBinary(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="company-item"><span class="name">Acme</span></div></body></html>`)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<html><body><h1>not found</h1></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := New()
	require.NoError(t, b.Launch(ctx))
	defer b.Close()

	t.Run("success status", func(t *testing.T) {
		assert.True(t, b.Navigate(srv.URL+"/listing", 15*time.Second))
	})

	t.Run("non-success status is a navigation failure", func(t *testing.T) {
		// the browser renders the 404 page, complete with a body, but the
		// status alone fails the navigation
		assert.False(t, b.Navigate(srv.URL+"/gone", 15*time.Second))
	})

	t.Run("unreachable host is a navigation failure", func(t *testing.T) {
		assert.False(t, b.Navigate("http://127.0.0.1:1/", 5*time.Second))
	})

	t.Run("html of the loaded page", func(t *testing.T) {
		require.True(t, b.Navigate(srv.URL+"/listing", 15*time.Second))

		html, err := b.HTML(15 * time.Second)
		require.NoError(t, err)
		assert.Contains(t, html, "company-item")
		assert.Contains(t, html, "Acme")
	})
}
