package ident

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	body := "203.0.113.7\n"
	status := 200

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("returns a /32 for ipv4", func(t *testing.T) {
		cidr, err := Lookup(ctx, srv.URL)
		require.NoError(t, err)

		assert.Equal(t, "203.0.113.7/32", cidr)
	})

	t.Run("returns a /128 for ipv6", func(t *testing.T) {
		body = "2001:db8::1"

		cidr, err := Lookup(ctx, srv.URL)
		require.NoError(t, err)

		assert.Equal(t, "2001:db8::1/128", cidr)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		body = "<html>rate limited</html>"

		_, err := Lookup(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrBadAddress)
	})

	t.Run("fails on http errors", func(t *testing.T) {
		body = "203.0.113.7"
		status = 503

		_, err := Lookup(ctx, srv.URL)
		require.Error(t, err)

		assert.Contains(t, err.Error(), "503")
	})

	t.Run("uses the env url when none is given", func(t *testing.T) {
		status = 200

		old, had := os.LookupEnv(EnvURL)
		os.Setenv(EnvURL, srv.URL)

		defer func() {
			if had {
				os.Setenv(EnvURL, old)
			} else {
				os.Unsetenv(EnvURL)
			}
		}()

		assert.Equal(t, srv.URL, URL())

		cidr, err := Lookup(ctx, "")
		require.NoError(t, err)

		assert.Equal(t, "203.0.113.7/32", cidr)
	})
}
