package httputil_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/AltairaLabs/cosyvoice-bridge/pkg/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15*time.Second, httputil.DefaultCatalogTimeout)
	assert.Equal(t, 120*time.Second, httputil.DefaultSynthesisTimeout)
	assert.Equal(t, 10*time.Second, httputil.DefaultDialTimeout)
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{"catalog timeout", httputil.DefaultCatalogTimeout},
		{"custom timeout", 5 * time.Second},
		{"zero timeout", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := httputil.NewHTTPClient(tt.timeout)
			require.NotNil(t, client)
			assert.Equal(t, tt.timeout, client.Timeout)
		})
	}
}

func TestNewStreamingHTTPClient(t *testing.T) {
	t.Parallel()

	client := httputil.NewStreamingHTTPClient(3 * time.Second)
	require.NotNil(t, client)
	assert.Zero(t, client.Timeout, "streaming clients must not bound body reads")

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, transport.ResponseHeaderTimeout)
}
