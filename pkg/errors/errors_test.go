package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/AltairaLabs/cosyvoice-bridge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := pkgerrors.New(pkgerrors.ComponentBridge, "ListVoices", cause)

	assert.Equal(t, "bridge", err.Component)
	assert.Equal(t, "ListVoices", err.Operation)
	assert.Equal(t, 0, err.StatusCode)
	assert.Nil(t, err.Details)
	assert.Equal(t, cause, err.Cause)
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ContextualError
		want string
	}{
		{
			name: "cause only",
			err:  pkgerrors.New("config", "Load", fmt.Errorf("file not found")),
			want: "[config] Load: file not found",
		},
		{
			name: "no cause",
			err:  pkgerrors.New("cosyctl", "Execute", nil),
			want: "[cosyctl] Execute",
		},
		{
			name: "with status",
			err:  pkgerrors.New("bridge", "UpdateSetting", fmt.Errorf("unknown key")).WithStatusCode(400),
			want: "[bridge] UpdateSetting (status 400): unknown key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestChainedBuilders(t *testing.T) {
	err := pkgerrors.New("bridge", "Synthesize", fmt.Errorf("bad request"))
	result := err.WithStatusCode(502).WithDetails(map[string]any{"voice": "alice"})

	assert.Same(t, err, result)
	assert.Equal(t, 502, err.StatusCode)
	assert.Equal(t, map[string]any{"voice": "alice"}, err.Details)
}

func TestStatusCodeOr(t *testing.T) {
	err := pkgerrors.New("bridge", "Synthesize", nil)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCodeOr(http.StatusInternalServerError))

	err.WithStatusCode(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, err.StatusCodeOr(http.StatusInternalServerError))
}

func TestErrorsIsAndAs(t *testing.T) {
	sentinel := fmt.Errorf("sentinel error")
	err := pkgerrors.New("statestore", "Save", fmt.Errorf("mid-layer: %w", sentinel))
	outer := fmt.Errorf("outer: %w", err)

	assert.True(t, errors.Is(outer, sentinel))

	var ce *pkgerrors.ContextualError
	require.True(t, errors.As(outer, &ce))
	assert.Equal(t, "Save", ce.Operation)
}
