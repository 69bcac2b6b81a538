package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/cosyvoice-bridge/pkg/config"
)

const testAudio = "RIFF....WAVEfmt data"

func newUpstream(t *testing.T, speakersStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/speakers":
			w.WriteHeader(speakersStatus)
			_, _ = io.WriteString(w, `[{"name":"alice","voice_id":"spk-alice","language":"en"},{"name":"bob"}]`)
		case r.Method == http.MethodPost && r.URL.Path == "/":
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = io.WriteString(w, testAudio)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// run executes cosyctl with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "cosyctl version "))
}

func TestVoices(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)

	out, err := run(t, "voices", "--endpoint", upstream.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "spk-alice")
	assert.Contains(t, out, "bob")
}

func TestVoices_JSON(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)

	out, err := run(t, "voices", "--json", "--endpoint", upstream.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `"voice_id": "spk-alice"`)
}

func TestVoices_RemoteError(t *testing.T) {
	upstream := newUpstream(t, http.StatusBadGateway)

	_, err := run(t, "voices", "--endpoint", upstream.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list voices")
}

func TestSay(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "out.wav")

	_, err := run(t, "say", "--endpoint", upstream.URL, "--voice", "alice", "--out", path, "hello", "world")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testAudio, string(data))
}

func TestSay_Stdout(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)

	out, err := run(t, "say", "--endpoint", upstream.URL, "--voice", "bob", "hi_sad")
	require.NoError(t, err)
	assert.Equal(t, testAudio, out)
}

func TestSay_RefusesTerminal(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)
	orig := isTerminal
	isTerminal = func(io.Writer) bool { return true }
	t.Cleanup(func() { isTerminal = orig })

	_, err := run(t, "say", "--endpoint", upstream.URL, "--voice", "bob", "hi")
	require.ErrorIs(t, err, errTerminalOutput)

	out, err := run(t, "say", "--endpoint", upstream.URL, "--voice", "bob", "--force", "hi")
	require.NoError(t, err)
	assert.Equal(t, testAudio, out)

	path := filepath.Join(t.TempDir(), "out.wav")
	_, err = run(t, "say", "--endpoint", upstream.URL, "--voice", "bob", "--out", path, "hi")
	require.NoError(t, err, "file output is never refused")
}

func TestSay_UnknownVoice(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)

	_, err := run(t, "say", "--endpoint", upstream.URL, "--voice", "carol", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carol")
}

func TestReady(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)

	out, err := run(t, "ready", "--endpoint", upstream.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "voices:   2")
	assert.Contains(t, out, "catalog:  ok")
}

func TestReady_FailureOnlyFailsWhenStrict(t *testing.T) {
	upstream := newUpstream(t, http.StatusInternalServerError)

	out, err := run(t, "ready", "--endpoint", upstream.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "catalog:  failed")

	_, err = run(t, "ready", "--strict", "--endpoint", upstream.URL)
	assert.Error(t, err)
}

func TestConfigFileAndEnvOverride(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`apiVersion: cosyvoice.altairalabs.ai/v1alpha1
kind: BridgeConfig
spec:
  provider:
    endpoint: http://127.0.0.1:1
`), 0o600))

	t.Setenv("COSYVOICE_ENDPOINT", upstream.URL)
	out, err := run(t, "voices", "--config", path)
	require.NoError(t, err, "environment overrides the config file endpoint")
	assert.Contains(t, out, "alice")
}

func TestEnvFile(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COSYVOICE_TEST_ENDPOINT="+upstream.URL+"\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("COSYVOICE_TEST_ENDPOINT") })

	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`apiVersion: cosyvoice.altairalabs.ai/v1alpha1
kind: BridgeConfig
spec:
  provider:
    endpoint: ${COSYVOICE_TEST_ENDPOINT}
`), 0o600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"voices", "--config", path, "--env-file", envFile})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "alice")
}

func TestConfigFile_Missing(t *testing.T) {
	_, err := run(t, "voices", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[config] Load")
}

func TestServe(t *testing.T) {
	upstream := newUpstream(t, http.StatusOK)

	cfg := config.Defaults()
	cfg.Spec.Provider.Endpoint = upstream.URL
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, nil, ln) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ready")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "initial readiness check completes")

	resp, err := http.Get(base + "/voices")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "alice")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
