package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

const testSpeakers = `[
  {"name": "voiceA", "voice_id": "spk-a"},
  {"name": "voiceB", "voice_id": "spk-b"},
  {"name": "voiceA", "voice_id": "spk-a-dup"},
  {"name": "legacy"}
]`

// fakeCosyVoice is an in-memory stand-in for the CosyVoice API server.
type fakeCosyVoice struct {
	mu sync.Mutex

	speakersStatus int
	speakersBody   string
	speakersCalls  int

	ttsStatus int
	ttsBody   string
	ttsCalls  int
	lastBody  map[string]any
	lastQuery url.Values
	lastCT    string
}

func newFakeCosyVoice(t *testing.T) (*fakeCosyVoice, *httptest.Server) {
	t.Helper()
	f := &fakeCosyVoice{
		speakersStatus: http.StatusOK,
		speakersBody:   testSpeakers,
		ttsStatus:      http.StatusOK,
		ttsBody:        "RIFF....WAVEfmt ",
	}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeCosyVoice) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/speakers":
		f.speakersCalls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.speakersStatus)
		_, _ = io.WriteString(w, f.speakersBody)
	case r.Method == http.MethodPost && r.URL.Path == "/":
		f.ttsCalls++
		f.lastQuery = r.URL.Query()
		f.lastCT = r.Header.Get("Content-Type")
		f.lastBody = nil
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		if f.ttsStatus != http.StatusOK {
			w.WriteHeader(f.ttsStatus)
			_, _ = io.WriteString(w, f.ttsBody)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = io.WriteString(w, f.ttsBody)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeCosyVoice) counts() (speakers, tts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speakersCalls, f.ttsCalls
}

func (f *fakeCosyVoice) set(fn func(f *fakeCosyVoice)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// recordingNotifier counts host notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	titles   []string
	messages []string
}

func (n *recordingNotifier) NotifyError(_ context.Context, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.titles)
}

func staticEndpoint(u string) EndpointFunc {
	return func() string { return u }
}
