package tts

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
)

func newTestService(t *testing.T, endpoint string, opts ...Option) *CosyVoiceService {
	t.Helper()
	svc, err := NewCosyVoice(append([]Option{WithEndpoint(endpoint)}, opts...)...)
	require.NoError(t, err)
	return svc
}

func TestCosyVoiceService_Defaults(t *testing.T) {
	svc, err := NewCosyVoice()
	require.NoError(t, err)

	assert.Equal(t, "cosyvoice", svc.Name())
	assert.Equal(t, DefaultSettings(), svc.Settings().Get())
	assert.Empty(t, svc.SupportedVoices())
	assert.Equal(t, SupportedFormats(), svc.SupportedFormats())

	var _ StreamingService = svc
}

func TestCosyVoiceService_SynthesizeEmotionAndStreaming(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	svc := newTestService(t, server.URL)
	require.NoError(t, svc.Settings().Update(context.Background(), SettingStreaming, true))

	resp, err := svc.Synthesize(context.Background(), "hi_sad", SynthesisConfig{Voice: "voiceA"})
	require.NoError(t, err)
	defer resp.Close()

	assert.True(t, resp.Streaming)
	assert.Equal(t, "audio/wav", resp.ContentType)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "application/json", fake.lastCT)
	assert.Equal(t, map[string]any{
		"text":      "hi",
		"speaker":   "spk-a",
		"emotion":   "sad",
		"streaming": float64(1),
	}, fake.lastBody)
}

func TestCosyVoiceService_SynthesizeOmitsOptionalKeys(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	svc := newTestService(t, server.URL)

	resp, err := svc.Synthesize(context.Background(), "plain text", SynthesisConfig{Voice: "voiceB"})
	require.NoError(t, err)
	defer resp.Close()

	assert.False(t, resp.Streaming)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, map[string]any{"text": "plain text", "speaker": "spk-b"}, fake.lastBody)
	assert.Empty(t, fake.lastQuery.Get("speed"))
}

func TestCosyVoiceService_SynthesizeReturnsBodyUnconsumed(t *testing.T) {
	_, server := newFakeCosyVoice(t)
	svc := newTestService(t, server.URL)

	resp, err := svc.Synthesize(context.Background(), "hello", SynthesisConfig{Voice: "voiceA"})
	require.NoError(t, err)
	defer resp.Close()

	audio, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "RIFF....WAVEfmt ", string(audio))
}

func TestCosyVoiceService_ForceNoStreaming(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	svc := newTestService(t, server.URL)
	svc.Settings().Load(map[string]any{SettingEndpoint: server.URL, SettingStreaming: true})

	resp, err := svc.Synthesize(context.Background(), "hi", SynthesisConfig{Voice: "voiceA", ForceNoStreaming: true})
	require.NoError(t, err)
	defer resp.Close()

	assert.False(t, resp.Streaming)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.NotContains(t, fake.lastBody, "streaming")
}

func TestCosyVoiceService_SpeedQuery(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	svc := newTestService(t, server.URL)

	resp, err := svc.Synthesize(context.Background(), "hi", SynthesisConfig{Voice: "voiceA", Speed: 1.25})
	require.NoError(t, err)
	defer resp.Close()

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "1.25", fake.lastQuery.Get("speed"))
}

func TestCosyVoiceService_SynthesizeErrorNotifiesOnce(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	fake.set(func(f *fakeCosyVoice) {
		f.ttsStatus = http.StatusBadRequest
		f.ttsBody = `{"error":"text is required"}`
	})
	notifier := &recordingNotifier{}
	svc := newTestService(t, server.URL, WithNotifier(notifier))

	resp, err := svc.Synthesize(context.Background(), "hi", SynthesisConfig{Voice: "voiceA"})
	require.Nil(t, resp)
	require.ErrorIs(t, err, ErrSynthesisFailed)

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, http.StatusBadRequest, synthErr.StatusCode)
	assert.Equal(t, `{"error":"text is required"}`, synthErr.Body)
	assert.Equal(t, ProviderName, synthErr.Provider)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, NotificationTitle, notifier.titles[0])
	assert.Equal(t, "Bad Request", notifier.messages[0])
}

func TestCosyVoiceService_VoiceNotFoundPropagates(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	notifier := &recordingNotifier{}
	svc := newTestService(t, server.URL, WithNotifier(notifier))

	_, err := svc.Synthesize(context.Background(), "hi", SynthesisConfig{Voice: "ghost"})

	var notFound *VoiceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Name)
	assert.Zero(t, notifier.count())

	_, tts := fake.counts()
	assert.Zero(t, tts)
}

func TestCosyVoiceService_ConnectivityErrorDoesNotNotify(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	notifier := &recordingNotifier{}
	svc := newTestService(t, server.URL, WithNotifier(notifier))

	_, err := svc.Catalog().Refresh(context.Background())
	require.NoError(t, err)

	server.Close()
	_, err = svc.Synthesize(context.Background(), "hi", SynthesisConfig{Voice: "voiceA"})
	require.ErrorIs(t, err, ErrConnectivity)
	assert.Zero(t, notifier.count())

	_, tts := fake.counts()
	assert.Zero(t, tts)
}

func TestCosyVoiceService_NoRetryOnServerError(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	fake.set(func(f *fakeCosyVoice) { f.ttsStatus = http.StatusInternalServerError })
	svc := newTestService(t, server.URL, WithNotifier(&recordingNotifier{}))

	_, err := svc.Synthesize(context.Background(), "hi", SynthesisConfig{Voice: "voiceA"})
	require.Error(t, err)

	_, tts := fake.counts()
	assert.Equal(t, 1, tts)
}

func TestCosyVoiceService_RateLimitHonoursContext(t *testing.T) {
	_, server := newFakeCosyVoice(t)
	svc := newTestService(t, server.URL, WithRateLimit(0.001, 1))

	resp, err := svc.Synthesize(context.Background(), "one", SynthesisConfig{Voice: "voiceA"})
	require.NoError(t, err)
	resp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = svc.Synthesize(ctx, "two", SynthesisConfig{Voice: "voiceA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestCosyVoiceService_EmitsEvents(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	bus := events.NewEventBus()

	var (
		completed int
		failed    int
		raised    int
	)
	bus.Subscribe(events.EventSynthesisCompleted, func(*events.Event) { completed++ })
	bus.Subscribe(events.EventSynthesisFailed, func(*events.Event) { failed++ })
	bus.Subscribe(events.EventNotificationRaised, func(*events.Event) { raised++ })

	svc := newTestService(t, server.URL,
		WithEmitter(events.NewEmitter(bus, ProviderName)),
		WithNotifier(&recordingNotifier{}),
	)

	resp, err := svc.Synthesize(context.Background(), "ok", SynthesisConfig{Voice: "voiceA"})
	require.NoError(t, err)
	resp.Close()

	fake.set(func(f *fakeCosyVoice) { f.ttsStatus = http.StatusInternalServerError })
	_, err = svc.Synthesize(context.Background(), "bad", SynthesisConfig{Voice: "voiceA"})
	require.Error(t, err)

	bus.Wait()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, raised)
}

func TestCosyVoiceService_SynthesizeStream(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	payload := bytes.Repeat([]byte{0x01, 0x02, 0x03}, 5000)
	fake.set(func(f *fakeCosyVoice) { f.ttsBody = string(payload) })
	svc := newTestService(t, server.URL)

	chunks, err := svc.SynthesizeStream(context.Background(), "hi_calm", SynthesisConfig{Voice: "voiceA"})
	require.NoError(t, err)

	var (
		got   []byte
		final bool
		last  = -1
	)
	for chunk := range chunks {
		require.NoError(t, chunk.Error)
		assert.Equal(t, last+1, chunk.Index)
		last = chunk.Index
		got = append(got, chunk.Data...)
		if chunk.Final {
			final = true
		}
	}

	assert.True(t, final)
	assert.Equal(t, payload, got)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, float64(1), fake.lastBody["streaming"])
	assert.Equal(t, "calm", fake.lastBody["emotion"])
}

func TestCosyVoiceService_SynthesizeStreamError(t *testing.T) {
	fake, server := newFakeCosyVoice(t)
	fake.set(func(f *fakeCosyVoice) { f.ttsStatus = http.StatusServiceUnavailable })
	svc := newTestService(t, server.URL, WithNotifier(&recordingNotifier{}))

	chunks, err := svc.SynthesizeStream(context.Background(), "hi", SynthesisConfig{Voice: "voiceA"})
	assert.Nil(t, chunks)
	require.ErrorIs(t, err, ErrSynthesisFailed)
}

func TestCosyVoiceService_SettingsChangeMovesEndpoint(t *testing.T) {
	_, first := newFakeCosyVoice(t)
	fake2, second := newFakeCosyVoice(t)
	svc := newTestService(t, first.URL)

	require.NoError(t, svc.OnSettingsChange(context.Background(), SettingEndpoint, second.URL))
	_, err := svc.Catalog().Refresh(context.Background())
	require.NoError(t, err)

	speakers, _ := fake2.counts()
	assert.Equal(t, 1, speakers)
}
