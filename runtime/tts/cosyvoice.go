package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/AltairaLabs/cosyvoice-bridge/pkg/httputil"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
)

const (
	// ProviderName identifies the CosyVoice provider in logs, events and
	// persisted settings.
	ProviderName = "cosyvoice"

	// NotificationTitle is the title of the host notification raised when a
	// synthesis call is rejected.
	NotificationTitle = "TTS generation failed"

	synthesisPath = "/"

	// HTTP status code threshold for server errors.
	serverErrorThreshold = 500

	streamChunkSize     = 4096
	streamChannelBuffer = 16

	tracerName = "github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

// SettingsPusher pushes the current settings to the remote service. The
// reference server has no settings endpoint, so the default is a no-op.
type SettingsPusher func(ctx context.Context, settings Settings) error

// CosyVoiceService implements Service and StreamingService against a
// CosyVoice HTTP server.
type CosyVoiceService struct {
	settings *SettingsStore
	catalog  *VoiceCatalog
	client   *http.Client
	notifier Notifier
	emitter  *events.Emitter
	limiter  *rate.Limiter
	pusher   SettingsPusher
	tracer   trace.Tracer

	ready readyState
}

type serviceConfig struct {
	endpoint    string
	client      *http.Client
	notifier    Notifier
	persister   SettingsPersister
	emitter     *events.Emitter
	limiter     *rate.Limiter
	pusher      SettingsPusher
	catalogOpts []CatalogOption
}

// Option configures the CosyVoice service.
type Option func(*serviceConfig)

// WithEndpoint overrides the default endpoint before any settings are loaded.
func WithEndpoint(endpoint string) Option {
	return func(c *serviceConfig) {
		c.endpoint = endpoint
	}
}

// WithClient sets the HTTP client used for synthesis calls.
func WithClient(client *http.Client) Option {
	return func(c *serviceConfig) {
		c.client = client
	}
}

// WithNotifier sets the host notification channel.
func WithNotifier(n Notifier) Option {
	return func(c *serviceConfig) {
		c.notifier = n
	}
}

// WithPersister sets the host settings persistence side effect.
func WithPersister(p SettingsPersister) Option {
	return func(c *serviceConfig) {
		c.persister = p
	}
}

// WithEmitter publishes adapter events through emitter.
func WithEmitter(emitter *events.Emitter) Option {
	return func(c *serviceConfig) {
		c.emitter = emitter
	}
}

// WithRateLimit limits synthesis calls to rps per second with the given burst.
// Calls wait for a token; none are dropped or retried.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *serviceConfig) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithSettingsPusher replaces the no-op settings push run by CheckReady.
func WithSettingsPusher(p SettingsPusher) Option {
	return func(c *serviceConfig) {
		c.pusher = p
	}
}

// WithCatalogOptions passes options through to the voice catalog.
func WithCatalogOptions(opts ...CatalogOption) Option {
	return func(c *serviceConfig) {
		c.catalogOpts = append(c.catalogOpts, opts...)
	}
}

// NewCosyVoice creates a CosyVoice service holding the default settings and
// an empty voice catalog.
func NewCosyVoice(opts ...Option) (*CosyVoiceService, error) {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		cfg.client = httputil.NewStreamingHTTPClient(httputil.DefaultSynthesisTimeout)
	}
	if cfg.notifier == nil {
		cfg.notifier = LogNotifier{}
	}

	store := NewSettingsStore(ProviderName, cfg.persister)
	if cfg.endpoint != "" {
		store.Load(map[string]any{SettingEndpoint: cfg.endpoint})
	}

	catalogOpts := append([]CatalogOption{WithCatalogEmitter(cfg.emitter)}, cfg.catalogOpts...)
	catalog, err := NewVoiceCatalog(store.Endpoint, catalogOpts...)
	if err != nil {
		return nil, err
	}

	s := &CosyVoiceService{
		settings: store,
		catalog:  catalog,
		client:   cfg.client,
		notifier: cfg.notifier,
		emitter:  cfg.emitter,
		limiter:  cfg.limiter,
		pusher:   cfg.pusher,
		tracer:   otel.Tracer(tracerName),
	}

	store.OnChange(func(_ context.Context, field string, settings Settings) {
		s.emitter.SettingsChanged(field, settings.Map())
	})

	return s, nil
}

// Name returns the provider identifier.
func (s *CosyVoiceService) Name() string {
	return ProviderName
}

// Settings returns the settings store.
func (s *CosyVoiceService) Settings() *SettingsStore {
	return s.settings
}

// Catalog returns the voice catalog.
func (s *CosyVoiceService) Catalog() *VoiceCatalog {
	return s.catalog
}

// SupportedVoices returns the cached catalog. It never fetches.
func (s *CosyVoiceService) SupportedVoices() []Voice {
	return s.catalog.Voices()
}

// SupportedFormats returns the formats accepted in the settings record.
func (s *CosyVoiceService) SupportedFormats() []AudioFormat {
	return SupportedFormats()
}

// synthesisRequest is the JSON body of POST {endpoint}/.
type synthesisRequest struct {
	Text      string `json:"text"`
	Speaker   string `json:"speaker"`
	Emotion   string `json:"emotion,omitempty"`
	Streaming int    `json:"streaming,omitempty"`
}

// Synthesize resolves the voice, strips a trailing emotion tag from text and
// issues one POST to the service. On a 2xx response the body is returned
// unconsumed. On any other status the host is notified once and a
// *SynthesisError is returned. Nothing is retried.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy Service interface
func (s *CosyVoiceService) Synthesize(
	ctx context.Context, text string, config SynthesisConfig,
) (*AudioResponse, error) {
	streaming := s.settings.Streaming() && !config.ForceNoStreaming
	return s.synthesize(ctx, text, config, streaming)
}

func (s *CosyVoiceService) synthesize(
	ctx context.Context, text string, config SynthesisConfig, streaming bool,
) (*AudioResponse, error) {
	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, requestID)
	ctx = logger.WithProvider(ctx, ProviderName)
	ctx = logger.WithVoice(ctx, config.Voice)
	ctx = logger.WithOperation(ctx, "synthesize")

	ctx, span := s.tracer.Start(ctx, "tts.synthesize", trace.WithAttributes(
		attribute.String("tts.provider", ProviderName),
		attribute.String("tts.voice", config.Voice),
		attribute.Bool("tts.streaming", streaming),
	))
	defer span.End()

	start := time.Now()
	fail := func(statusCode int, err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.emitter.SynthesisFailed(requestID, &events.SynthesisFailedData{
			Voice:      config.Voice,
			StatusCode: statusCode,
			Error:      err,
			Duration:   time.Since(start),
		})
		logger.TTSError(ctx, ProviderName, "synthesize", err)
		return err
	}

	voice, err := s.catalog.Resolve(ctx, config.Voice)
	if err != nil {
		return nil, fail(0, err)
	}

	cleaned, emotion, _ := ExtractEmotion(text)
	reqBody := synthesisRequest{
		Text:    cleaned,
		Speaker: voice.Speaker(),
		Emotion: emotion,
	}
	if streaming {
		reqBody.Streaming = 1
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to marshal request: %w", err))
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fail(0, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	endpoint := s.synthesisURL(config.Speed)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	logger.TTSRequest(ctx, ProviderName, reqBody.Speaker, len(cleaned), streaming, "emotion", emotion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fail(0, &ConnectivityError{Op: "synthesize", URL: endpoint, Cause: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		s.notify(ctx, statusText(resp))
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		return nil, fail(resp.StatusCode,
			NewSynthesisError(ProviderName, resp.StatusCode, resp.Status, string(body)))
	}

	contentType := resp.Header.Get("Content-Type")
	logger.TTSResponse(ctx, ProviderName, resp.StatusCode, contentType)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	s.emitter.SynthesisCompleted(requestID, &events.SynthesisCompletedData{
		Voice:       config.Voice,
		Speaker:     reqBody.Speaker,
		Emotion:     emotion,
		Streaming:   streaming,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Duration:    time.Since(start),
	})

	return &AudioResponse{
		Body:        resp.Body,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Streaming:   streaming,
		Header:      resp.Header,
	}, nil
}

// SynthesizeStream requests streaming output regardless of the settings flag
// and forwards the raw body as chunks. The last chunk has Final set and no
// data; a read failure is delivered as a chunk with Error set.
//
//nolint:gocritic // hugeParam: SynthesisConfig passed by value to satisfy StreamingService interface
func (s *CosyVoiceService) SynthesizeStream(
	ctx context.Context, text string, config SynthesisConfig,
) (<-chan AudioChunk, error) {
	resp, err := s.synthesize(ctx, text, config, true)
	if err != nil {
		return nil, err
	}

	chunks := make(chan AudioChunk, streamChannelBuffer)
	go s.readStream(ctx, resp.Body, chunks)
	return chunks, nil
}

func (s *CosyVoiceService) readStream(ctx context.Context, body io.ReadCloser, chunks chan<- AudioChunk) {
	defer close(chunks)
	defer body.Close()

	send := func(chunk AudioChunk) bool {
		select {
		case chunks <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	index := 0
	buf := make([]byte, streamChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !send(AudioChunk{Data: data, Index: index}) {
				return
			}
			index++
		}
		if err == io.EOF {
			send(AudioChunk{Index: index, Final: true})
			return
		}
		if err != nil {
			send(AudioChunk{Index: index, Error: err})
			return
		}
	}
}

func (s *CosyVoiceService) notify(ctx context.Context, message string) {
	s.notifier.NotifyError(ctx, NotificationTitle, message)
	s.emitter.NotificationRaised(NotificationTitle, message)
}

func (s *CosyVoiceService) synthesisURL(speed float64) string {
	endpoint := joinEndpoint(s.settings.Endpoint(), synthesisPath)
	if speed <= 0 {
		return endpoint
	}
	q := url.Values{}
	q.Set("speed", strconv.FormatFloat(speed, 'f', -1, 64))
	return endpoint + "?" + q.Encode()
}

// statusText returns the reason phrase of resp, e.g. "Bad Request".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
