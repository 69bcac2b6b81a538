package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jmespath/go-jmespath"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/singleflight"

	"github.com/AltairaLabs/cosyvoice-bridge/pkg/httputil"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
)

const (
	speakersPath = "/speakers"

	// maxErrorBodyBytes caps how much of an error response is kept.
	maxErrorBodyBytes = 4096

	refreshKey = "refresh"
)

// speakerListSchema describes the minimum shape of GET /speakers.
const speakerListSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["name"],
    "properties": {
      "name": {"type": "string"},
      "voice_id": {"type": "string"}
    }
  }
}`

var compiledSpeakerSchema = mustCompileSchema(speakerListSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("tts: invalid speaker schema: %v", err))
	}
	return schema
}

// Voice is one speaker record from the remote service. Only Name is used for
// lookup; the other fields are carried through untouched.
type Voice struct {
	ID          string `json:"voice_id,omitempty"`
	Name        string `json:"name"`
	Language    string `json:"language,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
	Preview     string `json:"preview_url,omitempty"`

	// Raw is the record exactly as the server sent it.
	Raw json.RawMessage `json:"-"`
}

// Speaker returns the identifier sent as "speaker" in synthesis requests.
func (v Voice) Speaker() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

// EndpointFunc returns the current endpoint base URL.
type EndpointFunc func() string

// CatalogOption configures a VoiceCatalog.
type CatalogOption func(*VoiceCatalog)

// WithCatalogClient sets the HTTP client used for GET /speakers.
func WithCatalogClient(client *http.Client) CatalogOption {
	return func(c *VoiceCatalog) {
		c.client = client
	}
}

// WithCatalogTimeout bounds each refresh.
func WithCatalogTimeout(timeout time.Duration) CatalogOption {
	return func(c *VoiceCatalog) {
		c.timeout = timeout
	}
}

// WithVoicesQuery sets a JMESPath expression that extracts the speaker list
// from a wrapped response, e.g. "data.speakers".
func WithVoicesQuery(expr string) CatalogOption {
	return func(c *VoiceCatalog) {
		c.queryExpr = expr
	}
}

// WithCatalogEmitter publishes refresh outcomes on the event bus.
func WithCatalogEmitter(emitter *events.Emitter) CatalogOption {
	return func(c *VoiceCatalog) {
		c.emitter = emitter
	}
}

// VoiceCatalog caches the remote speaker list. The cache is empty until the
// first successful refresh and is replaced wholesale on every refresh.
type VoiceCatalog struct {
	endpoint  EndpointFunc
	client    *http.Client
	timeout   time.Duration
	queryExpr string
	query     *jmespath.JMESPath
	emitter   *events.Emitter

	group singleflight.Group

	mu     sync.RWMutex
	voices []Voice
}

// NewVoiceCatalog creates an empty catalog reading from endpoint.
func NewVoiceCatalog(endpoint EndpointFunc, opts ...CatalogOption) (*VoiceCatalog, error) {
	c := &VoiceCatalog{
		endpoint: endpoint,
		timeout:  httputil.DefaultCatalogTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httputil.NewHTTPClient(c.timeout)
	}
	if c.queryExpr != "" {
		query, err := jmespath.Compile(c.queryExpr)
		if err != nil {
			return nil, fmt.Errorf("compile voices query %q: %w", c.queryExpr, err)
		}
		c.query = query
	}
	return c, nil
}

// Voices returns a copy of the cached voices in server order.
func (c *VoiceCatalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Len returns the number of cached voices.
func (c *VoiceCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voices)
}

// Refresh fetches GET {endpoint}/speakers and replaces the cache.
// On failure the cache is left unchanged.
func (c *VoiceCatalog) Refresh(ctx context.Context) ([]Voice, error) {
	start := time.Now()
	voices, err := c.fetch(ctx)
	if err != nil {
		c.emitter.CatalogFailed(err, time.Since(start))
		return nil, err
	}

	c.mu.Lock()
	c.voices = voices
	c.mu.Unlock()

	c.emitter.CatalogRefreshed(len(voices), time.Since(start))
	logger.DebugContext(ctx, "Voice catalog refreshed", "voices", len(voices))

	out := make([]Voice, len(voices))
	copy(out, voices)
	return out, nil
}

// Resolve returns the first cached voice whose Name equals name. An empty
// cache is refreshed once first; concurrent callers share that refresh. A
// miss on a populated cache never triggers another fetch.
//
// The shared refresh is detached from any single caller's cancellation and
// bounded by the catalog timeout instead; each caller stops waiting when its
// own context ends.
func (c *VoiceCatalog) Resolve(ctx context.Context, name string) (Voice, error) {
	if c.Len() == 0 {
		shared := context.WithoutCancel(ctx)
		ch := c.group.DoChan(refreshKey, func() (any, error) {
			return c.Refresh(shared)
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				return Voice{}, res.Err
			}
		case <-ctx.Done():
			return Voice{}, ctx.Err()
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.voices {
		if v.Name == name {
			return v, nil
		}
	}
	return Voice{}, &VoiceNotFoundError{Name: name}
}

func (c *VoiceCatalog) fetch(ctx context.Context) ([]Voice, error) {
	url := joinEndpoint(c.endpoint(), speakersPath)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logger.APIRequest(ctx, ProviderName, http.MethodGet, url, nil)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Op: "refresh", URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		logger.APIResponse(ctx, ProviderName, resp.StatusCode, string(body), nil)
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{Op: "refresh", URL: url, Cause: err}
	}

	voices, err := c.parse(body)
	if err != nil {
		return nil, &RemoteError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBodyBytes),
			Cause:      err,
		}
	}
	return voices, nil
}

// parse validates the payload and decodes it into voices.
func (c *VoiceCatalog) parse(body []byte) ([]Voice, error) {
	if c.query != nil {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		extracted, err := c.query.Search(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: query %q: %v", ErrInvalidCatalog, c.queryExpr, err)
		}
		if body, err = json.Marshal(extracted); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
	}

	result, err := compiledSpeakerSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	voices := make([]Voice, 0, len(raws))
	for _, raw := range raws {
		var v Voice
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		v.Raw = raw
		voices = append(voices, v)
	}
	return voices, nil
}

// joinEndpoint appends path to the endpoint base, collapsing trailing slashes.
func joinEndpoint(endpoint, path string) string {
	return strings.TrimRight(endpoint, "/") + path
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
