package tts

import (
	"context"
	"io"
	"net/http"
)

// Service converts text to speech audio.
type Service interface {
	// Name returns the provider identifier (for logging/debugging).
	Name() string

	// Synthesize converts text to audio with the voice named in config.
	// The returned response body is unconsumed; the caller must close it.
	Synthesize(ctx context.Context, text string, config SynthesisConfig) (*AudioResponse, error)

	// SupportedVoices returns the voices currently known to the provider.
	SupportedVoices() []Voice

	// SupportedFormats returns supported audio output formats.
	SupportedFormats() []AudioFormat
}

// StreamingService extends Service with streaming synthesis capabilities.
type StreamingService interface {
	Service

	// SynthesizeStream converts text to audio with streaming output.
	// Returns a channel that receives audio chunks as they arrive.
	// The channel is closed when the body is exhausted or an error occurs.
	SynthesizeStream(ctx context.Context, text string, config SynthesisConfig) (<-chan AudioChunk, error)
}

// AudioChunk represents a chunk of synthesized audio data.
type AudioChunk struct {
	// Data is the raw audio bytes.
	Data []byte

	// Index is the chunk sequence number (0-indexed).
	Index int

	// Final indicates this is the last chunk.
	Final bool

	// Error is set if reading the stream failed.
	Error error
}

// SynthesisConfig configures a single synthesis call.
type SynthesisConfig struct {
	// Voice is the logical voice name, resolved through the voice catalog.
	Voice string

	// Speed is the speech rate multiplier sent as the "speed" query parameter.
	// Zero leaves the server default.
	Speed float64

	// ForceNoStreaming suppresses the streaming flag for this call even when
	// streaming is enabled in the settings.
	ForceNoStreaming bool
}

// AudioResponse is the raw, unconsumed result of a successful synthesis call.
// Depending on Streaming the body carries one complete audio payload or an
// incrementally produced stream.
type AudioResponse struct {
	// Body is the response body. The caller is responsible for closing it.
	Body io.ReadCloser

	// StatusCode is the HTTP status returned by the service.
	StatusCode int

	// ContentType is the response media type (e.g., "audio/wav").
	ContentType string

	// Streaming reports whether streaming was requested for this call.
	Streaming bool

	// Header holds the raw response headers.
	Header http.Header
}

// Close closes the response body.
func (r *AudioResponse) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// AudioFormat describes an audio output format.
type AudioFormat struct {
	// Name is the format identifier as used in settings ("wav", "ogg", ...).
	Name string

	// MIMEType is the content type (e.g., "audio/wav").
	MIMEType string
}

// String returns the format name.
func (f AudioFormat) String() string {
	return f.Name
}

// Formats recognised in the settings record.
var (
	// FormatWAV is WAV format, the service default.
	FormatWAV = AudioFormat{Name: "wav", MIMEType: "audio/wav"}

	// FormatOGG is Ogg format.
	FormatOGG = AudioFormat{Name: "ogg", MIMEType: "audio/ogg"}

	// FormatSILK is Skype SILK format.
	FormatSILK = AudioFormat{Name: "silk", MIMEType: "audio/silk"}

	// FormatMP3 is MP3 format.
	FormatMP3 = AudioFormat{Name: "mp3", MIMEType: "audio/mpeg"}

	// FormatFLAC is FLAC format (lossless).
	FormatFLAC = AudioFormat{Name: "flac", MIMEType: "audio/flac"}
)

// SupportedFormats returns the formats accepted in the settings record, in
// display order.
func SupportedFormats() []AudioFormat {
	return []AudioFormat{FormatWAV, FormatOGG, FormatSILK, FormatMP3, FormatFLAC}
}

// IsSupportedFormat reports whether name is one of SupportedFormats.
func IsSupportedFormat(name string) bool {
	for _, f := range SupportedFormats() {
		if f.Name == name {
			return true
		}
	}
	return false
}
