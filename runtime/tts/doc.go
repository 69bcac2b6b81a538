// Package tts adapts a CosyVoice HTTP server to the generic text-to-speech
// Service interface.
//
// The adapter owns four pieces of state and behaviour:
//   - SettingsStore: endpoint, audio format, language and streaming flag,
//     merged over fixed defaults and persisted through the host.
//   - VoiceCatalog: the cached result of GET {endpoint}/speakers.
//   - ExtractEmotion: splits a trailing "_emotion" tag off the input text.
//   - CosyVoiceService: builds and sends POST {endpoint}/ and returns the
//     response body unconsumed.
//
// # Usage
//
//	svc, err := tts.NewCosyVoice(tts.WithEndpoint("http://localhost:9880"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.CheckReady(ctx)
//
//	resp, err := svc.Synthesize(ctx, "Hello there_happy", tts.SynthesisConfig{Voice: "alice"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer resp.Close()
//	io.Copy(audioOutput, resp.Body)
//
// # Readiness
//
// CheckReady refreshes the catalog and pushes settings concurrently and
// waits for both. Failures are reported in the ReadinessReport, never
// returned, so a host can report the provider as loaded while the server is
// still down. Callers that need voices must inspect the catalog themselves.
package tts
