package main

import (
	"context"
	"errors"
	"maps"

	"github.com/redis/go-redis/v9"

	"github.com/AltairaLabs/cosyvoice-bridge/pkg/config"
	pkgerrors "github.com/AltairaLabs/cosyvoice-bridge/pkg/errors"
	"github.com/AltairaLabs/cosyvoice-bridge/pkg/httputil"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/events"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
	metricsprom "github.com/AltairaLabs/cosyvoice-bridge/runtime/metrics/prometheus"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/statestore"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/telemetry"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
	"github.com/AltairaLabs/cosyvoice-bridge/server/bridge"
)

// app is the wired adapter and its collaborators for one command run.
type app struct {
	cfg     *config.Config
	store   statestore.Store
	bus     *events.EventBus
	service *tts.CosyVoiceService
	notes   *bridge.NotificationLog

	// persisted is the record read from the store.
	persisted map[string]any

	// effective is the record seeded into the adapter: config file values,
	// then the persisted record, then the environment and flag overrides.
	effective map[string]any

	closers []func(context.Context) error
}

// newApp builds the adapter from cfg. The settings are loaded but no network
// call is made yet. overrides rank above the persisted record and are never
// written back to the store.
func newApp(ctx context.Context, cfg *config.Config, overrides map[string]any) (*app, error) {
	return newAppWithStore(ctx, cfg, nil, overrides)
}

// newAppWithStore is newApp over an existing store; a nil store is built
// from the persistence config.
func newAppWithStore(
	ctx context.Context, cfg *config.Config, store statestore.Store, overrides map[string]any,
) (*app, error) {
	logger.Configure(cfg.Spec.Logging.Format, cfg.Spec.Logging.DefaultLevel)

	a := &app{cfg: cfg}

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Spec.Telemetry.Enabled,
		Endpoint:       cfg.Spec.Telemetry.Endpoint,
		ServiceName:    cfg.Spec.Telemetry.ServiceName,
		ServiceVersion: GetVersion(),
	})
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.ComponentCLI, "SetupTelemetry", err)
	}
	a.closers = append(a.closers, shutdown)

	if store == nil {
		if store, err = a.newStore(); err != nil {
			return nil, err
		}
	}
	a.store = store

	persisted, err := statestore.LoadOrEmpty(ctx, store, tts.ProviderName)
	if err != nil {
		logger.WarnContext(ctx, "Could not load persisted settings, using config values", "error", err)
		persisted = map[string]any{}
	}
	a.persisted = persisted

	a.bus = events.NewEventBus()
	a.bus.SubscribeAll(metricsprom.NewMetricsListener().Listener())
	a.bus.SubscribeAll(telemetry.NewOTelEventListener(telemetry.Tracer(nil)).OnEvent)
	emitter := events.NewEmitter(a.bus, tts.ProviderName)

	a.notes = bridge.NewNotificationLog(cfg.Spec.Server.NotificationBuffer, tts.LogNotifier{})

	p := cfg.Spec.Provider
	if p.CatalogTimeout <= 0 {
		p.CatalogTimeout = httputil.DefaultCatalogTimeout
	}
	if p.SynthesisTimeout <= 0 {
		p.SynthesisTimeout = httputil.DefaultSynthesisTimeout
	}
	catalogOpts := []tts.CatalogOption{
		tts.WithCatalogClient(telemetry.InstrumentClient(httputil.NewHTTPClient(p.CatalogTimeout))),
		tts.WithCatalogTimeout(p.CatalogTimeout),
	}
	if p.VoicesQuery != "" {
		catalogOpts = append(catalogOpts, tts.WithVoicesQuery(p.VoicesQuery))
	}
	opts := []tts.Option{
		tts.WithClient(telemetry.InstrumentClient(httputil.NewStreamingHTTPClient(p.SynthesisTimeout))),
		tts.WithNotifier(a.notes),
		tts.WithPersister(newOverridePersister(store, persisted, overrides)),
		tts.WithEmitter(emitter),
		tts.WithCatalogOptions(catalogOpts...),
	}
	if p.RateLimit > 0 {
		opts = append(opts, tts.WithRateLimit(p.RateLimit, p.RateBurst))
	}

	service, err := tts.NewCosyVoice(opts...)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.ComponentCLI, "NewCosyVoice", err)
	}
	a.service = service

	a.effective = p.SettingsOverlay()
	maps.Copy(a.effective, persisted)
	maps.Copy(a.effective, overrides)
	service.Settings().Load(a.effective)

	return a, nil
}

func (a *app) newStore() (statestore.Store, error) {
	p := a.cfg.Spec.Persistence
	if p.Backend != config.BackendRedis {
		return statestore.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Redis.Addr,
		Password: p.Redis.Password,
		DB:       p.Redis.DB,
	})
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })

	var opts []statestore.RedisOption
	if p.Redis.Prefix != "" {
		opts = append(opts, statestore.WithPrefix(p.Redis.Prefix))
	}
	if p.Redis.TTL > 0 {
		opts = append(opts, statestore.WithTTL(p.Redis.TTL))
	}
	return statestore.NewRedisStore(client, opts...), nil
}

// Close releases the app's resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	if a.bus != nil {
		a.bus.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
