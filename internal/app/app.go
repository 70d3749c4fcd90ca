package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"scrapconnect/sync-client/internal/config"
	"scrapconnect/sync-client/internal/notify"
	"scrapconnect/sync-client/internal/reconcile"
	"scrapconnect/sync-client/internal/remote"
	"scrapconnect/sync-client/internal/session"
	"scrapconnect/sync-client/internal/store"
)

const noticeHistory = 100

// App wires together the ScrapConnect sync services and manages their lifecycle.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	backend   store.Backend
	svc       *reconcile.Service
	notices   *notify.Recorder
	indicator *remote.Indicator
	mqtt      mqtt.Client
	mdns      *zeroconf.Server
}

// New constructs a new application instance.
func New(cfg config.Config, logger *zap.Logger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run starts all configured services and blocks until the context is cancelled or an error occurs.
func (a *App) Run(ctx context.Context) error {
	backend, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	a.backend = backend

	defer func() {
		if cerr := a.backend.Close(); cerr != nil {
			a.logger.Error("close cache backend", zap.Error(cerr))
		}
	}()

	publishers := a.connectNotices()
	defer func() {
		if a.mqtt != nil {
			a.mqtt.Disconnect(250)
			a.logger.Info("mqtt client disconnected")
		}
	}()

	gateway := a.newGateway(publishers)
	if !gateway.Configured() {
		a.logger.Warn("remote api url not configured, every operation runs in backup mode")
	}

	a.svc = reconcile.NewService(gateway, store.NewCache(backend, a.logger), session.New(),
		reconcile.WithNotices(publishers),
		reconcile.WithCountryCode(a.cfg.CountryCode),
		reconcile.WithLogger(a.logger),
	)
	if a.svc.Restore(ctx) {
		a.logger.Info("resumed saved session")
	}

	if a.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpErrCh := make(chan error, 1)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler: a.routes(),
	}

	go func() {
		a.logger.Info("http server started", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.cfg.MDNSEnabled {
		if err := a.startMDNS(a.cfg.HTTPPort); err != nil {
			a.logger.Warn("mDNS advertisement failed", zap.Error(err))
		}
		defer a.stopMDNS()
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		a.logger.Info("http server stopped")
		return nil
	case err := <-httpErrCh:
		return err
	}
}

func (a *App) openBackend(ctx context.Context) (store.Backend, error) {
	switch a.cfg.CacheBackend {
	case config.BackendRedis:
		b, err := store.ConnectRedis(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.RedisKeyPrefix)
		if err != nil {
			return nil, err
		}
		a.logger.Info("cache backend ready", zap.String("backend", "redis"), zap.String("addr", a.cfg.RedisAddr))
		return b, nil
	default:
		b, err := store.OpenSQLite(ctx, a.cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		a.logger.Info("cache backend ready", zap.String("backend", "sqlite"), zap.String("path", a.cfg.DatabasePath))
		return b, nil
	}
}

// connectNotices always keeps notices in memory and also publishes them over MQTT
// when a broker is configured and reachable.
func (a *App) connectNotices() notify.Multi {
	a.notices = notify.NewRecorder(noticeHistory)
	publishers := notify.Multi{a.notices}

	if a.cfg.MQTTBroker == "" {
		return publishers
	}

	client, err := notify.DialMQTT(a.cfg.MQTTBroker, a.cfg.MQTTClientID)
	if err != nil {
		a.logger.Warn("mqtt broker unavailable, notices stay in memory", zap.Error(err))
		return publishers
	}
	a.mqtt = client
	a.logger.Info("mqtt client connected", zap.String("broker", a.cfg.MQTTBroker), zap.String("prefix", a.cfg.MQTTTopicPrefix))

	return append(publishers, notify.NewMQTTPublisher(client, a.cfg.MQTTTopicPrefix, a.logger))
}

func (a *App) newGateway(publishers notify.Multi) *remote.Gateway {
	var loading *notify.MQTTPublisher
	for _, p := range publishers {
		if mp, ok := p.(*notify.MQTTPublisher); ok {
			loading = mp
		}
	}

	a.indicator = remote.NewIndicator(func(v bool) {
		if loading != nil {
			loading.PublishLoading(v)
		}
	})

	var limiter *rate.Limiter
	if a.cfg.RemoteRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.cfg.RemoteRate), a.cfg.RemoteBurst)
	}

	return remote.NewGateway(a.cfg.RemoteURL, remote.Options{
		Timeout:   a.cfg.RemoteTimeout,
		Limiter:   limiter,
		Indicator: a.indicator,
		Logger:    a.logger,
	})
}
