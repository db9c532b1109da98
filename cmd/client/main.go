package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apihttp "github.com/gestureflow/client/internal/api/http"
	"github.com/gestureflow/client/internal/api/middleware"
	"github.com/gestureflow/client/internal/api/ws"
	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/backend/dataconnect"
	"github.com/gestureflow/client/internal/bindings"
	"github.com/gestureflow/client/internal/domain/camera"
	"github.com/gestureflow/client/internal/domain/features/arcade"
	"github.com/gestureflow/client/internal/domain/features/basketball"
	"github.com/gestureflow/client/internal/domain/features/presentation"
	"github.com/gestureflow/client/internal/domain/features/rps"
	"github.com/gestureflow/client/internal/domain/features/whiteboard"
	"github.com/gestureflow/client/internal/domain/gesture"
	"github.com/gestureflow/client/internal/domain/profile"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/domain/router"
	"github.com/gestureflow/client/internal/domain/session"
	"github.com/gestureflow/client/internal/infrastructure/config"
	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
	"github.com/gestureflow/client/internal/media"
	"github.com/gestureflow/client/internal/shared/types"
)

func main() {
	backendURL := flag.String("backend", "", "vision backend base URL (overrides BACKEND_URL)")
	bridgePort := flag.String("port", "", "bridge listen port (overrides BRIDGE_PORT)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}
	if *bridgePort != "" {
		cfg.Bridge.Port = *bridgePort
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		logger = logging.NewDefault()
	}
	defer func() { _ = logger.Sync() }()

	metrics := monitoring.NewMetrics()

	profileBindings, err := bindings.Load(cfg.Bindings.ProfilePath)
	if err != nil {
		logger.Warn("binding profile rejected, using defaults",
			zap.String("path", cfg.Bindings.ProfilePath), zap.Error(err))
		profileBindings = bindings.Default()
	}

	// The guard and the backend client reference each other: tokens flow
	// guard -> client, refreshes flow client -> guard. The closures bind
	// late so construction order does not matter.
	var guard *session.Guard
	client := backend.New(backend.Options{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.Timeout,
		RetryMax: 2,
		Tokens: backend.TokenFunc(func(ctx context.Context) (string, error) {
			return guard.Token(ctx)
		}),
		Refresher: backend.RefreshFunc(func(ctx context.Context) error {
			return guard.Refresh(ctx)
		}),
		Logger:  logger,
		Metrics: metrics,
	})
	guard = session.New(session.Options{
		Authenticator:   backend.NewAuth(client),
		RefreshInterval: cfg.Auth.RefreshInterval,
		Logger:          logger,
		Metrics:         metrics,
	})

	var community *dataconnect.Service
	if cfg.Backend.DataConnectURL != "" {
		community = dataconnect.New(cfg.Backend.DataConnectURL, cfg.Backend.Timeout, logger)
		guard.Subscribe(func(authenticated bool, identity string) {
			token, _ := guard.CurrentToken()
			community.SetAuthToken(token)
		})
	}

	reg := registry.New(logger, metrics)
	cam := camera.New(camera.Options{
		Vision:         client,
		Registry:       reg,
		StatusInterval: cfg.Polling.CameraStatus,
		PollInterval:   cfg.Polling.Gesture,
		MinUpdateGap:   cfg.Polling.GestureMinGap,
		FrameInterval:  cfg.Polling.FrameProcess,
		Logger:         logger,
		Metrics:        metrics,
	})

	tracker := profile.NewTracker()
	viewer := presentation.New(client,
		presentation.WithNavCooldown(cooldown(profileBindings, "presentation", bindings.ActionSlideNext, cfg.Cooldowns.SlideNav)))
	board := whiteboard.New(client, reg,
		whiteboard.WithCooldowns(
			cooldown(profileBindings, "whiteboard", bindings.ActionCycleColor, cfg.Cooldowns.ColorChange),
			cfg.Cooldowns.ClearRelease))
	hoops := basketball.New(client, reg,
		basketball.WithShotCooldown(cooldown(profileBindings, "basketball", bindings.ActionShoot, cfg.Cooldowns.Shot)))
	match := rps.New()
	arcadeCtl := arcade.New(arcade.Options{
		Games:         client,
		Registry:      reg,
		Streams:       streamFactory(logger),
		CameraActive:  func() bool { return cam.Status().Active },
		StateInterval: cfg.Polling.ArcadeState,
		FruitInterval: cfg.Polling.FruitState,
	})

	rt := router.New(router.Options{
		Registry: reg,
		Camera:   cam,
		Session:  guard,
		Logger:   logger,
		Metrics:  metrics,
	})

	core := &apihttp.Core{
		Router:       rt,
		Registry:     reg,
		Camera:       cam,
		Session:      guard,
		Profile:      tracker,
		Presentation: viewer,
		Arcade:       arcadeCtl,
		RPS:          match,
		Basketball:   hoops,
		Whiteboard:   board,
		DataConnect:  community,
		StrokeSync:   client,
		AuthProbe:    client,
		GameSync:     client,
		AimInterval:  cfg.Polling.HandPosition,
	}
	registerScreens(rt, core, cfg)

	hub := ws.NewHub(core, logger, metrics)
	var rateCfg middleware.RateLimitConfig
	if cfg.RateLimit.Enabled {
		rateCfg = middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
	}
	srv := apihttp.NewServer(apihttp.ServerConfig{
		Host:      cfg.Bridge.Host,
		Port:      cfg.Bridge.Port,
		CORS:      middleware.DefaultCORSConfig(),
		RateLimit: rateCfg,
	}, apihttp.NewHandlers(core, logger), hub.Handle, logger, metrics)

	if err := rt.Start(); err != nil {
		logger.Fatal("router start failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("bridge server failed", zap.Error(err))
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("bridge shutdown incomplete", zap.Error(err))
	}
	reg.ClearAll()
}

// cooldown resolves an action cooldown: profile override first, config
// default second.
func cooldown(p *bindings.Profile, feature string, a bindings.Action, fallback time.Duration) time.Duration {
	if d, ok := p.CooldownFor(feature, a); ok {
		return d
	}
	return fallback
}

// streamFactory builds MJPEG consumers for the arcade feeds. Each
// stream runs until the registry blanks it; frames count into metrics,
// the UI renders the feed straight from its URL.
func streamFactory(logger *logging.Logger) arcade.StreamFactory {
	return func(url string) registry.Stream {
		s := media.NewStream(url, logger)
		go func() {
			_ = s.Run(context.Background(), media.FrameFunc(func(data []byte) error {
				return nil
			}))
		}()
		return s
	}
}

func registerScreens(rt *router.Router, core *apihttp.Core, cfg *config.Config) {
	withTimeout := func(f func(ctx context.Context)) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		f(ctx)
	}

	rt.Register(router.NewScreen(types.ScreenLogin, false, nil, nil))
	rt.Register(router.NewScreen(types.ScreenRegister, false, nil, nil))
	rt.Register(router.NewScreen(types.ScreenDashboard, true, nil, nil))
	rt.Register(router.NewScreen(types.ScreenProfile, true, nil, nil))
	rt.Register(router.NewScreen(types.ScreenHelp, true, nil, nil))

	rt.Register(router.NewScreen(types.ScreenWhiteboard, true,
		func(ctx context.Context) {
			core.Profile.WhiteboardUsed()
			core.Whiteboard.StartDrawingPolling(string(types.ScreenWhiteboard), cfg.Polling.Drawing)
		},
		nil, // whiteboard gestures arrive through the drawing poll
	))

	rt.Register(router.NewScreen(types.ScreenGames, true,
		func(ctx context.Context) { core.ProvisionGames() },
		func(sample types.GestureSample) {
			core.HandleGameGesture(gesture.Parse(sample.Symbol))
		},
	))

	rt.Register(router.NewScreen(types.ScreenPresentation, true,
		nil,
		func(sample types.GestureSample) {
			withTimeout(func(ctx context.Context) {
				core.Presentation.HandleGesture(ctx, gesture.Parse(sample.Symbol))
			})
		},
	))
}
