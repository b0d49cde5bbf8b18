package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"webauth/internal/auth/provider/google"
	"webauth/internal/cleanup"
	"webauth/internal/config"
	"webauth/internal/logger"
)

type App struct {
	httpServer *http.Server
	sweeper    *cleanup.Sweeper
	infra      *Infra

	sweepCtx    context.Context
	stopSweeper context.CancelFunc
	sweeperDone chan struct{}
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	idp, err := google.New(google.Options{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Timeout:      cfg.ProviderTimeout,
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, sweeper, err := setupHTTP(cfg, infra, idp, reg)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return newApp(server, sweeper, infra), nil
}

func newApp(server *http.Server, sweeper *cleanup.Sweeper, infra *Infra) *App {
	sweepCtx, stopSweeper := context.WithCancel(context.Background())

	return &App{
		httpServer:  server,
		sweeper:     sweeper,
		infra:       infra,
		sweepCtx:    sweepCtx,
		stopSweeper: stopSweeper,
		sweeperDone: make(chan struct{}),
	}
}

// Run starts the expiry sweeper and serves HTTP until Shutdown.
func (a *App) Run() error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return err
	}
	return a.serve(ln)
}

func (a *App) serve(ln net.Listener) error {
	go func() {
		defer close(a.sweeperDone)
		a.sweeper.Run(a.sweepCtx)
	}()

	err := a.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server, the sweeper and the infrastructure. All
// three are released even when the server fails to drain in time; the
// first error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.httpServer.Shutdown(ctx)
	if err != nil {
		logger.Warn("http server did not drain", map[string]any{"error": err})
	}

	a.stopSweeper()
	select {
	case <-a.sweeperDone:
	case <-ctx.Done():
	}

	logger.Info("closing infrastructure", nil)
	if closeErr := a.infra.Close(); err == nil {
		err = closeErr
	}
	return err
}
