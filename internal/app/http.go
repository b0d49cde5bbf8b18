package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"webauth/internal/auth/flow"
	"webauth/internal/auth/handler"
	"webauth/internal/auth/provider"
	"webauth/internal/auth/resolver"
	"webauth/internal/cleanup"
	"webauth/internal/config"
	"webauth/internal/metrics"
	"webauth/internal/middleware"
	"webauth/internal/pages"
)

// setupHTTP builds every request-path dependency on top of infra and
// returns the router plus the background sweeper.
func setupHTTP(
	cfg config.Config,
	infra *Infra,
	idp provider.IdentityProvider,
	reg *prometheus.Registry,
) (*gin.Engine, *cleanup.Sweeper, error) {

	// ----------------------------
	// Dependencies
	// ----------------------------

	m := metrics.New(reg)

	pendingStore := infra.pendingStore(cfg.PendingTTL)
	sessionStore := infra.sessionStore()
	users := resolver.NewDBResolver(infra.DB)

	controller := flow.NewController(
		idp,
		pendingStore,
		users,
		sessionStore,
		flow.WithSessionTTL(cfg.SessionTTL),
		flow.WithMetrics(m),
	)

	renderer, err := pages.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	authHandler := handler.NewHandler(controller, renderer, cfg.CookieConfirmHop)
	sessions := middleware.NewSessionMiddleware(sessionStore, users, m)

	sweeper := cleanup.NewSweeper(
		pendingStore,
		sessionStore,
		cfg.PendingTTL,
		cfg.SweepInterval,
		m,
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.SecurityHeaders(),
	)

	router.GET("/health", func(c *gin.Context) {
		if err := infra.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// ----------------------------
	// Session-aware Routes
	// ----------------------------

	web := router.Group("/")
	web.Use(middleware.GinResolve(sessions))

	authHandler.RegisterRoutes(web)

	web.GET("/", renderer.IndexPage)
	web.GET("/about", renderer.AboutPage)
	web.GET("/cookies", renderer.CookiesPage)

	// ----------------------------
	// Protected Routes
	// ----------------------------

	web.GET("/profile", middleware.GinRequire(sessions), renderer.ProfilePage)

	router.NoRoute(middleware.GinResolve(sessions), func(c *gin.Context) {
		renderer.RenderError(c, http.StatusNotFound, "Page not found.")
	})

	return router, sweeper, nil
}
