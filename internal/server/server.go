// Package server exposes the HTTP API and the web UI.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nikolag/summit/internal/auth"
	"github.com/nikolag/summit/internal/config"
	"github.com/nikolag/summit/internal/countries"
	"github.com/nikolag/summit/internal/importer"
	"github.com/nikolag/summit/internal/storage"
)

// sessionCookie carries the login token for browser sessions.
const sessionCookie = "summit_session"

// Embed placeholder - populated by the cmd/server build
var webAssets embed.FS

// SetEmbeddedFiles sets the embedded web file system (called from cmd/server)
func SetEmbeddedFiles(web embed.FS) {
	webAssets = web
}

// Server serves the API and web UI over one gin engine.
type Server struct {
	config      *config.ServerConfig
	storage     *storage.Storage
	importer    *importer.Importer
	resolver    *countries.Resolver
	router      *gin.Engine
	metricsPort int
	metrics     *Metrics
	rateLimiter *RateLimiter
	log         *zap.SugaredLogger
}

// New creates a new server instance
func New(cfg *config.ServerConfig, metricsPort int, log *zap.SugaredLogger) (*Server, error) {
	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	catalog, err := countries.Catalog()
	if err != nil {
		store.Close()
		return nil, err
	}
	resolver := countries.NewResolver(catalog)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	s := &Server{
		config:      cfg,
		storage:     store,
		importer:    importer.New(store, resolver, log),
		resolver:    resolver,
		router:      router,
		metricsPort: metricsPort,
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(15 * time.Second),
		log:         log,
	}

	if err := s.setupTemplates(); err != nil {
		store.Close()
		return nil, err
	}
	s.setupRoutes()

	return s, nil
}

// Storage exposes the underlying store for seeding and maintenance.
func (s *Server) Storage() *storage.Storage {
	return s.storage
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server
func (s *Server) Run() error {
	if s.metricsPort > 0 {
		go s.runMetricsServer()
	}

	go s.runPruner()
	go s.refreshCounts()

	s.log.Infow("listening", "addr", s.config.ListenAddr)
	return s.router.Run(s.config.ListenAddr)
}

// Close shuts down the server
func (s *Server) Close() error {
	return s.storage.Close()
}

func (s *Server) setupTemplates() error {
	tmpl, err := template.ParseFS(webAssets, "web/templates/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.router.SetHTMLTemplate(tmpl)
	return nil
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/api/health", s.handleHealth)

	// Login does not require a session
	s.router.POST("/api/login", s.handleAPILogin)

	// Protected API (session token required)
	api := s.router.Group("/api")
	api.Use(s.apiAuthMiddleware())
	{
		api.GET("/counts", s.handleCounts)

		api.GET("/countries", s.handleListCountries)
		api.GET("/countries/resolve", s.handleResolveCountry)

		api.GET("/participants", s.handleListParticipants)
		api.POST("/participants", s.handleCreateParticipant)
		api.POST("/participants/normalize-phones", s.handleNormalizePhones)
		api.GET("/participants/:pid", s.handleGetParticipant)
		api.PUT("/participants/:pid", s.handleUpdateParticipant)
		api.DELETE("/participants/:pid", s.handleDeleteParticipant)
		api.GET("/participants/:pid/events", s.handleParticipantEvents)

		api.GET("/events", s.handleListEvents)
		api.POST("/events", s.handleCreateEvent)
		api.GET("/events/:eid", s.handleGetEvent)
		api.PUT("/events/:eid", s.handleUpdateEvent)
		api.DELETE("/events/:eid", s.handleDeleteEvent)
		api.GET("/events/:eid/participants", s.handleEventParticipants)
		api.GET("/events/:eid/participants/:pid", s.handleGetSnapshot)
		api.PUT("/events/:eid/participants/:pid", s.handleAssign)
		api.DELETE("/events/:eid/participants/:pid", s.handleUnassign)

		api.POST("/tests", s.handleRecordTestScore)
		api.GET("/tests/:eid", s.handleListEventTests)
		api.GET("/tests/:eid/:pid/:attempt", s.handleGetTestScore)

		api.POST("/imports", s.handleImport)
		api.GET("/uploads", s.handleListUploads)
	}

	// HTML pages
	s.router.GET("/login", s.handleLoginPage)
	s.router.POST("/login", s.handleLoginForm)
	s.router.GET("/logout", s.handleLogout)

	pages := s.router.Group("/")
	pages.Use(s.pageAuthMiddleware())
	{
		pages.GET("/", s.handleHomePage)
		pages.GET("/import", s.handleImportPage)
		pages.POST("/import", s.handleImportForm)
	}

	// Static assets (overlay script, stylesheet)
	staticFS, err := fs.Sub(webAssets, "web/static")
	if err == nil {
		s.router.StaticFS("/static", http.FS(staticFS))
	}
}

// requestLogger logs every request with latency and status.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// sessionToken pulls the login token from the Authorization header or
// the session cookie.
func sessionToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return cookie
	}
	return ""
}

func (s *Server) apiAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := auth.ParseToken(s.config.JWTSecret, sessionToken(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing session token"})
			c.Abort()
			return
		}
		c.Set("username", username)
		c.Next()
	}
}

func (s *Server) pageAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := auth.ParseToken(s.config.JWTSecret, sessionToken(c))
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set("username", username)
		c.Next()
	}
}

// login verifies credentials with rate limiting and issues a token.
func (s *Server) login(c *gin.Context, username, password string) (string, bool) {
	clientIP := GetRealIP(c)

	if s.rateLimiter.IsBlocked(clientIP) {
		logFailedLogin(clientIP, username, "ip temporarily blocked", true)
		return "", false
	}

	user, err := s.storage.GetUser(c.Request.Context(), username)
	if err != nil || !user.Active || !auth.VerifyPassword(user.PasswordHash, password) {
		logFailedLogin(clientIP, username, "bad credentials", false)
		s.rateLimiter.BlockIP(clientIP)
		return "", false
	}

	token, err := auth.IssueToken(s.config.JWTSecret, username, time.Now())
	if err != nil {
		s.log.Errorw("failed to issue token", "username", username, "error", err)
		return "", false
	}
	return token, true
}

func (s *Server) runMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.metricsPort),
		Handler: mux,
	}

	server.ListenAndServe()
}

// runPruner drops archived workbooks past the retention window.
func (s *Server) runPruner() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	// Run once at startup
	s.prune()

	for range ticker.C {
		s.prune()
	}
}

func (s *Server) prune() {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)

	if err := s.storage.PruneUploads(ctx, cutoff); err != nil {
		s.log.Errorw("upload pruning failed", "error", err)
	}
}

// refreshCounts keeps the dashboard gauges roughly current.
func (s *Server) refreshCounts() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		if counts, err := s.storage.CountAll(context.Background()); err == nil {
			s.metrics.setCounts(counts)
		}
		<-ticker.C
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
