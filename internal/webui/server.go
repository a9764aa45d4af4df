package webui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/logging"
	"github.com/muurk/dctdash/internal/router"
	"github.com/muurk/dctdash/internal/version"
)

//go:embed templates/*.html
var templatesFS embed.FS

// DefaultAddr is used when no listen address is given
const DefaultAddr = ":8090"

// Options configures the web mirror
type Options struct {
	// Server is the OpenDCT base URL shown on the page
	Server string

	// TableOptions apply to every table the server builds
	TableOptions []dashboard.Option
}

// Server serves the dashboard page, a JSON API and the live websocket feed
type Server struct {
	addr    string
	fetcher dashboard.Fetcher
	opts    Options

	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	sessions  atomic.Int64
}

// NewServer creates a web mirror reading from f
func NewServer(addr string, f dashboard.Fetcher, opts Options) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		fetcher:   f,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", s.handleIndex)
	r.GET("/api/health", s.handleHealth)
	r.GET("/api/panels", s.handlePanels)
	r.GET("/api/dashboard", s.handleDashboard)
	r.GET("/ws", s.handleWebSocket)
	return r
}

// Start begins serving in the background
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	logging.Info("Web mirror listening", zap.String("addr", listener.Addr().String()))
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Web mirror stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server and every websocket session
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Sessions returns the number of connected websocket clients
func (s *Server) Sessions() int {
	return int(s.sessions.Load())
}

func (s *Server) newTable() *dashboard.Table {
	return dashboard.NewTable(s.opts.TableOptions...)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Version": version.Version,
		"Server":  s.opts.Server,
		"Panels":  router.DefaultPanels(),
		"Columns": columnTitles(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  version.Version,
		"uptime":   time.Since(s.startTime).String(),
		"sessions": s.Sessions(),
	})
}

func (s *Server) handlePanels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": router.DefaultPanel,
		"panels":  router.DefaultPanels(),
	})
}

// handleDashboard runs one activation and returns the finished table.
// Failed requests leave empty cells; the response is still 200.
func (s *Server) handleDashboard(c *gin.Context) {
	table := s.newTable()
	act := dashboard.NewLoader(s.fetcher, table).LoadDeviceList(c.Request.Context())
	if err := act.Wait(c.Request.Context()); err != nil {
		return
	}
	c.JSON(http.StatusOK, newTableMessage(table))
}

func columnTitles() []string {
	titles := make([]string, 0, len(dashboard.Columns))
	for _, col := range dashboard.Columns {
		titles = append(titles, col.Title())
	}
	return titles
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("Web request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status_code", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
