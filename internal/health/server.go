package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"raqib/internal/domain"
	"raqib/internal/lexicon"
	"raqib/internal/metrics"
)

// Server exposes the liveness, readiness and metrics endpoints. It runs
// independently of the moderation pipeline so the process stays observable
// even when Telegram or the classifier is down.
type Server struct {
	host       string
	port       int
	classifier domain.Classifier
	lexicon    *lexicon.Lexicon
	logger     *slog.Logger
	server     *http.Server
}

type Config struct {
	Host       string
	Port       int
	Classifier domain.Classifier
	Lexicon    *lexicon.Lexicon
	Logger     *slog.Logger
}

func NewServer(cfg Config) *Server {
	return &Server{
		host:       cfg.Host,
		port:       cfg.Port,
		classifier: cfg.Classifier,
		lexicon:    cfg.Lexicon,
		logger:     cfg.Logger,
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/readyz", s.handleReadyz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("health server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("health server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleReadyz reports whether the pipeline can do useful work: the lexicon
// must be populated and the classifier reachable. A classifier outage is
// reported but does not fail readiness, since the lexicon keeps filtering.
func (s *Server) handleReadyz(c *gin.Context) {
	checks := gin.H{}
	ready := true

	if n := s.lexicon.Count(); n > 0 {
		checks["lexicon"] = fmt.Sprintf("ok (%d terms)", n)
	} else {
		checks["lexicon"] = "empty"
		ready = false
	}

	probeCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := s.classifier.Healthy(probeCtx); err != nil {
		checks["classifier"] = fmt.Sprintf("unreachable: %v", err)
	} else {
		checks["classifier"] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": ready, "checks": checks})
}
