// Package server exposes site queries over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"osint-automater/internal/aggregator"
	"osint-automater/internal/catalog"
	"osint-automater/internal/models"
	"osint-automater/internal/reporter"
	"osint-automater/internal/target"
)

// Runner Executes site queries; satisfied by *collector.Engine
type Runner interface {
	ExecuteAll(ctx context.Context, targets []string, sites []models.SiteDefinition) []models.QueryResult
}

// Config Server settings
type Config struct {
	Mode  string // gin mode
	Dedup aggregator.DedupMode
}

// Server REST front end over a loaded catalog
type Server struct {
	router  *gin.Engine
	catalog *catalog.Catalog
	runner  Runner
	dedup   aggregator.DedupMode
	logger  logrus.FieldLogger
}

// New Builds the router
func New(cat *catalog.Catalog, runner Runner, logger logrus.FieldLogger, cfg Config) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Dedup == "" {
		cfg.Dedup = aggregator.DedupConsecutive
	}

	s := &Server{
		router:  gin.New(),
		catalog: cat,
		runner:  runner,
		dedup:   cfg.Dedup,
		logger:  logger,
	}

	s.router.Use(gin.Recovery(), s.requestLogger())
	s.router.GET("/health", s.health)
	s.router.GET("/sites", s.listSites)
	s.router.GET("/:site/:target", s.query)

	return s
}

// Handler Router for http.Server or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run Serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}).Info("request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sites": len(s.catalog.Sites)})
}

func (s *Server) listSites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sites": append(s.catalog.Names(), models.AllSources)})
}

// query Runs one site, a semicolon list of sites or allsources against one target.
// The response nests results as target -> source -> [{Type, Result}].
func (s *Server) query(c *gin.Context) {
	sources := catalog.ParseSources(c.Param("site"))
	sites := catalog.Filter(s.catalog.Sites, sources)
	if len(sites) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown site " + c.Param("site")})
		return
	}

	targets := target.ExpandAll([]string{c.Param("target")})
	if len(targets) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty target"})
		return
	}

	results := s.runner.ExecuteAll(c.Request.Context(), targets, sites)
	records := aggregator.Normalize(results, s.dedup)

	names := make([]string, len(sites))
	for i, site := range sites {
		names[i] = site.Name
	}

	grouped := reporter.Grouped(models.NewReport(records, names))
	for _, t := range targets {
		if _, ok := grouped[t]; !ok {
			grouped[t] = map[string][]models.SourceResult{}
		}
	}
	c.JSON(http.StatusOK, grouped)
}
