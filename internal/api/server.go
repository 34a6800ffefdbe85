package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"

	"github.com/ppiankov/pricecmp/internal/catalog"
	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/logging"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/shoplist"
	"github.com/ppiankov/pricecmp/internal/validate"
	"github.com/ppiankov/pricecmp/internal/worker"
)

const (
	shutdownTimeout = 5 * time.Second
	pruneInterval   = time.Minute
	clientIdle      = 10 * time.Minute
)

// Server serves the price comparison API and the static web frontend
type Server struct {
	cfg        model.ServerConfig
	store      catalog.Store
	editor     *catalog.Editor
	list       *shoplist.List
	aggregator *compare.Aggregator
	validator  *validate.Validator
	limiter    *worker.Limiter
	log        *logging.Entry
	router     *gin.Engine
}

// New creates a server over store and list
func New(cfg *model.Config, store catalog.Store, list *shoplist.List, log *logging.Log) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		cfg:        cfg.Server,
		store:      store,
		editor:     catalog.NewEditor(store),
		list:       list,
		aggregator: compare.NewAggregator(cfg.Compare.Epsilon),
		validator:  validate.NewValidator(cfg.Limits.MaxText, cfg.Limits.MaxFilename),
		limiter:    worker.NewLimiter(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst),
		log:        log.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), cors(), s.rateLimit())

	r.GET("/", s.handleIndex)
	r.Static("/static", s.cfg.StaticDir)

	api := r.Group("/api")
	{
		api.GET("/db-files", s.handleDBFiles)
		api.GET("/db", s.handleDBGet)
		api.POST("/db/create", s.handleDBCreate)
		api.POST("/db/add", s.handleDBAdd)
		api.POST("/db/update", s.handleDBUpdate)
		api.POST("/db/delete", s.handleDBDelete)

		api.GET("/list", s.handleListGet)
		api.GET("/list/download", s.handleListDownload)
		api.POST("/list/add", s.handleListAdd)
		api.POST("/list/update", s.handleListUpdate)
		api.POST("/list/delete", s.handleListDelete)

		api.POST("/compare/single", s.handleCompareSingle)
		api.POST("/compare/list", s.handleCompareList)
	}

	r.NoRoute(func(c *gin.Context) {
		s.handleError(c, NewNotFoundError(fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path)))
	})
	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.File(filepath.Join(s.cfg.StaticDir, "index.html"))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// Concurrent connections are capped at MaxConnections.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go s.limiter.RunPruner(pruneCtx, pruneInterval, clientIdle)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.WithFields(logging.Fields{"addr": ln.Addr().String()}).Info("listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
