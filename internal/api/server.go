package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"weather-notifier/internal/notifier"
	"weather-notifier/internal/notify"
	"weather-notifier/internal/storage"
	"weather-notifier/internal/weather"

	"github.com/gin-gonic/gin"
)

// StatusSource is the read side of the notifier loop.
type StatusSource interface {
	Status() notifier.Status
	IsRunning() bool
}

// StateStore is the read side of the persisted notifier state.
type StateStore interface {
	GetState() (*storage.State, error)
}

type Server struct {
	router  *gin.Engine
	server  *http.Server
	loop    StatusSource
	store   StateStore
	address string
}

type ServerConfig struct {
	Address string
	Loop    StatusSource
	Store   StateStore
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		loop:    cfg.Loop,
		store:   cfg.Store,
		address: cfg.Address,
	}

	s.setupRoutes()
	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.GET("/status", s.statusHandler)
		api.GET("/report", s.reportHandler)
		api.GET("/state", s.stateHandler)
	}
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	log.Printf("API server starting on %s", s.address)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	st := s.loop.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"running":    s.loop.IsRunning(),
		"last_error": st.LastError,
		"timestamp":  time.Now(),
	})
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.loop.Status())
}

// reportHandler returns the latest report, falling back to the persisted one
// after a restart.
func (s *Server) reportHandler(c *gin.Context) {
	report := s.loop.Status().LastReport
	if report == nil && s.store != nil {
		st, err := s.store.GetState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if st != nil && !st.ObservedAt.IsZero() {
			report = st.Report()
		}
	}

	if report == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No data available yet",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":     report,
		"conditions": conditionNames(weather.Evaluate(report)),
		"message":    notify.Render(report),
	})
}

func (s *Server) stateHandler(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Database is disabled"})
		return
	}

	st, err := s.store.GetState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func conditionNames(conds []weather.Condition) []string {
	out := make([]string, 0, len(conds))
	for _, c := range conds {
		out = append(out, string(c))
	}
	return out
}
