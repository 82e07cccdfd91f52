package harvester

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server exposes the registered controllers and their run stats over HTTP.
type Server struct {
	logger      *zap.Logger
	controllers map[string]*Controller
	mu          sync.RWMutex
}

type ControllerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
	State  State  `json:"state"`

	Stats Stats `json:"stats"`
}

func NewServer(logger *zap.Logger) *Server {
	return &Server{
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

func (s *Server) Register(c *Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.controllers[c.ID()] = c
	s.logger.Info("controller registered",
		zap.String("harvest_id", c.ID()),
		zap.String("name", c.Name()),
		zap.String("state", string(c.State.Current())))
}

func (s *Server) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, exists := s.controllers[id]; exists {
		delete(s.controllers, id)
		s.logger.Info("controller unregistered",
			zap.String("harvest_id", id),
			zap.String("state", string(c.State.Current())))
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api/v1/harvesters", func(r chi.Router) {
		r.Get("/", s.listControllers)
		r.Get("/{id}", s.getController)
	})

	return r
}

func (s *Server) listControllers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	harvesters := make([]ControllerInfo, 0, len(s.controllers))
	for _, c := range s.controllers {
		harvesters = append(harvesters, ControllerInfo{
			ID:     c.ID(),
			Name:   c.Name(),
			Source: c.Source(),
			State:  c.State.Current(),
			Stats:  c.Stats(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"harvesters": harvesters,
		"count":      len(harvesters),
	})
}

func (s *Server) getController(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	c, exists := s.controllers[id]
	s.mu.RUnlock()

	if !exists {
		http.Error(w, "harvester not found", http.StatusNotFound)
		return
	}

	info := ControllerInfo{
		ID:     c.ID(),
		Name:   c.Name(),
		Source: c.Source(),
		State:  c.State.Current(),
		Stats:  c.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	s.logger.Info("starting harvester server", zap.String("addr", addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down harvester server")
		srv.Shutdown(context.Background())
	}()

	return srv.ListenAndServe()
}
