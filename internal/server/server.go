package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"betledger/internal/bet"
	"betledger/internal/config"
	"betledger/internal/logger"
	"betledger/internal/method"
)

// Store is the persistence the server needs. *db.Store satisfies it.
type Store interface {
	method.Backend
	ListBets(ctx context.Context) ([]bet.Bet, error)
	GetBet(ctx context.Context, id int64) (bet.Bet, error)
	CreateBet(ctx context.Context, f bet.Fields) (bet.Bet, error)
	UpdateBet(ctx context.Context, id int64, f bet.Fields) (bet.Bet, error)
	DeleteBet(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Server is the bet-tracking REST gateway.
type Server struct {
	store   Store
	methods *method.Registry
	metrics *Metrics
	cfg     config.ServerConfig
	log     *logrus.Entry
}

func New(store Store, cfg config.ServerConfig) *Server {
	return &Server{
		store:   store,
		methods: method.NewRegistry(store),
		metrics: NewMetrics(),
		cfg:     cfg,
		log:     logger.Component("server"),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(s.metrics.instrument)
	r.Use(chimiddleware.Recoverer)
	if d := s.cfg.RequestTimeout.Duration; d > 0 {
		r.Use(chimiddleware.Timeout(d))
	}

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/bets", func(r chi.Router) {
		r.Get("/", s.listBets)
		r.Post("/", s.createBet)
		r.Put("/{id}", s.updateBet)
		r.Delete("/{id}", s.deleteBet)
	})

	r.Route("/methods", func(r chi.Router) {
		r.Get("/", s.listMethods)
		r.Post("/", s.createMethod)
		r.Put("/{id}", s.updateMethod)
		r.Delete("/{id}", s.deleteMethod)
	})

	r.Get("/statistics", s.statistics)

	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("gateway shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
