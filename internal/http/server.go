package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/campus-catalog/internal/config"
	"github.com/Clark-Hu/campus-catalog/internal/domain"
	"github.com/Clark-Hu/campus-catalog/internal/ratelimit"
	"github.com/Clark-Hu/campus-catalog/internal/repository"
	"github.com/Clark-Hu/campus-catalog/internal/response"
	"github.com/Clark-Hu/campus-catalog/internal/weberr"
)

// CourseStore is the course persistence used by the handlers.
type CourseStore interface {
	Create(ctx context.Context, params repository.CourseCreateParams) (domain.Course, error)
	GetByID(ctx context.Context, id string) (domain.Course, error)
	List(ctx context.Context, filters repository.CourseListFilters) (repository.CourseListResult, error)
}

// EventStore is the event persistence used by the handlers.
type EventStore interface {
	Create(ctx context.Context, params repository.EventCreateParams) (domain.Event, error)
	GetByID(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context, filters repository.EventListFilters) (repository.EventListResult, error)
}

// RatingStore is the event rating persistence used by the handlers.
type RatingStore interface {
	Upsert(ctx context.Context, params repository.RatingUpsertParams) (domain.EventRating, bool, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.EventRating, error)
}

// Aggregator attaches mean ratings to events.
type Aggregator interface {
	CalculateAverageRating(ctx context.Context, events []domain.Event) ([]domain.RatedEvent, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type poolStats interface {
	Stats() *pgxpool.Stat
}

// Deps groups the collaborators a Server needs.
type Deps struct {
	Courses    CourseStore
	Events     EventStore
	Ratings    RatingStore
	Aggregator Aggregator
	Health     HealthChecker
	Limiter    *ratelimit.Limiter
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	deps    Deps
	errs    *weberr.Handler
	logger  logrus.FieldLogger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLimiter(cfg.RateLimitBurst, 10*time.Minute, cfg.RateLimitRPS)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		errs:   weberr.NewHandler(logger),
		logger: logger,
		router: r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	h := s.errs.Wrap
	s.router.NotFound(h(func(w http.ResponseWriter, r *http.Request) error {
		return weberr.NotFound("Route not found")
	}))
	s.router.MethodNotAllowed(h(func(w http.ResponseWriter, r *http.Request) error {
		return weberr.New(http.StatusMethodNotAllowed, "Method not allowed")
	}))

	s.router.Get("/healthz", h(s.handleHealthz))
	s.router.Route("/courses", func(r chi.Router) {
		r.Get("/", h(s.handleListCourses))
		r.Post("/", h(s.handleCreateCourse))
		r.Get("/{id}", h(s.handleGetCourse))
	})
	s.router.Route("/events", func(r chi.Router) {
		r.Get("/", h(s.handleListEvents))
		r.Post("/", h(s.handleCreateEvent))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h(s.handleGetEvent))
			r.Get("/rating", h(s.handleGetEventRating))
			r.With(s.deps.Limiter.Middleware(raterKey, s.errs.Handle)).
				Post("/ratings", h(s.handleSubmitRating))
		})
	})
}

// ServeHTTP lets the server be mounted or exercised directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start boots the HTTP server and blocks until ctx is done or serving fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	go s.deps.Limiter.Run(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.httpSrv.Addr).Info("http: listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.deps.Health == nil {
		return weberr.New(http.StatusServiceUnavailable, "Service unavailable")
	}
	if err := s.deps.Health.HealthCheck(ctx); err != nil {
		return weberr.Wrap(err, http.StatusServiceUnavailable, "Service unavailable")
	}

	data := map[string]any{"database": "up"}
	if sp, ok := s.deps.Health.(poolStats); ok {
		if st := sp.Stats(); st != nil {
			data["pool"] = map[string]int32{
				"total":    st.TotalConns(),
				"idle":     st.IdleConns(),
				"acquired": st.AcquiredConns(),
			}
		}
	}
	return s.respond(w, http.StatusOK, data, "ok")
}

// respond writes the envelope and logs encoding failures.
func (s *Server) respond(w http.ResponseWriter, status int, data any, message string) error {
	if err := response.Format(w, status, data, message); err != nil {
		s.logger.WithError(err).Warn("http: failed to write response")
	}
	return nil
}
