package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/soaringjerry/surveyd/internal/cache"
	"github.com/soaringjerry/surveyd/internal/logging"
	"github.com/soaringjerry/surveyd/internal/metrics"
	"github.com/soaringjerry/surveyd/internal/middleware"
	"github.com/soaringjerry/surveyd/internal/services"
)

const (
	surveyIDParam   = "surveyID"
	questionIDParam = "questionID"
	responseIDParam = "responseID"
)

// BuildInfo is reported by /version.
type BuildInfo struct {
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Config carries the process-scoped collaborators of the router.
type Config struct {
	Store             Store
	Cache             cache.Cache
	CachePrefix       string
	CacheTTL          time.Duration
	InvalidateOnWrite bool
	Auth              *middleware.Authenticator
	Logger            zerolog.Logger
	Metrics           *metrics.Metrics
	Gatherer          prometheus.Gatherer
	AllowedOrigins    []string
	Build             BuildInfo
}

type Router struct {
	cfg       Config
	store     Store
	cache     cache.Cache
	gens      *cache.Generations
	log       zerolog.Logger
	surveys   *services.SurveyService
	responses *services.ResponseService
	analytics *services.AnalyticsService
	exports   *services.ExportService
}

func NewRouter(cfg Config) *Router {
	if cfg.Cache == nil {
		cfg.Cache = cache.Noop{}
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = cache.DefaultPrefix
	}
	return &Router{
		cfg:       cfg,
		store:     cfg.Store,
		cache:     cfg.Cache,
		gens:      cache.NewGenerations(),
		log:       cfg.Logger,
		surveys:   services.NewSurveyService(cfg.Store),
		responses: services.NewResponseService(cfg.Store),
		analytics: services.NewAnalyticsService(cfg.Store),
		exports:   services.NewExportService(cfg.Store),
	}
}

// Handler builds the full middleware chain and route table.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP)
	r.Use(hlog.NewHandler(rt.log))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders, middleware.CORS(rt.cfg.AllowedOrigins))

	r.Get("/health", rt.handleHealth)
	r.Get("/version", rt.handleVersion)
	if rt.cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(rt.cfg.Gatherer))
	}

	generation := func(r *http.Request) uint64 {
		return rt.gens.Current(chi.URLParam(r, surveyIDParam))
	}
	resultCache := middleware.ResultCache(rt.cache, middleware.CacheOptions{
		Prefix:     rt.cfg.CachePrefix,
		TTL:        rt.cfg.CacheTTL,
		Logger:     logging.Component(rt.log, "result_cache"),
		Metrics:    rt.cfg.Metrics,
		Generation: generation,
	})

	r.Route("/api/surveys", func(r chi.Router) {
		r.Use(middleware.NoStore, rt.cfg.Auth.Authenticate, middleware.RequireAuth)
		r.Get("/", rt.handleListSurveys)
		r.With(middleware.RequireAdmin).Post("/", rt.handleCreateSurvey)

		r.Route("/{"+surveyIDParam+"}", func(r chi.Router) {
			r.Get("/", rt.handleGetSurvey)
			r.Post("/responses", rt.handleSubmitResponse)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSurveyAccess(rt.store, surveyIDParam))
				r.Put("/", rt.handleUpdateSurvey)
				r.Delete("/", rt.handleDeleteSurvey)
				r.Post("/questions", rt.handleAddQuestion)
				r.Put("/questions/{"+questionIDParam+"}", rt.handleUpdateQuestion)
				r.Delete("/questions/{"+questionIDParam+"}", rt.handleDeleteQuestion)
				r.Get("/responses", rt.handleListResponses)
				r.Get("/responses/{"+responseIDParam+"}", rt.handleGetResponse)
				r.With(resultCache).Get("/analytics", rt.handleAnalytics)
				r.Get("/export", rt.handleExport)
			})
		})
	})
	return r
}

// requestIDLogger copies chi's request id onto the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			log := zerolog.Ctx(r.Context())
			log.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// invalidate drops every cached result of one survey after a write. The
// generation moves first so in-flight reads do not store what they computed.
func (rt *Router) invalidate(ctx context.Context, surveyID string) {
	if !rt.cfg.InvalidateOnWrite {
		return
	}
	rt.gens.Bump(surveyID)
	n, err := rt.cache.DeletePrefix(ctx, cache.SurveyPrefix(rt.cfg.CachePrefix, surveyID))
	if err != nil {
		rt.log.Warn().Err(err).Str("survey_id", surveyID).Msg("cache invalidation failed")
		return
	}
	rt.cfg.Metrics.CacheEvicted(n)
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := rt.store.Ping(ctx); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("store ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": "surveyd"})
}

func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.cfg.Build)
}
