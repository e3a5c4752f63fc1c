package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/wxsummary/internal/log"
	"github.com/chrissnell/wxsummary/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	stations   map[string]config.StationData
	defaultStn string
	deps       Deps
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, deps Deps, logger *zap.SugaredLogger) (*Controller, error) {
	if deps.Pipeline == nil {
		return nil, errors.New("REST server requires a pipeline")
	}
	if logger == nil {
		logger = log.GetSugaredLogger()
	}

	def, ok := cfg.DefaultStation()
	if !ok {
		return nil, errors.New("no stations configured - at least one station must be configured for the REST server")
	}

	rc := cfg.RESTServer
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = config.DefaultListenAddr
	}
	if rc.Port == 0 {
		logger.Infof("rest.port not provided; defaulting to %d", config.DefaultPort)
		rc.Port = config.DefaultPort
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		stations:   make(map[string]config.StationData, len(cfg.Stations)),
		defaultStn: def.Code,
		deps:       deps,
		logger:     logger,
	}
	for _, s := range cfg.Stations {
		ctrl.stations[s.Code] = s
	}

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.loggingMiddleware)
	// Middleware does not run for method mismatches on the root router.
	router.MethodNotAllowedHandler = c.loggingMiddleware(http.HandlerFunc(c.methodNotAllowed))

	router.HandleFunc("/healthz", c.handlers.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(c.stationMiddleware)
	// Without its own handler a subrouter reports a method mismatch as 404.
	// The root middleware still wraps this one.
	api.MethodNotAllowedHandler = http.HandlerFunc(c.methodNotAllowed)

	api.HandleFunc("/hourly/{start}/{end}", c.handlers.GetHourly).Methods(http.MethodGet)
	api.HandleFunc("/daily/{start}/{end}", c.handlers.GetDaily).Methods(http.MethodGet)
	api.HandleFunc("/monthly/{year:[0-9]+}/{month:[0-9]+}", c.handlers.GetMonthly).Methods(http.MethodGet)
	api.HandleFunc("/yearly/{year:[0-9]+}", c.handlers.GetYearly).Methods(http.MethodGet)
	api.HandleFunc("/yearly/{year:[0-9]+}/months", c.handlers.GetYearMonths).Methods(http.MethodGet)

	api.HandleFunc("/populate/period/{start}/{end}", c.handlers.PopulatePeriod).Methods(http.MethodPost)
	api.HandleFunc("/populate/month/{year:[0-9]+}/{month:[0-9]+}", c.handlers.PopulateMonth).Methods(http.MethodPost)
	api.HandleFunc("/populate/year/{year:[0-9]+}", c.handlers.PopulateYear).Methods(http.MethodPost)
	api.HandleFunc("/populate/runs", c.handlers.ListRuns).Methods(http.MethodGet)

	return router
}

func (c *Controller) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	c.handlers.formatter.WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
		fmt.Sprintf("%s is not allowed on %s", r.Method, r.URL.Path))
}

// statusWriter records the status code and body size written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// loggingMiddleware writes one access-log line per request.
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		log.LogHTTPRequest(log.HTTPLogEntry{
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     sw.status,
			Duration:   time.Since(start),
			Size:       sw.size,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
			Station:    r.URL.Query().Get("station"),
		})
	})
}

// stationMiddleware resolves the ?station= parameter against the configured
// stations and stores the code in the request context.
func (c *Controller) stationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("station")
		if code == "" {
			code = c.defaultStn
		}
		if _, ok := c.stations[code]; !ok {
			c.handlers.formatter.WriteError(w, r, http.StatusBadRequest, "unknown_station",
				fmt.Sprintf("station %q is not configured", code))
			return
		}

		ctx := context.WithValue(r.Context(), stationContextKey, code)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func stationFromContext(r *http.Request) string {
	code, _ := r.Context().Value(stationContextKey).(string)
	return code
}
