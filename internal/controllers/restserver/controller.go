// Package restserver serves the normalized sensor table, its filter options
// and filtered views to dashboard front-ends.
package restserver

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/chrissnell/tankwatch/internal/log"
	"github.com/chrissnell/tankwatch/internal/memo"
	"github.com/chrissnell/tankwatch/internal/pipeline"
	"github.com/chrissnell/tankwatch/internal/sources"
	"github.com/chrissnell/tankwatch/pkg/config"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	loader       sources.Loader
	Server       http.Server
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller.  Every request runs
// the pipeline against loader from scratch.
func NewController(ctx context.Context, wg *sync.WaitGroup, sc config.ServerData, loader sources.Loader, logger *zap.SugaredLogger) (*Controller, error) {
	if loader == nil {
		return nil, fmt.Errorf("REST server requires a sensor data source")
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: sc,
		loader:       loader,
		logger:       logger.Named("restserver"),
	}

	if sc.ListenAddr == "" {
		ctrl.logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		sc.ListenAddr = "0.0.0.0"
	}
	if sc.Port == 0 {
		ctrl.logger.Info("server.port not provided; defaulting to 8080")
		sc.Port = 8080
	}
	ctrl.serverConfig = sc

	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.Handler()

	return ctrl, nil
}

// newRun performs one pipeline run with its own memo cache.
func (c *Controller) newRun(ctx context.Context) (*pipeline.Run, error) {
	return pipeline.New(c.loader, memo.New(), c.logger).Run(ctx)
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infow("Starting REST server", "addr", c.Server.Addr, "source", c.loader.Source())
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.serverConfig.Cert != "" && c.serverConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.serverConfig.Cert, c.serverConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// Handler returns the full middleware chain: CORS, request logging, auth
// and the router.
func (c *Controller) Handler() http.Handler {
	router := c.setupRouter()

	origins := c.serverConfig.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return corsHandler.Handler(log.HTTPMiddleware(c.logger)(router))
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/status", c.handlers.GetStatus).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(c.authMiddleware)
	api.HandleFunc("/readings", c.handlers.GetReadings).Methods(http.MethodGet)
	api.HandleFunc("/options", c.handlers.GetOptions).Methods(http.MethodGet)
	api.HandleFunc("/filter", c.handlers.GetFilter).Methods(http.MethodGet)
	api.HandleFunc("/summary", c.handlers.GetSummary).Methods(http.MethodGet)

	return router
}

// authMiddleware requires "Authorization: Bearer <token>" when an auth token
// is configured.  With no token configured the API is open.
func (c *Controller) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := c.serverConfig.AuthToken
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		presented, found := strings.CutPrefix(authHeader, "Bearer ")
		if found && subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
			next.ServeHTTP(w, r)
			return
		}

		c.logger.Debugf("Auth failed for %s", r.URL.Path)
		c.handlers.formatter.WriteError(w, r, http.StatusUnauthorized, "authentication required")
	})
}
