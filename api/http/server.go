package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"bitbucket.org/novatechnologies/marketview/api/http/handler"
	"bitbucket.org/novatechnologies/marketview/infra/metrics"
)

const headerRequestID = "X-Request-Id"

type Server struct {
	srv *http.Server
	log log.FieldLogger
}

func NewRouter(
	marketScreen handler.MarketScreen,
	coinScreen handler.CoinScreen,
	logger log.FieldLogger,
) *mux.Router {
	marketHandler := handler.NewMarketHandler(marketScreen, logger)
	coinHandler := handler.NewCoinHandler(coinScreen, logger)

	router := mux.NewRouter()
	router.Use(requestID, accessLog(logger))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/markets", marketHandler.GetMarkets).Methods(http.MethodGet)
	api.HandleFunc("/markets/refresh", marketHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/markets/focus", marketHandler.Focus).Methods(http.MethodPost)
	api.HandleFunc("/markets/blur", marketHandler.Blur).Methods(http.MethodPost)
	api.HandleFunc("/coins/{id}", coinHandler.GetCoin).Methods(http.MethodGet)
	api.HandleFunc("/coins", coinHandler.Close).Methods(http.MethodDelete)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return router
}

func NewServer(
	marketScreen handler.MarketScreen,
	coinScreen handler.CoinScreen,
	port int,
	logger log.FieldLogger,
) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(marketScreen, coinScreen, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		srv: srv,
		log: logger,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.srv.BaseContext = func(listener net.Listener) context.Context {
		return ctx
	}
	s.log.Infof("[*] Http server is started on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Infof("shutdown: %v", err)
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func accessLog(logger log.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			next.ServeHTTP(w, r)
			logger.
				WithField("method", r.Method).
				WithField("path", r.URL.Path).
				WithField("request_id", w.Header().Get(headerRequestID)).
				WithField("took", time.Since(started)).
				Debug("request served")
		})
	}
}
