package rpc

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"folio/explorer"
	"folio/native/comptroller"
	"folio/native/fund"
	"folio/native/oracle"
)

// FundReader is the read surface of the fund engine served over HTTP.
type FundReader interface {
	Fund(id common.Hash) (*fund.Record, error)
	FundIDs() ([]common.Hash, error)
	GrossAssetValue(id common.Hash) (*big.Int, error)
	ReserveRatio(id common.Hash) (*big.Int, error)
}

// ComptrollerReader exposes the protocol configuration.
type ComptrollerReader interface {
	Config() (*comptroller.Config, error)
}

// OracleReader exposes price-feed health.
type OracleReader interface {
	Health() []oracle.FeedHealth
}

// EventReader serves indexed protocol events.
type EventReader interface {
	EventsByFund(fund string, limit int) ([]explorer.EventRecord, error)
}

// ServerConfig bounds the query server's listener and throttling.
type ServerConfig struct {
	Address        string
	RatePerSecond  float64
	Burst          int
	RequestTimeout time.Duration
}

// Server is the read-only HTTP query surface. All state mutations happen
// through the engines directly; the server never writes.
type Server struct {
	cfg     ServerConfig
	log     *slog.Logger
	funds   FundReader
	control ComptrollerReader
	oracle  OracleReader
	events  EventReader

	http *http.Server
}

// NewServer wires the query routes over the supplied readers. Any reader may
// be nil, in which case its routes respond 503.
func NewServer(cfg ServerConfig, log *slog.Logger, funds FundReader, control ComptrollerReader, oracleReader OracleReader, events EventReader) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 50
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 100
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		log:     log,
		funds:   funds,
		control: control,
		oracle:  oracleReader,
		events:  events,
	}
	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the route tree. Exposed separately so tests can mount it on
// an httptest server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.throttle)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/funds", s.handleFundList)
		r.Get("/funds/{id}", s.handleFund)
		r.Get("/funds/{id}/assets", s.handleFundAssets)
		r.Get("/funds/{id}/events", s.handleFundEvents)
		r.Get("/comptroller", s.handleComptroller)
		r.Get("/oracle/feeds", s.handleFeeds)
	})
	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("query server listening", "address", s.cfg.Address)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
