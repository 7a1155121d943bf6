package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satlayer/satlayer-restaking/logger"
)

const Namespace = "restaking"

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type Metrics interface {
	Start(ctx context.Context, reg prometheus.Gatherer) <-chan error
}

// Server exposes a gatherer over HTTP for scraping.
type Server struct {
	address string
	logger  logger.Logger
}

var _ Metrics = (*Server)(nil)

func NewServer(address string, logger logger.Logger) *Server {
	return &Server{address: address, logger: logger}
}

func (s *Server) handler(reg prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	return mux
}

// Start binds the address and scrapes reg on GET /metrics until ctx is done.
// At most one error is sent and the channel is closed once the listener is
// released, whether by shutdown or by failure.
func (s *Server) Start(ctx context.Context, reg prometheus.Gatherer) <-chan error {
	errChan := make(chan error, 1)

	l, err := net.Listen("tcp", s.address)
	if err != nil {
		errChan <- errorsmod.Wrapf(err, "metrics listen on %s", s.address)
		close(errChan)
		return errChan
	}
	srv := &http.Server{Handler: s.handler(reg), ReadHeaderTimeout: readHeaderTimeout}
	s.logger.Info("metrics listening", logger.WithField("address", l.Addr().String()))

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(l)
	}()

	go func() {
		defer close(errChan)
		select {
		case err := <-served:
			if !errors.Is(err, http.ErrServerClosed) {
				errChan <- errorsmod.Wrap(err, "metrics server")
			}
			return
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errChan <- errorsmod.Wrap(err, "metrics shutdown")
			return
		}
		s.logger.Debug("metrics stopped", logger.WithField("address", s.address))
	}()
	return errChan
}
