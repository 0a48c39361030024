package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
)

// Server wraps http.Server with signal handling and ordered shutdown hooks.
// Hooks run after the listener has drained, in registration order.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
	hooks      []func(ctx context.Context)
}

func New(addr string, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
			ReadTimeout:       constants.ServerReadTimeout,
			WriteTimeout:      constants.ServerWriteTimeout,
			IdleTimeout:       constants.ServerIdleTimeout,
		},
		log: log,
	}
}

func (s *Server) OnShutdown(hook func(ctx context.Context)) {
	s.hooks = append(s.hooks, hook)
}

func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Infof("http server listening on %s", s.httpServer.Addr)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		s.log.Infof("received signal %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Errorf("http server shutdown: %v", err)
	}

	for _, hook := range s.hooks {
		hook(ctx)
	}

	s.log.Info("shutdown complete")

	return nil
}
