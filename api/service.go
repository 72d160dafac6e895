package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"LedgerSync/internal/logger"

	"go.uber.org/zap"
)

// GatewayService serves the HTTP API.
type GatewayService struct {
	config  map[string]interface{}
	handler http.Handler
	server  *http.Server
	addr    string
	errCh   chan error
	hooks   []func()
}

// NewGatewayService listens on config["port"] (or addr when set) and serves handler.
func NewGatewayService(cfg map[string]interface{}, port string, handler http.Handler) *GatewayService {
	if p, ok := cfg["port"]; ok {
		switch v := p.(type) {
		case int:
			port = fmt.Sprint(v)
		case string:
			if v != "" {
				port = v
			}
		}
	}
	return &GatewayService{
		config:  cfg,
		handler: handler,
		addr:    ":" + port,
		errCh:   make(chan error, 1),
	}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

// Start binds the port synchronously so a taken port fails startup, then
// serves in the background.
func (s *GatewayService) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	for _, fn := range s.hooks {
		s.server.RegisterOnShutdown(fn)
	}
	s.addr = ln.Addr().String()
	logger.L().Info("API gateway started", zap.String("addr", s.addr))
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("API gateway stopped unexpectedly", zap.Error(err))
			s.errCh <- err
		}
	}()
	return nil
}

func (s *GatewayService) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down gateway: %w", err)
	}
	return nil
}

// OnShutdown registers fn to run when shutdown begins, such as closing
// long-lived event streams. Call before Start.
func (s *GatewayService) OnShutdown(fn func()) {
	s.hooks = append(s.hooks, fn)
}

// Addr is the bound address once started.
func (s *GatewayService) Addr() string {
	return s.addr
}

// Err reports a serve failure after Start.
func (s *GatewayService) Err() <-chan error {
	return s.errCh
}
