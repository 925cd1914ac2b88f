// Package transport exposes the kernel syscalls to user programs over a
// Unix socket.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/robalyx/dmesg/internal/kernel"
	"go.uber.org/zap"
)

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 10 * time.Second
	ShutdownTimeout = 5 * time.Second
)

// maxRequestBody bounds request bodies; requests are tiny JSON objects.
const maxRequestBody = 4096

// Syscalls is the kernel surface served to user programs.
type Syscalls interface {
	SysDmesg(size int) ([]byte, error)
	SysDmesgToggle(class, duration int) error
}

// Server serves Syscalls over HTTP.
type Server struct {
	sys    Syscalls
	logger *zap.Logger
}

// NewServer creates a new server for the given syscalls.
func NewServer(sys Syscalls, logger *zap.Logger) *Server {
	return &Server{
		sys:    sys,
		logger: logger.Named("transport"),
	}
}

// Handler returns the HTTP handler with every syscall route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathDmesg, s.handleDmesg)
	mux.HandleFunc("POST "+PathDmesgToggle, s.handleToggle)

	return mux
}

// Serve listens on the Unix socket at path until ctx is cancelled. A stale
// socket file left by a previous run is removed first.
func (s *Server) Serve(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", path, err)
	}

	return s.ServeListener(ctx, listener)
}

// ServeListener serves on an existing listener until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Syscall server started", zap.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down syscall server: %w", err)
	}

	s.logger.Info("Syscall server stopped")

	return nil
}

func (s *Server) handleDmesg(w http.ResponseWriter, r *http.Request) {
	var req DmesgRequest
	if !s.decode(w, r, &req) {
		return
	}

	data, err := s.sys.SysDmesg(req.Size)
	if err != nil {
		switch {
		case errors.Is(err, kernel.ErrInvalidSize):
			s.writeError(w, http.StatusBadRequest, CodeInvalidArgument, err)
		default:
			s.logger.Error("dmesg syscall failed", zap.Int("size", req.Size), zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, CodeFault, err)
		}

		return
	}

	s.writeJSON(w, http.StatusOK, DmesgResponse{Data: data})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.sys.SysDmesgToggle(req.Class, req.Duration); err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidArgument, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON request body, writing a 400 response on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, err)
		return false
	}

	if err := sonic.Unmarshal(body, v); err != nil {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("malformed request: %w", err))
		return false
	}

	return true
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	s.writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		s.logger.Debug("Failed to write response", zap.Error(err))
	}
}
