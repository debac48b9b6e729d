// Package server implements the TCP connection dispatcher shared by the
// backend stores: it accepts connections, reads framed requests, dispatches
// them to a fixed action table and writes framed responses back.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"emarket/internal/domain"
	"emarket/internal/observability"
	"emarket/internal/protocol"
)

// HandlerFunc handles one decoded request. The returned value becomes the
// response data; the returned error is mapped onto a wire error code.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Mux is the closed action table for one store. Unknown actions fall through
// to an UnknownAction response; they never tear the connection down.
type Mux map[protocol.Action]HandlerFunc

// Server serves one store's action table over framed TCP. Identity flows via
// session tokens inside requests, so connections carry no state of their own
// and many requests may execute concurrently against the shared store.
type Server struct {
	name     string
	addr     string
	mux      Mux
	maxFrame int
	limiter  *RateLimiter
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMaxFrameBytes overrides the maximum accepted frame payload size.
func WithMaxFrameBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxFrame = n
		}
	}
}

// WithRateLimiter applies per-client request rate limiting.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// New creates a dispatcher for one store. The name labels logs and metrics.
func New(name, addr string, mux Mux, opts ...Option) *Server {
	s := &Server{
		name:     name,
		addr:     addr,
		mux:      mux,
		maxFrame: protocol.DefaultMaxFrameBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe listens on the configured address and serves until the
// context is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until the context is canceled, then
// closes the listener and waits for in-flight connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	slog.Info("store listening",
		slog.String("store", s.name),
		slog.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			slog.Warn("accept failed", slog.String("error", err.Error()))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// serveConn runs one connection's read/dispatch/write loop. A handler error
// becomes an ok:false response and the loop continues; only framing errors
// and peer closes end it.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	observability.ConnectionsActive.WithLabelValues(s.name).Inc()
	defer observability.ConnectionsActive.WithLabelValues(s.name).Dec()

	ctx = observability.WithConnID(ctx, uuid.NewString()[:8])
	log := observability.FromContext(ctx)
	log.Debug("client connected", slog.String("remote_addr", conn.RemoteAddr().String()))

	reader := bufio.NewReader(conn)
	for {
		var req protocol.Request
		if err := protocol.Decode(reader, s.maxFrame, &req); err != nil {
			if err == io.EOF {
				log.Debug("client disconnected")
				return
			}
			if errors.Is(err, protocol.ErrFraming) {
				observability.FramesRejected.WithLabelValues(s.name).Inc()
				log.Warn("closing connection on framing error", slog.String("error", err.Error()))
				// Best effort: the peer may already be gone.
				_ = protocol.Encode(conn, protocol.Err("", protocol.CodeFramingError))
			}
			return
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, remoteIP(conn)); err != nil {
				return
			}
		}

		resp := s.dispatch(observability.WithReqID(ctx, req.ReqID), &req)
		if err := protocol.Encode(conn, resp); err != nil {
			// Response to a closed connection is dropped, not retried.
			log.Debug("write failed", slog.String("error", err.Error()))
			return
		}
	}
}

// dispatch resolves the action and invokes its handler. Every outcome,
// including unknown actions and handler panics, produces a response.
func (s *Server) dispatch(ctx context.Context, req *protocol.Request) protocol.Response {
	start := time.Now()
	action := protocol.NormalizeAction(req.Action)

	code := "ok"
	label := string(action)
	var resp protocol.Response

	h, known := s.mux[action]
	switch {
	case !known:
		code = protocol.CodeUnknownAction
		label = "unknown"
		resp = protocol.Err(req.ReqID, code)
	default:
		out, err := s.invoke(ctx, h, req.Data)
		if err != nil {
			code = errorCode(err)
			observability.FromContext(ctx).Debug("request failed",
				slog.String("action", label),
				slog.String("code", code),
				slog.String("error", err.Error()))
			resp = protocol.Err(req.ReqID, code)
		} else {
			resp = protocol.OK(req.ReqID, out)
		}
	}

	elapsed := time.Since(start).Seconds()
	observability.RequestDuration.WithLabelValues(s.name, label, code).Observe(elapsed)
	observability.RequestsTotal.WithLabelValues(s.name, label, code).Inc()
	return resp
}

// invoke runs the handler, converting a panic into an error so one bad
// request never takes the process down.
func (s *Server) invoke(ctx context.Context, h HandlerFunc, data json.RawMessage) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			observability.FromContext(ctx).Error("handler panic", slog.Any("panic", r))
			out, err = nil, fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, data)
}

// errorCode maps domain errors onto the closed set of wire error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return protocol.CodeValidationError
	case errors.Is(err, domain.ErrSessionInvalid):
		return protocol.CodeSessionInvalid
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountExists),
		errors.Is(err, domain.ErrRoleMismatch),
		errors.Is(err, domain.ErrNotItemOwner):
		return protocol.CodeAuthError
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrNotInCart),
		errors.Is(err, domain.ErrSavedCartNotFound),
		errors.Is(err, domain.ErrSellerNotFound):
		return protocol.CodeNotFound
	case errors.Is(err, domain.ErrNotImplemented):
		return protocol.CodeNotImplemented
	default:
		return protocol.CodeInternalError
	}
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
