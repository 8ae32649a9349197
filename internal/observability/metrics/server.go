package metrics

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	hpprof "net/http/pprof"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rtsup "weatherbot/internal/runtime/supervisor"
	"weatherbot/pkg/logx"
)

// ServerConfig controls the observability listener.
//
// A non-loopback Addr requires Token; requests then need
// "Authorization: Bearer <token>" or "?token=<token>".
type ServerConfig struct {
	Addr  string
	Token string
}

// HealthFunc reports readiness for /healthz. A nil HealthFunc is always
// healthy.
type HealthFunc func(ctx context.Context) error

// StatusFunc returns a JSON-encodable view of runtime state for /status.
// A nil StatusFunc leaves the route unregistered.
type StatusFunc func(ctx context.Context) any

type Server struct {
	cfg    ServerConfig
	m      *Metrics
	health HealthFunc
	status StatusFunc
	log    logx.Logger

	mu  sync.Mutex
	sup *rtsup.Supervisor
	srv *http.Server
}

func NewServer(cfg ServerConfig, m *Metrics, health HealthFunc, status StatusFunc, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{cfg: cfg, m: m, health: health, status: status, log: log.With(logx.String("comp", "metrics.http"))}
}

// Handler builds the routes: /metrics, /healthz, /status and /debug/pprof/*.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.auth)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if s.health != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := s.health(ctx); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})

	if s.status != nil {
		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(s.status(req.Context())); err != nil {
				s.log.Warn("encode status failed", logx.Err(err))
			}
		})
	}

	if reg := s.m.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	r.Route("/debug/pprof", func(r chi.Router) {
		r.HandleFunc("/", hpprof.Index)
		r.HandleFunc("/cmdline", hpprof.Cmdline)
		r.HandleFunc("/profile", hpprof.Profile)
		r.HandleFunc("/symbol", hpprof.Symbol)
		r.HandleFunc("/trace", hpprof.Trace)
		r.HandleFunc("/{name}", hpprof.Index)
	})
	return r
}

func (s *Server) auth(next http.Handler) http.Handler {
	tok := strings.TrimSpace(s.cfg.Token)
	if tok == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "" {
			if tokenEqual(got, tok) {
				next.ServeHTTP(w, r)
				return
			}
			unauthorized(w)
			return
		}
		const p = "Bearer "
		if ah := r.Header.Get("Authorization"); strings.HasPrefix(ah, p) && tokenEqual(strings.TrimSpace(strings.TrimPrefix(ah, p)), tok) {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w)
	})
}

func tokenEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// Start serves in the background and restarts the listener if it fails.
// It refuses a non-loopback address without a token.
func (s *Server) Start(ctx context.Context) error {
	addr := strings.TrimSpace(s.cfg.Addr)
	if addr == "" {
		addr = "127.0.0.1:9090"
	}
	if s.cfg.Token == "" && !isLoopbackAddr(addr) {
		return errors.New("metrics: non-loopback addr requires a token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil {
		return nil
	}
	s.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(s.log), rtsup.WithCancelOnError(false))
	s.sup.GoRestart("http.serve", func(c context.Context) error {
		return s.serveOnce(c, addr)
	}, rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	return nil
}

func (s *Server) serveOnce(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(cctx)
	}()

	s.log.Info("metrics server started", logx.String("addr", ln.Addr().String()), logx.Bool("token_set", s.cfg.Token != ""))
	err = srv.Serve(ln)
	if ctx.Err() != nil {
		return context.Canceled
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return errors.New("metrics server exited unexpectedly")
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	sup, srv := s.sup, s.srv
	s.sup, s.srv = nil, nil
	s.mu.Unlock()
	if sup == nil {
		return nil
	}
	if srv != nil {
		_ = srv.Shutdown(ctx)
	}
	return sup.Stop(ctx)
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	host = strings.Trim(host, "[]")
	if host == "" {
		// ":9090" binds every interface
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
