package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"tutorbook/internal/auth"
	"tutorbook/internal/backend"
	applog "tutorbook/internal/log"
	"tutorbook/internal/middleware/ratelimit"
	"tutorbook/internal/middleware/security"
	"tutorbook/internal/middleware/trace"
	"tutorbook/internal/services"
)

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Auth        *auth.Provider
	Books       *services.Bookkeeping
	Dashboard   *services.Dashboard
	Ready       backend.ReadyFunc
	RateLimiter *ratelimit.Limiter
	Logger      *applog.Logger
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
}

type Server struct {
	http.Server
	auth      *auth.Provider
	books     *services.Bookkeeping
	dashboard *services.Dashboard
	ready     backend.ReadyFunc
	live      *liveHub
	tracer    *trace.Middleware
	logger    *slog.Logger
	proxies   []netip.Prefix

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}

	s := &Server{
		auth:      deps.Auth,
		books:     deps.Books,
		dashboard: deps.Dashboard,
		ready:     deps.Ready,
		live:      newLiveHub(deps.Dashboard, logger.Logger),
		logger:    logger.Logger,
		proxies:   deps.TrustedProxies,
	}
	s.tracer = trace.NewMiddleware(s.clientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.Handle("POST /api/auth/signout", s.requireUser(s.handleSignOut))

	mux.Handle("POST /api/payments", s.requireUser(s.handleCreatePayment))
	mux.Handle("POST /api/expenses", s.requireUser(s.handleCreateExpense))
	mux.Handle("GET /api/dashboard", s.requireUser(s.handleDashboard))
	mux.Handle("GET /api/chart", s.requireUser(s.handleChart))
	mux.Handle("GET /api/students/{name}/payments", s.requireUser(s.handleStudentPayments))
	mux.Handle("GET /api/students/{name}/invoice", s.requireUser(s.handleInvoice))
	mux.Handle("GET /api/students/{name}/invoice.xlsx", s.requireUser(s.handleInvoiceXLSX))
	mux.Handle("GET /api/students/{name}/whatsapp", s.requireUser(s.handleWhatsApp))
	mux.Handle("GET /ws", s.requireUser(s.handleLive))

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded", applog.FieldClientIP, s.clientIP(r))
		writeJSON(w, http.StatusTooManyRequests, ErrorBody{Error: "rate limit exceeded", Code: CodeRateLimited})
	}

	var handler http.Handler = mux
	handler = limiter.Middleware(s.clientIP, onLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown closes live connections before draining HTTP requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.live.closeAll()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics exposes request counters for logging at shutdown.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// clientIP is the connecting peer unless that peer is a trusted proxy, in
// which case X-Forwarded-For is walked from the right past trusted hops and
// X-Real-IP is the fallback.
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !s.trusted(peer) {
		return peer
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !s.trusted(hop) || i == 0 {
				return hop
			}
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	return peer
}

func (s *Server) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
