package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liveserve-dev/liveserve/internal/config"
	"github.com/liveserve-dev/liveserve/internal/errors"
	"github.com/liveserve-dev/liveserve/internal/middleware"
	"github.com/liveserve-dev/liveserve/internal/static"
	"github.com/liveserve-dev/liveserve/internal/watcher"
)

// shutdownTimeout bounds graceful listener shutdown.
const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Config is the resolved configuration. Required.
	Config *config.Config

	// Logger receives server diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// OnReload, when set, is called after every reload broadcast with the
	// number of clients reached. The CLI uses it for console output.
	OnReload func(clients int)
}

// Server ties together the static responder, the reload channel, the
// trigger surface, and the optional embedded file watcher.
type Server struct {
	config *config.Config
	log    *slog.Logger

	reload  *ReloadServer
	static  *static.Handler
	watcher *watcher.Watcher

	onReload func(int)

	mu            sync.Mutex
	running       bool
	addr          net.Addr
	httpServer    *http.Server
	wsServer      *http.Server
	triggerServer *http.Server
}

// New creates a server for the given options. Start must be called to
// begin serving.
func New(opts Options) *Server {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		config:   cfg,
		log:      log,
		reload:   NewReloadServer(log),
		onReload: opts.OnReload,
		static: static.NewHandler(static.Options{
			Root:         cfg.RootPath(),
			Index:        config.DefaultIndexFile,
			InjectScript: clientScript(cfg.Server.WSPort),
			Logger:       log,
		}),
	}

	if cfg.Watch.Enabled {
		s.watcher = watcher.New(watcher.Config{
			Paths:    cfg.WatchPaths(),
			Ignore:   append(append([]string{}, watcher.DefaultIgnore...), cfg.Watch.Ignore...),
			Debounce: cfg.Debounce(),
			Logger:   log,
		})
		s.watcher.OnChange(s.handleChanges)
	}

	return s
}

// Handler returns the main listener's handler: the reload endpoint plus
// the static responder for everything else.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Prometheus())
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(r *http.Request) bool {
		// Websocket connections are long-lived; a per-request span for
		// them would stay open for the life of the browser tab.
		return r.URL.Path != ReloadPath
	})))

	r.Get(ReloadPath, s.reload.HandleWebSocket)
	r.Handle("/*", s.static)

	return r
}

// WSHandler returns the handler for the dedicated websocket listener.
// It accepts connections both at the reload path and at the root, so
// clients written against either form work.
func (s *Server) WSHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/", s.reload.HandleWebSocket)
	r.Get(ReloadPath, s.reload.HandleWebSocket)
	return r
}

// TriggerHandler returns the handler for the localhost-only trigger
// listener: the reload trigger, a health probe, and the metrics endpoint.
func (s *Server) TriggerHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Post("/reload", func(w http.ResponseWriter, _ *http.Request) {
		s.Trigger()
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Trigger fires exactly one reload broadcast. Safe to call concurrently
// with in-flight requests and other triggers; a trigger with no connected
// clients is a successful no-op.
func (s *Server) Trigger() int {
	n := s.reload.NotifyReload()
	s.log.Info("reload triggered", "clients", n)
	if s.onReload != nil {
		s.onReload(n)
	}
	return n
}

// handleChanges receives debounced batches from the embedded watcher.
// A batch of stylesheet-only changes hot-swaps CSS; anything else
// triggers a full reload.
func (s *Server) handleChanges(changes []watcher.Change) {
	cssOnly := true
	cssFile := ""
	for _, c := range changes {
		s.log.Info("file changed", "path", c.Path)
		if c.Type == watcher.ChangeCSS {
			cssFile = c.Path
		} else {
			cssOnly = false
		}
	}

	if cssOnly && cssFile != "" {
		n := s.reload.NotifyCSS(cssFile)
		s.log.Info("css reload triggered", "clients", n)
		if s.onReload != nil {
			s.onReload(n)
		}
		return
	}

	s.Trigger()
}

// ClientCount returns the number of connected reload clients.
func (s *Server) ClientCount() int {
	return s.reload.ClientCount()
}

// Addr returns the main listener's address once Start has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start binds all listeners and serves until the context is canceled or a
// listener fails. Bind failures are fatal and reported before any traffic
// is accepted.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		s.setStopped()
		return errors.New("E001").
			WithDetail("Cannot listen on " + s.config.Address()).
			WithSuggestion("Pick a different port with --port").
			Wrap(err)
	}

	var wsLn net.Listener
	if addr := s.config.WSAddress(); addr != "" {
		wsLn, err = net.Listen("tcp", addr)
		if err != nil {
			ln.Close()
			s.setStopped()
			return errors.New("E002").
				WithDetail("Cannot listen on " + addr).
				WithSuggestion("Pick a different port with --ws-port").
				Wrap(err)
		}
	}

	trigLn, err := net.Listen("tcp", s.config.TriggerAddress())
	if err != nil {
		ln.Close()
		if wsLn != nil {
			wsLn.Close()
		}
		s.setStopped()
		return errors.New("E003").
			WithDetail("Cannot listen on " + s.config.TriggerAddress()).
			WithSuggestion("Pick a different port with --trigger-port").
			Wrap(err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.httpServer = &http.Server{Handler: s.Handler()}
	s.triggerServer = &http.Server{Handler: s.TriggerHandler()}
	if wsLn != nil {
		s.wsServer = &http.Server{Handler: s.WSHandler()}
	}
	s.mu.Unlock()

	if s.watcher != nil {
		go func() {
			if err := s.watcher.Start(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("watcher stopped", "error", errors.FromError(err, "E050"))
			}
		}()
	}

	errCh := make(chan error, 3)
	serve := func(srv *http.Server, ln net.Listener) {
		go func() {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				errCh <- err
				return
			}
			errCh <- nil
		}()
	}
	serve(s.httpServer, ln)
	serve(s.triggerServer, trigLn)
	if s.wsServer != nil {
		serve(s.wsServer, wsLn)
	}

	s.log.Info("server running",
		"addr", s.addr.String(),
		"trigger", trigLn.Addr().String(),
		"root", s.config.RootPath(),
		"watch", s.watcher != nil)

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		if err != nil {
			return errors.FromError(err, "E001")
		}
		return nil
	}
}

// Stop gracefully shuts down all listeners and disconnects reload clients.
// Stopping a server that is not running is a no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	httpSrv, wsSrv, trigSrv := s.httpServer, s.wsServer, s.triggerServer
	s.mu.Unlock()

	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.reload.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range []*http.Server{httpSrv, wsSrv, trigSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
		}
	}
}

// setStopped clears the running flag after a failed bind.
func (s *Server) setStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
