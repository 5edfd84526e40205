package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/livecast/relay/internal/admission"
	"github.com/livecast/relay/internal/config"
	"github.com/livecast/relay/internal/live"
	"github.com/livecast/relay/internal/metrics"
	"github.com/livecast/relay/internal/relay"
)

// Server carries the relay's external surface: the push channel, the pull
// endpoint, and the metrics scrape handler.
type Server struct {
	cfg      *config.Config
	registry *relay.Registry
	fanout   *relay.Fanout
	cursors  *relay.CursorTracker
	guard    admission.Guard
	log      zerolog.Logger

	allowedOrigins map[string]bool
	allowedHosts   map[string]bool

	proc *process.Process

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewServer(cfg *config.Config, registry *relay.Registry, fanout *relay.Fanout, cursors *relay.CursorTracker, log zerolog.Logger) *Server {
	s := &Server{
		cfg:            cfg,
		registry:       registry,
		fanout:         fanout,
		cursors:        cursors,
		log:            log,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		clients:        make(map[*client]struct{}),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}

	return s
}

// SetGuard configures the admission guard consulted at subscribe time.
// Must be called before SetupRoutes.
func (s *Server) SetGuard(g admission.Guard) {
	s.guard = g
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/events", s.handleEvents)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
}

// ConnSnapshot reports current push-session counts for the admission guard.
func (s *Server) ConnSnapshot(ip string) (total, perIP int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if c.remoteIP == ip {
			perIP++
		}
	}
	return len(s.clients), perIP
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("ws upgrade failed")
		return
	}

	c := newClient(conn, r.RemoteAddr)
	s.addClient(c)
	s.log.Debug().Str("client_id", c.id).Str("remote", r.RemoteAddr).Msg("push session opened")

	// Block until the session ends so the request context stays valid for
	// upstream acquisition triggered by subscribe messages.
	s.readLoop(c, r)
}

func (s *Server) readLoop(c *client, r *http.Request) {
	defer func() {
		s.removeClient(c)
		s.log.Debug().Str("client_id", c.id).Msg("push session closed")
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		if in.Type != MsgSubscribe {
			continue
		}
		var p SubscribePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.StreamerID == "" {
			_ = c.Deliver(MsgDisconnected, relay.DisconnectNotice{Reason: "subscribe requires a streamerId"})
			continue
		}
		s.subscribe(r, c, p)
	}
}

// subscribe admits, acquires the upstream, and joins the client to the
// streamer's fan-out set. Re-subscribing moves the client; it is never in
// two sets at once.
func (s *Server) subscribe(r *http.Request, c *client, p SubscribePayload) {
	if s.cfg.Admission.Enabled && s.guard != nil {
		blocked := s.guard.IsBlocked(admission.ConnContext{
			RemoteAddr: r.RemoteAddr,
			Origin:     r.Header.Get("Origin"),
		})
		if blocked {
			_ = c.Deliver(MsgDisconnected, relay.DisconnectNotice{
				Reason: "connection limit reached, try again later (abuse protection)",
			})
			return
		}
	}

	sess, err := s.registry.GetOrCreate(r.Context(), p.StreamerID, p.Options)
	if err != nil {
		_ = c.Deliver(MsgDisconnected, relay.DisconnectNotice{Reason: err.Error()})
		return
	}

	s.fanout.Join(p.StreamerID, c)
	_ = c.Deliver(MsgConnected, sess.State)
	s.log.Info().Str("client_id", c.id).Str("streamer_id", p.StreamerID).Msg("subscribed")
}

// handleEvents is the pull/poll fallback:
// GET /events?streamerId=&requesterId=.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	streamerID := r.URL.Query().Get("streamerId")
	requesterID := r.URL.Query().Get("requesterId")
	if streamerID == "" || requesterID == "" {
		http.Error(w, "streamerId and requesterId query parameters are required", http.StatusBadRequest)
		return
	}

	metrics.Polls.Inc()
	w.Header().Set("Content-Type", "application/json")

	// A poll can itself establish the upstream connection.
	sess, err := s.registry.GetOrCreate(r.Context(), streamerID, live.Options{})
	if err != nil {
		writeJSON(w, PollResponse{Events: []PollEvent{}, Message: err.Error()})
		return
	}

	since, isNew := s.cursors.Register(requesterID)
	if isNew {
		s.cursors.Advance(requesterID)
		writeJSON(w, PollResponse{
			Events:  []PollEvent{},
			Message: fmt.Sprintf("requester %q registered; events will accumulate from now on", requesterID),
		})
		return
	}

	buffered := sess.Buffer.Query(since)
	s.cursors.Advance(requesterID)

	events := make([]PollEvent, 0, len(buffered))
	for _, env := range buffered {
		events = append(events, PollEvent{Type: string(env.Kind), Data: env.Data})
	}
	writeJSON(w, PollResponse{Events: events})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"status":    "ok",
		"streamers": s.registry.Count(),
		"clients":   s.clientCount(),
	})
}

// RunStatistics broadcasts a statistic message to every push session on the
// configured interval until ctx is cancelled.
func (s *Server) RunStatistics(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Relay.StatisticInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcastAll(MsgStatistic, s.statistic())
		}
	}
}

func (s *Server) statistic() StatisticPayload {
	p := StatisticPayload{
		GlobalConnectionCount: s.clientCount(),
		StreamerCount:         s.registry.Count(),
	}
	if s.proc != nil {
		if cpu, err := s.proc.Percent(0); err == nil {
			p.CPUPercent = cpu
		}
		if mem, err := s.proc.MemoryInfo(); err == nil {
			p.MemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
	}
	return p
}

func (s *Server) broadcastAll(kind string, data any) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		_ = c.Deliver(kind, data)
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	metrics.PushSubscribers.Inc()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.fanout.Leave(c)
	c.close()
	metrics.PushSubscribers.Dec()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host
	if host == r.Host {
		return true
	}
	if host == "localhost" || strings.HasPrefix(host, "localhost:") {
		return true
	}
	if host == "127.0.0.1" || strings.HasPrefix(host, "127.0.0.1:") {
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves mux until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, host string, port int, mux *http.ServeMux) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
