package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/config"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/discovery"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/hub"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/metrics"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/protocol"
	"github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/room"
	ws "github.com/rishitha152504/Real-Time-Collaborative-Drawing-Canvas/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the canvas server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, &cfg)
			setupLogger(cfg.Level())
			return runServer(cmd.Context(), cfg)
		},
	}
	f := cmd.Flags()
	f.String("port", "", "listen port (PORT)")
	f.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	f.String("room", "", "room for connections that name none (DEFAULT_ROOM)")
	f.Bool("mdns", false, "advertise on the local network (MDNS)")
	return cmd
}

// applyServeFlags overrides cfg with flags set on the command line.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("port") {
		cfg.Port, _ = f.GetString("port")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("room") {
		cfg.DefaultRoom, _ = f.GetString("room")
	}
	if f.Changed("mdns") {
		cfg.MDNS, _ = f.GetBool("mdns")
	}
}

type server struct {
	cfg     config.Config
	hub     *hub.Hub
	rooms   *room.Registry
	handler *protocol.Handler
}

func newServer(cfg config.Config, reg prometheus.Registerer) *server {
	broadcaster := hub.New()
	rooms := room.NewRegistry()
	m := metrics.New(reg)
	metrics.RegisterRooms(reg, rooms.Len)

	return &server{
		cfg:     cfg,
		hub:     broadcaster,
		rooms:   rooms,
		handler: protocol.NewHandler(broadcaster, rooms, m),
	}
}

func (s *server) routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWS)
	r.Get("/health", healthHandler)
	r.Get("/stats", s.handleStats)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func runServer(ctx context.Context, cfg config.Config) error {
	s := newServer(cfg, prometheus.DefaultRegisterer)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.routes(prometheus.DefaultGatherer),
	}

	if cfg.MDNS {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil {
			return fmt.Errorf("mDNS needs a numeric port: %w", err)
		}
		advert, err := discovery.Advertise(cfg.MDNSInstance, port)
		if err != nil {
			return err
		}
		defer advert.Shutdown()
		slog.Info("advertising on local network", "instance", cfg.MDNSInstance, "service", discovery.ServiceType)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade error", "error", err)
		return
	}

	q := r.URL.Query()
	roomID := q.Get("room")
	if roomID == "" {
		roomID = s.cfg.DefaultRoom
	}

	wsConn := ws.NewConn(uuid.New().String(), roomID, q.Get("userName"), conn, s.handler).
		WithReadLimit(s.cfg.ReadLimit)
	wsConn.Start()
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	rooms, clients := s.hub.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"rooms":    rooms,
		"clients":  clients,
		"canvases": s.rooms.Len(),
	})
}
