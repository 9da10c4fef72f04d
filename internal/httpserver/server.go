package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seanorg/heartbeat-module/internal/config"
	"github.com/seanorg/heartbeat-module/internal/host"
	"github.com/seanorg/heartbeat-module/internal/jwt"
	"github.com/seanorg/heartbeat-module/pkg/sdk"
	"go.uber.org/zap"
)

// Subscriber hands out event streams for /v1/events.
type Subscriber interface {
	Subscribe() chan sdk.Event
	Unsubscribe(ch chan sdk.Event)
}

// Resources is the part of the host the HTTP surface drives.
type Resources interface {
	Resource(name sdk.Name) (sdk.Resource, error)
	Vision(name string) (sdk.Vision, error)
	Resources() []host.Status
	Ready() error
}

type Server struct {
	log  *zap.Logger
	bus  Subscriber
	res  Resources
	r    *chi.Mux
	prom prometheus.Gatherer

	// event stream keepalive
	pingPeriod time.Duration
	pongWait   time.Duration

	mu  sync.RWMutex
	cfg *config.Config
	jwt *jwt.Validator
}

const (
	defaultPongWait = 60 * time.Second
	writeWait       = 10 * time.Second
)

func New(cfg *config.Config, log *zap.Logger, bus Subscriber, res Resources, reg *prometheus.Registry) (*Server, error) {
	v, err := jwt.NewValidator(cfg.Auth.JWTPublicKeys, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		return nil, fmt.Errorf("jwt validator: %w", err)
	}
	if !v.Enabled() {
		log.Warn("no jwt public keys configured, /v1 is unauthenticated")
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	s := &Server{
		cfg: cfg, log: log, bus: bus, res: res, r: r, jwt: v, prom: reg,
		pongWait:   defaultPongWait,
		pingPeriod: defaultPongWait * 9 / 10,
	}
	s.routes(healthcheck.NewMetricsHandler(reg, "heartbeat_module"))
	return s, nil
}

func (s *Server) Router() http.Handler { return s.r }

// Reload swaps in cfg and rebuilds the token validator. On error the old settings stay.
func (s *Server) Reload(cfg *config.Config) error {
	v, err := jwt.NewValidator(cfg.Auth.JWTPublicKeys, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		return fmt.Errorf("jwt validator: %w", err)
	}
	s.mu.Lock()
	s.cfg, s.jwt = cfg, v
	s.mu.Unlock()
	return nil
}

func (s *Server) routes(health healthcheck.Handler) {
	health.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(10000))
	health.AddReadinessCheck("resources", s.res.Ready)

	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.r.Get("/live", health.LiveEndpoint)
	s.r.Get("/ready", health.ReadyEndpoint)
	s.r.Handle("/metrics", promhttp.HandlerFor(s.prom, promhttp.HandlerOpts{}))

	s.r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.auth)
			r.Get("/events", s.events)
			r.Get("/info", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"name":      "heartbeat-module",
					"time":      time.Now().UTC(),
					"resources": len(s.res.Resources()),
				})
			})
			r.Get("/resources", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, s.res.Resources())
			})
			r.Post("/resources/{api}/{name}/do_command", s.doCommand)

			r.Route("/vision/{name}", func(r chi.Router) {
				r.Get("/properties", s.visionProperties)
				r.Post("/capture_all", s.captureAll)
				r.Post("/detections_from_camera", s.detectionsFromCamera)
				r.Post("/classifications_from_camera", s.classificationsFromCamera)
				r.Post("/object_point_clouds", s.objectPointClouds)
			})
		})
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		v := s.jwt
		s.mu.RUnlock()
		if !v.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		tok := r.Header.Get("Authorization")
		if tok == "" {
			// browsers cannot set headers on a websocket dial
			tok = r.URL.Query().Get("access_token")
		}
		if tok == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if len(tok) > 7 && tok[:7] == "Bearer " {
			tok = tok[7:]
		}
		if _, err := v.Verify(tok); err != nil {
			s.log.Debug("rejected token", zap.Error(err))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	ch := s.bus.Subscribe()

	go func() {
		ping := time.NewTicker(s.pingPeriod)
		defer func() {
			ping.Stop()
			s.bus.Unsubscribe(ch)
			_ = conn.Close()
		}()
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				// a gone client surfaces here as a write error
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					s.log.Debug("ws write error", zap.Error(err))
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					s.log.Debug("ws ping error", zap.Error(err))
					return
				}
			}
		}
	}()

	// read only to notice the client closing; pongs keep an idle stream open
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(s.pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.bus.Unsubscribe(ch)
			return
		}
	}
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var cerr *sdk.ConfigError
	switch {
	case errors.Is(err, sdk.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, sdk.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.As(err, &cerr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Warn("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
