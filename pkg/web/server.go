// Package web serves the anchor dashboard: a small JSON API plus a live
// event stream over websocket.
//
// The server never touches the engine. Reads come from snapshots the render
// loop publishes; writes are forwarded to host callbacks.
package web

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-depthanchor/internal/log"
	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/engine"
	"github.com/teslashibe/go-depthanchor/pkg/hub"
	"github.com/teslashibe/go-depthanchor/pkg/pointlog"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// Status is the engine state shown on the dashboard.
type Status struct {
	Scanning       bool                 `json:"scanning"`
	Viewport       reconstruct.Viewport `json:"viewport"`
	Anchors        int                  `json:"anchors"`
	MaxAnchors     int                  `json:"max_anchors"`
	DepthAvailable bool                 `json:"depth_available"`
	Frames         uint64               `json:"frames"`
	Points         int                  `json:"points"`
	Evicted        int                  `json:"evicted"`
	Skipped        int                  `json:"skipped"`
	PendingTaps    int                  `json:"pending_taps"`
	DroppedTaps    int                  `json:"dropped_taps"`
	LastSweep      *engine.SweepReport  `json:"last_sweep,omitempty"`
}

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	port string

	status   Status
	statusMu sync.RWMutex

	anchors   []anchor.Anchor
	anchorsMu sync.RWMutex

	points pointlog.Store
	events *hub.Hub

	// OnTap queues a tap. It reports false when the queue is full.
	OnTap func(p reconstruct.ScreenPoint) bool

	// OnScan toggles the scan sweep.
	OnScan func(enabled bool)

	// OnViewport resizes the surface.
	OnViewport func(vp reconstruct.Viewport) error

	// OnClear detaches every anchor.
	OnClear func()
}

// NewServer creates the dashboard server. points may be nil.
func NewServer(port string, points pointlog.Store) *Server {
	s := &Server{
		port:   port,
		points: points,
		events: hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Depth Anchor Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/anchors", s.handleAnchors)
	api.Delete("/anchors", s.handleClearAnchors)
	api.Get("/points", s.handlePoints)
	api.Delete("/points", s.handleClearPoints)
	api.Post("/tap", s.handleTap)
	api.Post("/scan", s.handleScan)
	api.Post("/viewport", s.handleViewport)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// Hub returns the event hub. The caller runs it.
func (s *Server) Hub() *hub.Hub {
	return s.events
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until Shutdown. The event hub must already be running.
func (s *Server) Start() error {
	log.Info("dashboard listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync serves in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server stopped", "error", err)
		}
	}()
}

// UpdateStatus mutates the status and broadcasts the result.
func (s *Server) UpdateStatus(update func(*Status)) {
	s.statusMu.Lock()
	update(&s.status)
	st := s.status
	s.statusMu.Unlock()

	s.events.Publish("status", st)
}

// Status returns a copy of the current status.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// SetAnchors replaces the anchor snapshot served by GET /api/anchors.
func (s *Server) SetAnchors(anchors []anchor.Anchor) {
	s.anchorsMu.Lock()
	s.anchors = anchors
	s.anchorsMu.Unlock()
}

// Publish forwards an engine event to every subscriber.
func (s *Server) Publish(ev engine.Event) {
	if err := s.events.Publish(ev.Kind(), ev); err != nil {
		log.Warn("event not published", "kind", ev.Kind(), "error", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
