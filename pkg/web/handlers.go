package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-depthanchor/internal/log"
	"github.com/teslashibe/go-depthanchor/pkg/anchor"
	"github.com/teslashibe/go-depthanchor/pkg/hub"
	"github.com/teslashibe/go-depthanchor/pkg/pointlog"
	"github.com/teslashibe/go-depthanchor/pkg/reconstruct"
)

// handleStatus returns the current engine status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleAnchors returns the latest anchor snapshot, oldest first
func (s *Server) handleAnchors(c *fiber.Ctx) error {
	s.anchorsMu.RLock()
	defer s.anchorsMu.RUnlock()
	if s.anchors == nil {
		return c.JSON([]anchor.Anchor{})
	}
	return c.JSON(s.anchors)
}

// handleClearAnchors detaches every anchor
func (s *Server) handleClearAnchors(c *fiber.Ctx) error {
	if s.OnClear == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "clear not configured")
	}
	s.OnClear()
	return c.SendStatus(fiber.StatusNoContent)
}

// handlePoints returns the reconstructed point log
func (s *Server) handlePoints(c *fiber.Ctx) error {
	if s.points == nil {
		return c.JSON([]pointlog.Entry{})
	}
	return c.JSON(s.points.List())
}

// handleClearPoints empties the point log
func (s *Server) handleClearPoints(c *fiber.Ctx) error {
	if s.points == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "point log not configured")
	}
	s.points.Clear()
	if err := s.points.Flush(); err != nil {
		return err
	}
	s.UpdateStatus(func(st *Status) { st.Points = 0 })
	return c.SendStatus(fiber.StatusNoContent)
}

// TapRequest is the request body for POST /api/tap.
type TapRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// handleTap queues a tap for the next frame
func (s *Server) handleTap(c *fiber.Ctx) error {
	var req TapRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tap: "+err.Error())
	}
	if s.OnTap == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "tap not configured")
	}

	p := reconstruct.ScreenPoint{X: req.X, Y: req.Y}
	if !s.OnTap(p) {
		return fiber.NewError(fiber.StatusTooManyRequests, "tap queue full")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": p})
}

// ScanRequest is the request body for POST /api/scan.
type ScanRequest struct {
	Enabled bool `json:"enabled"`
}

// handleScan toggles the scan sweep
func (s *Server) handleScan(c *fiber.Ctx) error {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid scan request: "+err.Error())
	}
	if s.OnScan == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "scan not configured")
	}

	s.OnScan(req.Enabled)
	s.UpdateStatus(func(st *Status) { st.Scanning = req.Enabled })
	return c.JSON(fiber.Map{"scanning": req.Enabled})
}

// handleViewport resizes the surface
func (s *Server) handleViewport(c *fiber.Ctx) error {
	var vp reconstruct.Viewport
	if err := c.BodyParser(&vp); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid viewport: "+err.Error())
	}
	if !vp.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, reconstruct.ErrInvalidViewport.Error())
	}
	if s.OnViewport == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "viewport not configured")
	}
	if err := s.OnViewport(vp); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	s.UpdateStatus(func(st *Status) { st.Viewport = vp })
	return c.JSON(vp)
}

// handleEventsWS streams engine events, starting with the current status
func (s *Server) handleEventsWS(c *websocket.Conn) {
	greeting, err := hub.Encode("status", s.Status())
	if err != nil {
		log.Warn("status greeting not encoded", "error", err)
	}
	hub.NewClient(s.events, c, greeting).Run()
}
