package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callfork/audiofork/internal/adapters/options"
	"github.com/callfork/audiofork/internal/app"
	"github.com/callfork/audiofork/internal/core"
	"github.com/callfork/audiofork/internal/domain"
)

type handlers struct {
	ctl  *app.Control
	legs core.LegProvider
}

type startRequest struct {
	Leg         string `json:"leg" binding:"required"`
	Endpoint    string `json:"endpoint"`
	Options     string `json:"options"`
	PostProcess string `json:"post_process"`
}

func (h *handlers) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid request body"})
		return
	}

	leg, ok := h.legs.Lookup(req.Leg)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no leg %q", req.Leg)})
		return
	}

	cfg, err := options.Parse(req.Options)
	if err != nil {
		fail(c, err)
		return
	}
	cfg.Endpoint = req.Endpoint

	id, err := h.ctl.Start(leg, cfg, req.PostProcess)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *handlers) stop(c *gin.Context) {
	h.stopFork(c, domain.SessionID(c.Param("id")))
}

func (h *handlers) stopAny(c *gin.Context) {
	h.stopFork(c, "")
}

func (h *handlers) stopFork(c *gin.Context, id domain.SessionID) {
	leg, ok := h.legs.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no leg %q", c.Param("name"))})
		return
	}
	if err := h.ctl.Stop(leg, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

type muteRequest struct {
	Direction string `json:"direction"`
	State     string `json:"state"`
}

func (h *handlers) mute(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid request body"})
		return
	}
	leg, ok := h.legs.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no leg %q", c.Param("name"))})
		return
	}
	on, err := parseState(req.State)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.ctl.Mute(leg, req.Direction, on); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type volumeRequest struct {
	Direction string `json:"direction"`
	Level     int    `json:"level"`
}

func (h *handlers) volume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid request body"})
		return
	}
	leg, ok := h.legs.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no leg %q", c.Param("name"))})
		return
	}
	if err := h.ctl.SetVolume(leg, req.Direction, req.Level); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) query(c *gin.Context) {
	id := domain.SessionID(c.Param("id"))
	key := c.DefaultQuery("key", "endpoint")
	value, err := h.ctl.Query(id, key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (h *handlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"forks": h.ctl.List(c.Param("name"))})
}

func parseState(s string) (bool, error) {
	switch s {
	case "1", "on", "true", "yes":
		return true, nil
	case "0", "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: state %q, use 1 or 0", domain.ErrInvalidArgument, s)
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrResourceExhausted):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
