package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/civgo/civd/pkg/civ"
	"github.com/civgo/civd/pkg/logging"
	"github.com/civgo/civd/pkg/rig"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local daemon, same-host clients
	},
}

// statusSnapshot is the state bundle sent to /status callers and
// pushed over the events socket.
type statusSnapshot struct {
	Model       string `json:"model"`
	Connected   bool   `json:"connected"`
	VFO         string `json:"vfo"`
	DualWatch   bool   `json:"dual_watch"`
	Frequency   uint64 `json:"frequency"`
	Mode        string `json:"mode"`
	WidthHz     int    `json:"width_hz"`
	PTT         bool   `json:"ptt"`
	SignalDB    int    `json:"signal_db"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
	X25Degraded bool   `json:"x25_degraded"`
}

// snapshot polls the radio for the readable state and merges in the
// session-tracked flags. Read failures leave Connected false rather
// than failing the whole snapshot.
func (d *Daemon) snapshot() statusSnapshot {
	snap := statusSnapshot{
		Model:       d.session.Profile().Model,
		VFO:         d.session.CurrentVFO().String(),
		DualWatch:   d.session.DualWatch(),
		X25Degraded: d.session.X25Degraded(),
		Uptime:      time.Since(d.startTime).Round(time.Second).String(),
		Version:     Version,
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	hz, err := d.session.Frequency(ctx)
	if err != nil {
		logging.Debugf("web", "status frequency read failed: %v", err)
		return snap
	}
	snap.Connected = true
	snap.Frequency = hz

	if mode, width, err := d.session.Mode(ctx, rig.VFOCurrent); err == nil {
		snap.Mode = mode.String()
		snap.WidthHz = width
	}
	if ptt, err := d.session.PTT(ctx); err == nil {
		snap.PTT = ptt
	}
	if db, err := d.session.SignalStrength(ctx); err == nil {
		snap.SignalDB = db
	}

	return snap
}

// writeError maps the rig error taxonomy onto HTTP status codes:
// requests the profile cannot express are the caller's fault, bus
// failures are the radio's.
func writeError(c *gin.Context, err error) {
	var splitErr *rig.SplitPairingError

	status := http.StatusBadGateway
	if errors.Is(err, rig.ErrInvalidArgument) || errors.As(err, &splitErr) {
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// handleGetStatus returns the full daemon and radio state.
func (d *Daemon) handleGetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, d.snapshot())
}

func (d *Daemon) handleGetMode(c *gin.Context) {
	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	mode, width, err := d.session.Mode(ctx, rig.VFOCurrent)
	d.record("mode.get", "", started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode.String(), "width_hz": width})
}

func (d *Daemon) handleSetMode(c *gin.Context) {
	var req struct {
		Mode    string `json:"mode"`
		WidthHz int    `json:"width_hz"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	mode, err := rig.ParseMode(req.Mode)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	err = d.session.SetMode(ctx, rig.VFOCurrent, mode, req.WidthHz)
	d.record("mode.set", req.Mode, started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *Daemon) handleSetVFO(c *gin.Context) {
	var req struct {
		VFO string `json:"vfo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	vfo, err := rig.ParseVFO(req.VFO)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	err = d.session.SetVFO(ctx, vfo)
	d.record("vfo.set", req.VFO, started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dual_watch": d.session.DualWatch()})
}

func (d *Daemon) handleSetSplit(c *gin.Context) {
	var req struct {
		TXVFO   string `json:"tx_vfo"`
		RXVFO   string `json:"rx_vfo"`
		Enabled bool   `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tx, err := rig.ParseVFO(req.TXVFO)
	if err != nil {
		writeError(c, err)
		return
	}
	rx := rig.VFOSub
	if req.RXVFO != "" {
		if rx, err = rig.ParseVFO(req.RXVFO); err != nil {
			writeError(c, err)
			return
		}
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	err = d.session.SetSplitVFO(ctx, rx, req.Enabled, tx)
	d.record("split.set", fmt.Sprintf("tx=%s enabled=%v", req.TXVFO, req.Enabled), started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *Daemon) handleGetFrequency(c *gin.Context) {
	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	hz, err := d.session.Frequency(ctx)
	d.record("freq.get", "", started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"frequency": hz})
}

func (d *Daemon) handleSetFrequency(c *gin.Context) {
	var req struct {
		Frequency uint64 `json:"frequency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	err := d.session.SetFrequency(ctx, req.Frequency)
	d.record("freq.set", fmt.Sprintf("%d", req.Frequency), started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *Daemon) handleGetPTT(c *gin.Context) {
	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	on, err := d.session.PTT(ctx)
	d.record("ptt.get", "", started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ptt": on})
}

func (d *Daemon) handleSetPTT(c *gin.Context) {
	var req struct {
		PTT bool `json:"ptt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	err := d.session.SetPTT(ctx, req.PTT)
	d.record("ptt.set", fmt.Sprintf("%v", req.PTT), started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *Daemon) handleGetFunction(c *gin.Context) {
	fn, err := civ.ParseFunction(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	on, err := d.session.GetFunc(ctx, fn)
	d.record("func.get", fn.String(), started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"function": fn.String(), "on": on})
}

func (d *Daemon) handleSetFunction(c *gin.Context) {
	fn, err := civ.ParseFunction(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		On bool `json:"on"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	err = d.session.SetFunc(ctx, fn, req.On)
	d.record("func.set", fmt.Sprintf("%s=%v", fn, req.On), started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *Daemon) handleGetLevel(c *gin.Context) {
	lvl, err := civ.ParseLevel(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	v, err := d.session.GetLevel(ctx, lvl)
	d.record("level.get", lvl.String(), started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": lvl.String(), "value": v})
}

func (d *Daemon) handleSetLevel(c *gin.Context) {
	lvl, err := civ.ParseLevel(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req struct {
		Value int `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := d.opCtx()
	defer cancel()

	started := time.Now()
	err = d.session.SetLevel(ctx, lvl, req.Value)
	d.record("level.set", fmt.Sprintf("%s=%d", lvl, req.Value), started, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (d *Daemon) handleGetLog(c *gin.Context) {
	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := d.opLog.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total, failed, err := d.opLog.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"failed":  failed,
	})
}

// handleEvents upgrades to WebSocket and streams status snapshots
// until the client goes away.
func (d *Daemon) handleEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warnf("web", "websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := d.subscribe()
	defer d.unsubscribe(ch)

	// Drain the client's side so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send an initial snapshot so the client renders immediately.
	if err := conn.WriteJSON(d.snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-d.ctx.Done():
			return
		case snap := <-ch:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(snap); err != nil {
				logging.Debugf("web", "websocket write failed: %v", err)
				return
			}
		}
	}
}
