package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	serial "github.com/albenik/go-serial/v2"
	"github.com/gin-gonic/gin"

	"github.com/civgo/civd/pkg/civ"
	"github.com/civgo/civd/pkg/config"
	"github.com/civgo/civd/pkg/logging"
	"github.com/civgo/civd/pkg/profile"
	"github.com/civgo/civd/pkg/rig"
	"github.com/civgo/civd/pkg/storage"
)

// Daemon ties the serial link, the rig session, the operation log and
// the web API together.
type Daemon struct {
	config *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	port      *serial.Port
	session   *rig.Session
	opLog     *storage.OpLog
	webServer *http.Server

	startTime time.Time

	// WebSocket status subscribers.
	subMu sync.Mutex
	subs  map[chan statusSnapshot]struct{}
}

// NewDaemon creates a new daemon instance
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	prof := profile.ID5100()
	if err := prof.Validate(); err != nil {
		cancel()
		return nil, fmt.Errorf("capability table inconsistent: %w", err)
	}

	port, err := serial.Open(cfg.Serial.Device,
		serial.WithBaudrate(cfg.Serial.BaudRate),
		serial.WithDataBits(8),
		serial.WithParity(serial.NoParity),
		serial.WithStopBits(serial.OneStopBit),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Serial.Device, err)
	}

	radioAddr := prof.CIVAddress
	if cfg.Radio.CIVAddress != 0 {
		radioAddr = byte(cfg.Radio.CIVAddress)
	}

	conn := civ.NewConn(port, radioAddr,
		civ.WithControllerAddress(byte(cfg.Radio.ControllerAddress)),
		civ.WithTimeout(time.Duration(cfg.Radio.TimeoutMs)*time.Millisecond),
	)

	opLog, err := storage.NewOpLog(cfg.Storage.DatabasePath, cfg.Storage.MaxEntries)
	if err != nil {
		port.Close()
		cancel()
		return nil, fmt.Errorf("failed to open operation log: %w", err)
	}

	daemon := &Daemon{
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		port:      port,
		opLog:     opLog,
		startTime: time.Now(),
		subs:      make(map[chan statusSnapshot]struct{}),
	}

	daemon.session = rig.NewSession(conn, civ.NewControls(conn), prof,
		rig.WithRegion(profile.Region(cfg.Radio.Region)))

	if err := daemon.setupWebServer(); err != nil {
		port.Close()
		opLog.Close()
		cancel()
		return nil, fmt.Errorf("failed to setup web server: %w", err)
	}

	return daemon, nil
}

// Start starts the daemon
func (d *Daemon) Start() error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
		logging.Infof("web", "starting web server on %s", addr)
		if err := d.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("web", "web server error: %v", err)
		}
	}()

	d.wg.Add(1)
	go d.statusBroadcaster()

	return nil
}

// Stop stops the daemon gracefully
func (d *Daemon) Stop() error {
	logging.Info("main", "stopping daemon...")

	d.cancel()

	if d.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.webServer.Shutdown(ctx); err != nil {
			logging.Warnf("web", "web server shutdown error: %v", err)
		}
	}

	d.wg.Wait()

	if err := d.port.Close(); err != nil {
		logging.Warnf("main", "serial port close error: %v", err)
	}
	if err := d.opLog.Close(); err != nil {
		logging.Warnf("storage", "operation log close error: %v", err)
	}

	logging.Info("main", "daemon stopped")
	return nil
}

// setupWebServer initializes the web server and routes
func (d *Daemon) setupWebServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/mode", d.handleGetMode)
		api.PUT("/mode", d.handleSetMode)
		api.PUT("/vfo", d.handleSetVFO)
		api.PUT("/split", d.handleSetSplit)
		api.GET("/frequency", d.handleGetFrequency)
		api.PUT("/frequency", d.handleSetFrequency)
		api.GET("/ptt", d.handleGetPTT)
		api.PUT("/ptt", d.handleSetPTT)
		api.GET("/function/:name", d.handleGetFunction)
		api.PUT("/function/:name", d.handleSetFunction)
		api.GET("/level/:name", d.handleGetLevel)
		api.PUT("/level/:name", d.handleSetLevel)
		api.GET("/log", d.handleGetLog)
		api.GET("/events", d.handleEvents)
	}

	addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
	d.webServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return nil
}

// opCtx returns the per-operation context carrying the configured
// transaction timeout.
func (d *Daemon) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(d.ctx, time.Duration(d.config.Radio.TimeoutMs)*time.Millisecond)
}

// record writes one operation outcome to the log.
func (d *Daemon) record(op, detail string, started time.Time, err error) {
	entry := storage.Entry{
		Op:         op,
		Detail:     detail,
		OK:         err == nil,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if recErr := d.opLog.Record(entry); recErr != nil {
		logging.Warnf("storage", "failed to record %s: %v", op, recErr)
	}
}

// statusBroadcaster polls the radio and fans the snapshot out to all
// WebSocket subscribers.
func (d *Daemon) statusBroadcaster() {
	defer d.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.subMu.Lock()
			n := len(d.subs)
			d.subMu.Unlock()
			if n == 0 {
				continue
			}

			snapshot := d.snapshot()

			d.subMu.Lock()
			for ch := range d.subs {
				select {
				case ch <- snapshot:
				default:
					// Slow subscriber; skip this tick.
				}
			}
			d.subMu.Unlock()
		}
	}
}

func (d *Daemon) subscribe() chan statusSnapshot {
	ch := make(chan statusSnapshot, 1)
	d.subMu.Lock()
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()
	return ch
}

func (d *Daemon) unsubscribe(ch chan statusSnapshot) {
	d.subMu.Lock()
	delete(d.subs, ch)
	d.subMu.Unlock()
}
