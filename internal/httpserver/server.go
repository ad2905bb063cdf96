package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/syncer"
)

// Server exposes a local diagnostics API for the vault daemon. It binds
// to loopback only; it is not an access path for vault secrets, so login
// entries are served in redacted form.
type Server struct {
	addr      string
	vault     model.VaultAPI
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates the diagnostics HTTP server.
func NewServer(addr string, vault model.VaultAPI) *Server {
	if addr == "" {
		addr = "127.0.0.1:7380"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		vault:  vault,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	r.GET("/api/logins", s.handleLogins)
	r.POST("/api/sync", s.handleSync)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	status, _ := s.vault.Status()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
		"sync":   status.State.String(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	status, cursor := s.vault.Status()
	body := gin.H{
		"state":  status.State.String(),
		"cursor": cursor,
	}
	if status.Reason != "" {
		body["reason"] = status.Reason
	}
	c.JSON(http.StatusOK, body)
}

// handleLogins lists entries without usernames spelled out. The hostname
// plus a presence flag is enough for troubleshooting sync issues.
func (s *Server) handleLogins(c *gin.Context) {
	logins, err := s.vault.GetAllLogins()
	if err != nil {
		if errors.Is(err, syncer.ErrLocked) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read logins"})
		return
	}

	type redacted struct {
		ID          string `json:"id"`
		Hostname    string `json:"hostname"`
		HasUsername bool   `json:"has_username"`
	}
	out := make([]redacted, 0, len(logins))
	for _, l := range logins {
		out = append(out, redacted{
			ID:          l.ID,
			Hostname:    l.Hostname,
			HasUsername: l.Username != "",
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"logins": out,
		"count":  len(out),
	})
}

func (s *Server) handleSync(c *gin.Context) {
	if err := s.vault.Sync(); err != nil {
		status := http.StatusConflict
		if errors.Is(err, syncer.ErrLocked) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sync started"})
}
