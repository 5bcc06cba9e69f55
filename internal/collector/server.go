// Package collector is the HTTP endpoint that receives device status records
// and answers each one with a drain decision.
package collector

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/temoto/rdrain/log2"
)

const DefaultListen = "127.0.0.1:5000"

const stateUnavailable = "State unavailable"

type Server struct {
	addr      string
	apiKey    string
	store     *Store
	log       *log2.Log
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	now       func() time.Time
}

// Empty apiKey disables authorization.
func NewServer(addr, apiKey string, store *Store, log *log2.Log) *Server {
	if addr == "" {
		addr = DefaultListen
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		apiKey:    apiKey,
		store:     store,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
		now:       time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog)

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/state", s.handleGetState)
	r.POST("/api/state", s.authorize, s.handlePostState)
	r.POST("/api/drain", s.authorize, s.handleArmDrain)
	return r
}

// Start listens and serves in background.
// gin mode is process-wide, set it before Start.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Annotatef(err, "collector listen=%s", s.addr)
	}
	s.listener = listener
	s.startTime = time.Now()
	s.log.Infof("collector listen=%s", listener.Addr())

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("collector serve err=%v", err)
		}
	}()
	return nil
}

// Addr is valid after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) authorize(c *gin.Context) {
	if s.apiKey == "" {
		return
	}
	got := c.Query("apiKey")
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
		s.log.Debugf("collector unauthorized remote=%s", c.ClientIP())
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func (s *Server) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debugf("collector %s %s status=%d duration=%s",
		c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
}

func (s *Server) handleHealth(c *gin.Context) {
	_, ok := s.store.Get()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).String(),
		"state":       ok,
		"drain_armed": s.store.Armed(),
	})
}

func (s *Server) handleGetState(c *gin.Context) {
	state, ok := s.store.Get()
	if !ok {
		c.JSON(http.StatusOK, stateUnavailable)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handlePostState(c *gin.Context) {
	var body PostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.log.Errorf("collector invalid state body err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	state := body.State(s.now())
	s.store.Put(state)

	reply := DrainReply{Drain: s.store.TakeDrain()}
	if reply.Drain {
		s.log.Infof("collector drain sent, frozen=%t message=%q", state.IsFrozen, state.Message)
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleArmDrain(c *gin.Context) {
	s.store.ArmDrain()
	s.log.Infof("collector drain armed")
	c.JSON(http.StatusOK, gin.H{"armed": true})
}
