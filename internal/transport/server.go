// Package transport carries the length-prefixed JSON channel between the
// Controller and the Executor over a single TCP stream.
package transport

import (
	"errors"
	"io"
	"net"
	"sync"

	"supervisor/internal/events"
	"supervisor/internal/jsonx"
	"supervisor/internal/logging"
	"supervisor/internal/metrics"
)

// TopicCoderMessage is the emitter topic replies are published on.
const TopicCoderMessage = "coder_message"

var ErrNoPeer = errors.New("no executor connected")

// Server accepts a single Executor peer and exchanges framed JSON with it.
// Decoded replies are published on the coder_message topic in arrival order.
// When the peer disconnects the server simply awaits the next accept; no
// reconnection is attempted from this side.
type Server struct {
	addr    string
	emitter *events.Emitter
	logger  logging.Logger

	mu   sync.Mutex
	ln   net.Listener
	conn net.Conn

	writeMu sync.Mutex
}

func NewServer(addr string, emitter *events.Emitter, logger logging.Logger) *Server {
	return &Server{
		addr:    addr,
		emitter: emitter,
		logger:  logging.OrNop(logger),
	}
}

// Start begins listening and accepting in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("listening for executor on %s", ln.Addr())
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listener address, useful when addr requested :0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.logger.Info("accept loop done: %v", err)
			return
		}
		s.logger.Info("executor connected from %s", conn.RemoteAddr())

		s.mu.Lock()
		if s.conn != nil {
			// One peer at a time; the newest connection wins.
			_ = s.conn.Close()
		}
		s.conn = conn
		s.mu.Unlock()

		go s.handleConn(conn)
	}
}

// handleConn reads frames until the peer goes away, extracting every
// complete frame the buffer holds before asking for more bytes.
func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		s.logger.Info("executor %s disconnected", conn.RemoteAddr())
	}()

	fb := newFrameBuffer()
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			fb.Feed(chunk[:n])
			for {
				payload := fb.Next()
				if payload == nil {
					break
				}
				s.deliver(payload)
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Warn("executor read: %v", err)
			}
			return
		}
	}
}

func (s *Server) deliver(payload []byte) {
	var reply Reply
	if err := jsonx.Unmarshal(payload, &reply); err != nil {
		metrics.DecodeErrors.Inc()
		s.logger.Warn("invalid JSON frame dropped: %v", err)
		return
	}
	metrics.FramesRead.Inc()
	s.emitter.Emit(TopicCoderMessage, &reply)
}

// Send writes a task to the connected peer. ErrNoPeer is returned while the
// executor is away; the caller decides whether that stalls a workflow.
func (s *Server) Send(task *Task) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNoPeer
	}

	payload, err := jsonx.Marshal(task)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := writeFrame(conn, payload); err != nil {
		return err
	}
	metrics.FramesWritten.Inc()
	return nil
}

// Close stops the listener and drops the current peer.
func (s *Server) Close() error {
	s.mu.Lock()
	ln, conn := s.ln, s.conn
	s.ln, s.conn = nil, nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if ln != nil {
		return ln.Close()
	}
	return nil
}
