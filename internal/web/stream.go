package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/infrastructure/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleStream pushes a Dashboard frame on connect and every stream interval.
// The stream is one-way: anything the client sends is discarded.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.StreamConnected()
	defer metrics.StreamDisconnected()

	s.logger.Debug("Stream client connected", zap.String("remote", r.RemoteAddr))

	done := make(chan struct{})
	go s.drain(conn, done)

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		dash := s.service.FetchDashboard(r.Context())

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(dash); err != nil {
			s.logger.Debug("Stream write failed", zap.Error(err))
			return
		}

		if !waitForTick(conn, ticker.C, ping.C, done) {
			return
		}
	}
}

// waitForTick keeps the connection alive with pings until the next frame is
// due. It returns false once the client is gone.
func waitForTick(conn *websocket.Conn, tick, ping <-chan time.Time, done <-chan struct{}) bool {
	for {
		select {
		case <-done:
			return false
		case <-ping:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return false
			}
		case <-tick:
			return true
		}
	}
}

func (s *Server) drain(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
