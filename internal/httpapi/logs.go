package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	logWriteTimeout = 10 * time.Second
	logReadDeadline = 120 * time.Second
	logPingInterval = 40 * time.Second
)

// handleLogStream upgrades to a websocket and streams the log tail: the
// buffered backlog first, then live lines as they are recorded. Writes
// stay single-threaded; the reader goroutine only notices the peer
// leaving.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	backlog, lines, cancel := s.recorder.Tail()
	defer cancel()

	for _, line := range backlog {
		if !writeLine(conn, line) {
			return
		}
	}

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(logReadDeadline))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(logReadDeadline))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(logPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-clientGone:
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(logWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !writeLine(conn, line) {
				return
			}
		}
	}
}

func writeLine(conn *websocket.Conn, line string) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(logWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, []byte(line)) == nil
}
