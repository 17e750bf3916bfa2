package ws

import (
	"log"
	"time"
)

// heartbeatLoop periodically pings all connections and evicts ones that have
// been idle longer than the configured timeout. Runs until Shutdown closes
// the done channel.
func (s *Server) heartbeatLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweepConnections()
		}
	}
}

func (s *Server) sweepConnections() {
	now := time.Now()
	for _, conn := range s.conns.All() {
		idle := now.Sub(conn.LastActive())
		if idle > s.config.IdleTimeout {
			log.Printf("[ws] connection %s idle for %v, evicting", conn.ID, idle.Round(time.Second))
			s.removeConnection(conn.ID)
			continue
		}
		if err := conn.WritePing(); err != nil {
			s.removeConnection(conn.ID)
		}
	}
}
