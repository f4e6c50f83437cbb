package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"tipfinity/core/events"
	"tipfinity/crypto"
	"tipfinity/native/creator"
)

const (
	wsWriteTimeout = 10 * time.Second
)

// handleTipsWS streams committed tip events. An optional ?creator= filter
// restricts the stream to one creator record.
func (s *Server) handleTipsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	filter := strings.TrimSpace(r.URL.Query().Get("creator"))
	if filter != "" {
		addr, err := crypto.ParseAddress(filter)
		if err != nil {
			http.Error(w, "invalid creator address", http.StatusBadRequest)
			return
		}
		filter = crypto.FormatAddress(addr)
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	// Clients only receive; CloseRead handles their control frames.
	ctx := conn.CloseRead(r.Context())
	if err := s.streamTips(ctx, conn, filter); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamTips(ctx context.Context, conn *websocket.Conn, creatorFilter string) error {
	updates, cancel := s.node.SubscribeTips()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if evt.EventType() != creator.EventTypeTipRecorded {
				continue
			}
			payload, ok := evt.(events.Payload)
			if !ok {
				continue
			}
			raw := payload.Event()
			if creatorFilter != "" && raw.Attribute("creator") != creatorFilter {
				continue
			}
			if err := writeEvent(ctx, conn, raw); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
