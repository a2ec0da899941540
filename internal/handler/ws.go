package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mhpenta/pixelart/internal/middleware"
)

const (
	stateWSWriteWait = 10 * time.Second
	stateWSPongWait  = 60 * time.Second
	stateWSPingEvery = (stateWSPongWait * 9) / 10
)

// checkOrigin admits clients without an Origin header, pages served by this
// host and the configured origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return middleware.OriginAllowed(origin, h.allowedOrigins)
}

// HandleStateWS streams the caller's state as JSON, one message per change.
// The session must already exist; the stream starts with the current state.
func (h *Handler) HandleStateWS(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessions.Lookup(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(stateWSPongWait)); err != nil {
		h.logger.WarnContext(ctx, "state ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(stateWSPongWait))
	})

	updates := c.Subscribe(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// Unblocks the read loop below.
		defer conn.Close()
		ticker := time.NewTicker(stateWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(stateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(state); err != nil {
					h.logger.DebugContext(ctx, "state ws write failed", "error", err)
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(stateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Client messages are not used; reading keeps pong and close handling alive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			<-writerDone
			return
		}
	}
}
