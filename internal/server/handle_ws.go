package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleWS upgrades to a WebSocket that carries the same events as the SSE
// stream. The client sends ActionRequest messages; failures come back as
// error events on the same socket.
func handleWS(play *Play, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), play.cfg.SessionTTL)
		defer cancel()

		ch := play.broker.Subscribe(sess.ID)
		defer play.broker.Unsubscribe(sess.ID, ch)

		view := play.View(sess)
		if err := wsjson.Write(ctx, conn, Event{Type: eventState, State: &view}); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case data, ok := <-ch:
					if !ok {
						conn.Close(websocket.StatusGoingAway, "session ended")
						return
					}
					if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
						logger.Debug("websocket write failed", "error", err)
						return
					}
				}
			}
		}()

		for {
			var req ActionRequest
			if err := wsjson.Read(ctx, conn, &req); err != nil {
				if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
					logger.Debug("websocket read ended", "error", err)
				}
				return
			}

			if _, err := play.Apply(ctx, sess, req); err != nil {
				wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
				werr := wsjson.Write(wctx, conn, Event{Type: eventError, Error: err.Error()})
				wcancel()
				if werr != nil {
					return
				}
			}
		}
	}
}
