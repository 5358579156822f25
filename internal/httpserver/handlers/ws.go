package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/sflens/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sflens/internal/httpserver/mw"
	"github.com/MrSnakeDoc/sflens/internal/logger"
	"github.com/MrSnakeDoc/sflens/internal/panel"
	"github.com/MrSnakeDoc/sflens/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsMaxMessage = 8 << 20
)

// PanelSocket speaks the panel message protocol over a websocket. Each
// inbound message runs concurrently; outbound messages are serialized by the
// session. Browsers may only connect from a page served by an allowed host.
func PanelSocket(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			return mw.OriginAllowed(r, d.AllowedHosts)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Warn("failed to upgrade the websocket", logger.Error(err))
			return
		}
		defer utils.Close(ws)
		ws.SetReadLimit(wsMaxMessage)

		sink := panel.SinkFunc(func(msg panel.Message) error {
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return ws.WriteJSON(msg)
		})
		sess := panel.NewSession(d.Service, d.Exporter, sink, d.Logger)
		defer sess.Close()

		if err := sess.Open(); err != nil {
			return
		}
		d.Logger.Info("panel connected", logger.String("session", sess.ID()))

		for {
			kind, raw, err := ws.ReadMessage()
			if err != nil {
				d.Logger.Info("panel disconnected",
					logger.String("session", sess.ID()),
					logger.String("reason", err.Error()))
				return
			}
			if kind != websocket.TextMessage {
				continue
			}
			sess.Go(raw)
		}
	}
}
