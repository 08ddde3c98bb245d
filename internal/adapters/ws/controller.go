package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tunehall/tunehall/internal/app"
	"github.com/tunehall/tunehall/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	cfg *config.Config
	hub *app.Hub
}

func NewController(cfg *config.Config, hub *app.Hub) *Controller {
	return &Controller{cfg: cfg, hub: hub}
}

// Handle upgrades the request and hands the connection to the hub.
func (ctl *Controller) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}

	wc := newConn(conn, ctl.cfg.SendBuffer)
	sess := ctl.hub.NewSession(wc)
	log.Info().Str("module", "ws").Str("sid", string(sess.ID)).Str("client", c.GetString("client_token")).Msg("new WS connection")
	ctl.hub.Connect(sess)

	go ctl.writePump(wc)
	go ctl.readPump(sess, wc)
}
