package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tunehall/tunehall/internal/app"
)

// writePump drains the send buffer into the socket and owns transport
// teardown: when the channel closes it flushes what was queued, emits a
// close frame, and shuts the socket. A failed write culls the connection
// immediately instead of letting frames pile up until backpressure hits.
func (ctl *Controller) writePump(c *Conn) {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout)); err != nil {
			log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
			c.Close()
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("module", "ws").Msg("writePump write error")
			c.Close()
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// readPump owns the connection's lifecycle end: any read error, clean
// close included, turns into a Disconnect event and the hub treats it as
// an implicit leave.
func (ctl *Controller) readPump(sess *app.Session, c *Conn) {
	defer func() {
		c.Close()
		ctl.hub.Disconnect(sess)
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "ws").Str("sid", string(sess.ID)).Msg("readPump read error")
			}
			return
		}
		ctl.hub.Receive(sess, data)
	}
}
