package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a live feed connection for one session to the hub and
// blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, sessionKey string) {
	client := &Client{Hub: hub, Conn: c, SessionKey: sessionKey, Send: make(chan []byte, 256)}
	if !hub.attach(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
