package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"

	"github.com/buttonpad/buttonpad/pkg/logger"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
// Each WebSocket connection gets one wsChannel that bridges read/write
// operations between the WebSocket transport and the jrpc2 server.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

// Send writes a JSON-RPC message to the WebSocket connection.
func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

// Recv reads a JSON-RPC message from the WebSocket connection.
func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts down the WebSocket connection with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// handleWebSocket serves one client: a push-enabled jrpc2 server bound to
// the connection, registered with the notifier until the client leaves.
func (rs *RPCServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		rs.log.Warning("websocket accept failed: %v", err)
		return
	}

	ch := &wsChannel{conn: conn, ctx: r.Context()}
	srv := jrpc2.NewServer(rs.methods, &jrpc2.ServerOptions{
		AllowPush: true,
		Logger:    jrpc2.StdLogger(logger.ToStdLogger(rs.log)),
	})
	srv.Start(ch)
	rs.notifier.Register(srv)
	defer rs.notifier.Unregister(srv)

	if err := srv.Wait(); err != nil && !isClosed(err) {
		rs.log.Warning("websocket client %s: %v", r.RemoteAddr, err)
	}
}

func isClosed(err error) bool {
	switch cws.CloseStatus(err) {
	case cws.StatusNormalClosure, cws.StatusGoingAway:
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, context.Canceled)
}
