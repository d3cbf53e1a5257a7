package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/wlanmgr/internal/wlan"
)

// DefaultDialTimeout bounds Dial when ctx has no deadline.
const DefaultDialTimeout = 5 * time.Second

// Client talks to a running manager's /ws endpoint.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the diagnostics server at addr (host:port).
func Dial(ctx context.Context, addr string) (*Client, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDialTimeout)
		defer cancel()
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}
	return &Client{conn: conn}, nil
}

// Snapshot returns the next snapshot the server pushes. The server sends
// one right after connecting.
func (c *Client) Snapshot(ctx context.Context) (wlan.Snapshot, error) {
	m, err := c.next(ctx, MessageSnapshot)
	if err != nil {
		return wlan.Snapshot{}, err
	}
	return *m.Snapshot, nil
}

// Do sends cmd and waits for its reply. Snapshots received meanwhile are
// skipped.
func (c *Client) Do(ctx context.Context, cmd Command) error {
	if d, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(d)
	}
	if err := c.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	m, err := c.next(ctx, MessageReply)
	if err != nil {
		return err
	}
	if !m.Reply.OK {
		return errors.New(m.Reply.Error)
	}
	return nil
}

// Close sends a close frame and drops the connection.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) next(ctx context.Context, typ string) (Message, error) {
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetReadDeadline(deadline)

	for {
		var m Message
		if err := c.conn.ReadJSON(&m); err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, fmt.Errorf("failed to read message: %w", err)
		}
		switch {
		case m.Type != typ:
			continue
		case typ == MessageSnapshot && m.Snapshot == nil,
			typ == MessageReply && m.Reply == nil:
			return Message{}, fmt.Errorf("malformed %s message", typ)
		}
		return m, nil
	}
}
