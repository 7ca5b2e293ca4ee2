package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// Whole plans travel in plan.load, so frames may be large.
	maxMsgSize = 1 << 20
	sendBuffer = 256
)

// typeMalformed marks an inbound frame that could not be decoded. The hub
// answers it with an error like any other rejected message.
const typeMalformed = "frame.malformed"

// frame is one encoded message waiting for the write pump.
type frame struct {
	typ  string
	data []byte
}

// Client is one websocket connection attached to a plan's room.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan frame
	PlanID   string
	ClientID string
}

func NewClient(hub *Hub, conn *websocket.Conn, planID, clientID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan frame, sendBuffer),
		PlanID:   planID,
		ClientID: clientID,
	}
}

// decodeFrame turns a websocket frame into a Message. Binary frames and
// invalid JSON become typeMalformed messages carrying the reason.
func decodeFrame(kind websocket.MessageType, data []byte) *Message {
	malformed := func(reason string) *Message {
		payload, _ := json.Marshal(reason)
		return &Message{Type: typeMalformed, Payload: payload}
	}
	if kind != websocket.MessageText {
		return malformed("binary frames are not supported")
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return malformed(err.Error())
	}
	if msg.Type == "" {
		return malformed("message has no type")
	}
	return &msg
}

func closedNormally(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}

// ReadPump hands every inbound frame to the hub until the connection closes
// or the hub stops.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		kind, data, err := c.conn.Read(ctx)
		if err != nil {
			if !closedNormally(err) {
				c.hub.logger.Debug("read error", "error", err, "client", c.ClientID)
			}
			return
		}

		msg := decodeFrame(kind, data)
		if msg.Type == typeMalformed {
			c.hub.logger.Warn("malformed frame", "client", c.ClientID, "bytes", len(data))
		}
		msg.ClientID = c.ClientID
		msg.PlanID = c.PlanID

		if !c.hub.submit(c, msg) {
			return
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case f, ok := <-c.send:
			if !ok {
				return
			}
			batch, open := c.pending(f)
			for _, f := range batch {
				writeCtx, cancel := context.WithTimeout(ctx, writeWait)
				err := c.conn.Write(writeCtx, websocket.MessageText, f.data)
				cancel()
				if err != nil {
					c.hub.logger.Debug("write error", "error", err, "client", c.ClientID, "type", f.typ)
					return
				}
			}
			if !open {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// pending collects first and every frame already queued behind it. open is
// false once the queue has been closed.
func (c *Client) pending(first frame) (batch []frame, open bool) {
	batch = []frame{first}
	for {
		select {
		case f, ok := <-c.send:
			if !ok {
				return supersede(batch), false
			}
			batch = append(batch, f)
		default:
			return supersede(batch), true
		}
	}
}

// supersede keeps only the newest render.state of a batch. Each one carries
// the whole editor state, so older ones are never worth writing.
func supersede(batch []frame) []frame {
	newest := -1
	for i, f := range batch {
		if f.typ == TypeRenderState {
			newest = i
		}
	}
	out := batch[:0]
	for i, f := range batch {
		if f.typ == TypeRenderState && i != newest {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Send queues msg without blocking. Only the hub goroutine sends, since it
// owns closing the queue. A full queue drops the message; a dropped
// render.state is replaced by the next one.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	select {
	case c.send <- frame{typ: msg.Type, data: data}:
	default:
		level := slog.LevelWarn
		if msg.Type == TypeRenderState {
			level = slog.LevelDebug
		}
		c.hub.logger.Log(context.Background(), level, "send queue full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}

func errorMessage(request string, seq int64, text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text, Request: request, Seq: seq})
	return &Message{Type: TypeError, Seq: seq, Payload: payload}
}
