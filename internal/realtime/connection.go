package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	readTimeout = 60 * time.Second
	sendBuffer  = 64
)

var errConnClosed = errors.New("connection closed")

// Connection wraps a websocket and serializes writes through a buffered channel.
type Connection struct {
	ID        string
	ServiceID model.ServiceID

	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

func NewConnection(serviceID model.ServiceID, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:        uuid.NewString(),
		ServiceID: serviceID,
		ws:        ws,
		send:      make(chan []byte, sendBuffer),
		close:     make(chan struct{}),
	}
}

// Send enqueues payload. A slow client whose buffer fills up is disconnected.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return errConnClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("connection buffer exceeded")
	}
}

func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) Done() <-chan struct{} { return c.close }

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

// readLoop discards client frames and keeps the read deadline fresh. It returns
// when the client goes away.
func (c *Connection) readLoop() {
	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.Close(websocket.CloseNormalClosure, "session closed")
			return
		}
	}
}

// Relay streams the room channel to conn until the client disconnects or ctx ends.
func Relay(ctx context.Context, sub Subscriber, roomID int64, conn *Connection) {
	ps := sub.Subscribe(ctx, roomID)
	defer ps.Close()

	go conn.writeLoop()
	go conn.readLoop()

	log := logger.L().With(zap.Int64("room_id", roomID), zap.String("conn_id", conn.ID), zap.Int64("service_id", int64(conn.ServiceID)))
	log.Debug("realtime subscriber attached")
	defer log.Debug("realtime subscriber detached")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.CloseGoingAway, "server shutting down")
			return
		case <-conn.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				conn.Close(websocket.CloseGoingAway, "subscription closed")
				return
			}
			if err := conn.Send([]byte(msg.Payload)); err != nil {
				log.Warn("realtime relay dropped subscriber", zap.Error(err))
				return
			}
		}
	}
}
