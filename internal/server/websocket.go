package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/fab/internal/controller"
	fabErrors "github.com/conneroisu/fab/internal/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 64 << 10

	sendBuffer = 256
)

// Operations a client may request.
const (
	OpConstruct = "construct"
	OpTrigger   = "trigger"
	OpList      = "list"
)

// Message types sent to clients.
const (
	TypeConstructed = "constructed"
	TypeTriggered   = "triggered"
	TypeBlueprints  = "blueprints"
	TypeBlueprint   = "blueprint"
	TypeError       = "error"
)

// Request is a client message. Ref is echoed back on the reply.
type Request struct {
	Op    string         `json:"op"`
	Ref   string         `json:"ref,omitempty"`
	Name  string         `json:"name,omitempty"`
	Attrs map[string]any `json:"attrs,omitempty"`
	El    string         `json:"el,omitempty"`

	ID     string `json:"id,omitempty"`
	Event  string `json:"event,omitempty"`
	Target string `json:"target,omitempty"`
	Args   []any  `json:"args,omitempty"`
}

// Message is sent to clients, either as a reply or as a broadcast.
type Message struct {
	Type  string         `json:"type"`
	Ref   string         `json:"ref,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	State string         `json:"state,omitempty"`
	Event string         `json:"event,omitempty"`
	HTML  string         `json:"html,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
	Names []string       `json:"names,omitempty"`
	Error *ErrorPayload  `json:"error,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Client is one websocket connection. Controllers it constructs stay
// addressable by id until it disconnects.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server

	// guarded by server.dispatchMutex
	owned map[string]*controller.Controller

	done      chan struct{}
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		server: s,
		owned:  make(map[string]*controller.Controller),
		done:   make(chan struct{}),
	}

	// registered before any reply can be produced so that broadcasts
	// are never missed
	select {
	case s.register <- client:
	case <-s.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	case <-r.Context().Done():
		conn.Close(websocket.StatusGoingAway, "")
		return
	}

	go client.writePump()
	client.readPump(r.Context())
}

// checkOrigin accepts same-origin requests and the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	if strings.EqualFold(originURL.Host, r.Host) {
		return true
	}
	for _, allowed := range s.originPatterns() {
		if strings.EqualFold(originURL.Host, allowed) {
			return true
		}
	}
	return false
}

func (s *Server) runHub(ctx context.Context) {
	defer s.disconnectAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return

		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Info(ctx, "Client connected", "clients", count)

		case client := <-s.unregister:
			s.clientsMutex.Lock()
			if _, ok := s.clients[client.conn]; ok {
				delete(s.clients, client.conn)
				client.close()
			}
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Info(ctx, "Client disconnected", "clients", count)

		case message := <-s.broadcast:
			s.clientsMutex.Lock()
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// too slow to keep up
					delete(s.clients, conn)
					client.close()
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

func (s *Server) disconnectAll() {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	for conn, client := range s.clients {
		delete(s.clients, conn)
		client.close()
	}
}

// readPump handles requests until the connection fails or closes.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.done:
		case <-c.server.done:
		}
		c.close()
		c.release()
	}()

	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				!errors.Is(err, context.Canceled) {
				c.server.logger.Debug(ctx, "WebSocket read ended", "error", err.Error())
			}
			return
		}
		if typ != websocket.MessageText {
			c.reply(Message{Type: TypeError, Error: &ErrorPayload{
				Code:    fabErrors.ErrCodeValidationFailed,
				Message: "binary messages are not supported",
			}})
			continue
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.reply(Message{Type: TypeError, Error: &ErrorPayload{
				Code:    fabErrors.ErrCodeValidationFailed,
				Message: "invalid JSON: " + err.Error(),
			}})
			continue
		}

		c.reply(c.server.handle(ctx, c, req))
	}
}

// writePump owns every write to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.server.logger.Debug(ctx, "WebSocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) reply(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.server.logger.Error(context.Background(), err, "Failed to marshal reply", "type", msg.Type)
		data, _ = json.Marshal(Message{
			Type:      TypeError,
			Ref:       msg.Ref,
			Error:     &ErrorPayload{Code: fabErrors.ErrCodeInternalError, Message: "reply is not valid JSON"},
			Timestamp: msg.Timestamp,
		})
	}

	select {
	case c.send <- data:
	case <-c.done:
	}
}

func (c *Client) release() {
	c.server.dispatchMutex.Lock()
	defer c.server.dispatchMutex.Unlock()
	clear(c.owned)
}

// handle runs one request. Construction and dispatch are serialized
// across all clients.
func (s *Server) handle(ctx context.Context, c *Client, req Request) Message {
	s.dispatchMutex.Lock()
	defer s.dispatchMutex.Unlock()

	var (
		msg Message
		err error
	)
	switch req.Op {
	case OpConstruct:
		msg, err = s.construct(c, req)
	case OpTrigger:
		msg, err = s.trigger(c, req)
	case OpList:
		msg = Message{Type: TypeBlueprints, Names: s.factory.Registry().Names()}
	default:
		err = fabErrors.NewValidationError(fabErrors.ErrCodeValidationFailed,
			fmt.Sprintf("unknown op %q", req.Op)).
			WithContext("ops", []string{OpConstruct, OpTrigger, OpList})
	}

	if err != nil {
		s.errors.Handle(ctx, err)
		msg = Message{Type: TypeError, Error: errorPayload(err)}
	}
	msg.Ref = req.Ref
	return msg
}

func (s *Server) construct(c *Client, req Request) (Message, error) {
	attrs := make(map[string]any, len(req.Attrs)+1)
	for k, v := range req.Attrs {
		attrs[k] = v
	}
	if req.El != "" {
		attrs[controller.KeyElement] = req.El
	}

	ctrl, err := s.factory.ConstructFrom(req.Name, attrs)
	if err != nil {
		return Message{}, err
	}
	c.owned[ctrl.ID()] = ctrl

	msg := describe(ctrl)
	msg.Type = TypeConstructed
	return msg, nil
}

func (s *Server) trigger(c *Client, req Request) (Message, error) {
	ctrl, ok := c.owned[req.ID]
	if !ok {
		if t := s.factory.Tracker(); t != nil {
			ctrl, ok = t.Find(req.ID)
		}
	}
	if !ok {
		return Message{}, fabErrors.ErrControllerNotFound(req.ID)
	}
	if strings.TrimSpace(req.Event) == "" {
		return Message{}, fabErrors.NewValidationError(fabErrors.ErrCodeValidationFailed, "event is required")
	}

	if err := ctrl.Trigger(req.Event, req.Target, req.Args...); err != nil {
		return Message{}, err
	}

	msg := describe(ctrl)
	msg.Type = TypeTriggered
	msg.Event = req.Event
	return msg, nil
}

func describe(ctrl *controller.Controller) Message {
	msg := Message{
		ID:    ctrl.ID(),
		Name:  ctrl.Name,
		State: ctrl.State().String(),
	}
	if ctrl.Element != nil {
		msg.HTML = ctrl.Element.OuterHTML()
	}
	if ctrl.Model != nil {
		msg.Data = ctrl.Model.Data()
	} else if ctrl.Data != nil {
		msg.Data = maps.Clone(ctrl.Data)
	}
	return msg
}

func errorPayload(err error) *ErrorPayload {
	payload := &ErrorPayload{Code: fabErrors.ErrCodeInternalError, Message: err.Error()}
	var fe *fabErrors.FabError
	if errors.As(err, &fe) {
		payload.Code = fe.Code
		payload.Context = fabErrors.GetErrorContext(err)
	}
	return payload
}
