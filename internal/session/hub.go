// Package session runs live editing sessions over websockets. Every plan id
// gets a Room holding one engine; all messages for all rooms are applied on
// the hub goroutine, so an engine only ever sees one writer.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/engine"
	"github.com/verdant/verdant/editor-go/internal/tool"
)

// SamplePlanID opens a room seeded with the built-in sample garden.
const SamplePlanID = "sample"

var ErrHubStopped = errors.New("session hub stopped")

type Room struct {
	planID  string
	clients map[string]*Client // clientID -> client
	engine  *engine.Engine
}

// Options configure a Hub.
type Options struct {
	// Engine is the template for every room's engine. Hooks.Save is replaced
	// by the hub.
	Engine engine.Options
	// Seed loads the initial plan of a new room. Nil leaves rooms empty.
	Seed   func(planID string, e *engine.Engine) error
	Logger *slog.Logger
}

type inbound struct {
	client *Client
	msg    *Message
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // planID -> room
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}
	stopOnce   sync.Once
	opts       Options
	logger     *slog.Logger
}

func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		done:       make(chan struct{}),
		opts:       opts,
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) submit(client *Client, msg *Message) bool {
	select {
	case h.inbound <- inbound{client: client, msg: msg}:
		return true
	case <-h.done:
		return false
	}
}

// RoomCount returns the number of open rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) openRoom(planID string) (*Room, error) {
	room := &Room{
		planID:  planID,
		clients: make(map[string]*Client),
	}
	opts := h.opts.Engine
	opts.Logger = h.logger.With("plan", planID)
	opts.Hooks.Save = func(p *document.Plan) {
		if msg, err := planMessage(p); err == nil {
			msg.PlanID = planID
			h.broadcastToRoom(room, msg, "")
		}
	}
	room.engine = engine.New(opts)
	if h.opts.Seed != nil {
		if err := h.opts.Seed(planID, room.engine); err != nil {
			return nil, fmt.Errorf("seed plan %s: %w", planID, err)
		}
	}
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.PlanID]
	h.mu.RUnlock()
	if !ok {
		var err error
		room, err = h.openRoom(client.PlanID)
		if err != nil {
			h.logger.Error("open room", "plan", client.PlanID, "error", err)
			client.Send(errorMessage("", 0, "plan unavailable"))
			close(client.send)
			return
		}
		h.logger.Info("room opened", "plan", client.PlanID)
	}

	h.mu.Lock()
	h.rooms[client.PlanID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	tools := room.engine.Tools()
	ids := make([]tool.ID, len(tools))
	for i, t := range tools {
		ids[i] = t.ID()
	}
	payload, _ := json.Marshal(WelcomePayload{ClientID: client.ClientID, PlanID: client.PlanID, Tools: ids})
	client.Send(&Message{Type: TypeWelcome, PlanID: client.PlanID, ClientID: client.ClientID, Payload: payload})
	if msg, err := renderMessage(room); err == nil {
		client.Send(msg)
	}

	h.logger.Info("client joined", "client", client.ClientID, "plan", client.PlanID, "clients", len(room.clients))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.PlanID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.PlanID)
	}
	h.mu.Unlock()

	h.logger.Info("client left", "client", client.ClientID, "plan", client.PlanID)
	if empty {
		h.logger.Info("room closed", "plan", client.PlanID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for planID, room := range h.rooms {
		for _, c := range room.clients {
			close(c.send)
		}
		delete(h.rooms, planID)
	}
	h.logger.Info("session hub stopped")
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.PlanID]
	h.mu.RUnlock()
	if !ok || room.clients[sender.ClientID] != sender {
		return
	}

	reply, err := apply(room.engine, msg)
	if err != nil {
		h.logger.Warn("message rejected", "type", msg.Type, "client", sender.ClientID, "error", err)
		sender.Send(errorMessage(msg.Type, msg.Seq, err.Error()))
		return
	}
	if reply != nil {
		reply.Seq = msg.Seq
		reply.PlanID = room.planID
		sender.Send(reply)
		return
	}

	state, err := renderMessage(room)
	if err != nil {
		h.logger.Error("encode render state", "plan", room.planID, "error", err)
		return
	}
	h.broadcastToRoom(room, state, "")
}

func (h *Hub) broadcastToRoom(room *Room, msg *Message, excludeClientID string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func renderMessage(room *Room) (*Message, error) {
	payload, err := json.Marshal(room.engine.RenderState())
	if err != nil {
		return nil, err
	}
	return &Message{Type: TypeRenderState, PlanID: room.planID, Payload: payload}, nil
}

func planMessage(p *document.Plan) (*Message, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &Message{Type: TypePlanDocument, Payload: payload}, nil
}
