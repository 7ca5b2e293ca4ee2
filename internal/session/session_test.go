package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/verdant/verdant/editor-go/internal/document"
	"github.com/verdant/verdant/editor-go/internal/engine"
)

type renderState struct {
	Tool      string             `json:"tool"`
	Selection document.Selection `json:"selection"`
	CanUndo   bool               `json:"canUndo"`
	CanRedo   bool               `json:"canRedo"`
}

func sampleSeed(planID string, e *engine.Engine) error {
	if planID == SamplePlanID {
		return e.LoadSamplePlan()
	}
	return nil
}

func newTestHub(seed func(string, *engine.Engine) error) *Hub {
	return NewHub(Options{
		Engine: engine.DefaultOptions(),
		Seed:   seed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func join(t *testing.T, h *Hub, planID, clientID string) *Client {
	t.Helper()
	c := NewClient(h, nil, planID, clientID)
	h.addClient(c)
	if m := next(t, c); m.Type != TypeWelcome {
		t.Fatalf("first message = %s, want welcome", m.Type)
	}
	if m := next(t, c); m.Type != TypeRenderState {
		t.Fatalf("second message = %s, want render.state", m.Type)
	}
	return c
}

func next(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case f, ok := <-c.send:
		if !ok {
			t.Fatalf("%s: send queue closed", c.ClientID)
		}
		var m Message
		if err := json.Unmarshal(f.data, &m); err != nil {
			t.Fatal(err)
		}
		return m
	default:
		t.Fatalf("%s: no message queued", c.ClientID)
	}
	return Message{}
}

func last(t *testing.T, c *Client) Message {
	t.Helper()
	m := next(t, c)
	for len(c.send) > 0 {
		m = next(t, c)
	}
	return m
}

func expectNone(t *testing.T, c *Client) {
	t.Helper()
	if n := len(c.send); n != 0 {
		t.Fatalf("%s: %d unexpected messages", c.ClientID, n)
	}
}

func send(h *Hub, c *Client, typ string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	h.handleMessage(c, &Message{Type: typ, Seq: 1, Payload: raw})
}

func stateOf(t *testing.T, m Message) renderState {
	t.Helper()
	if m.Type != TypeRenderState {
		t.Fatalf("message = %s, want render.state", m.Type)
	}
	var rs renderState
	if err := json.Unmarshal(m.Payload, &rs); err != nil {
		t.Fatal(err)
	}
	return rs
}

func TestJoinAndLeave(t *testing.T) {
	h := newTestHub(sampleSeed)
	a := join(t, h, SamplePlanID, "a")
	b := join(t, h, SamplePlanID, "b")
	expectNone(t, a)

	if n := h.RoomCount(); n != 1 {
		t.Fatalf("rooms = %d, want 1", n)
	}
	if n := h.rooms[SamplePlanID].engine.Scene().NodeCount(); n != 6 {
		t.Errorf("seeded nodes = %d, want 6", n)
	}

	h.removeClient(a)
	if _, ok := <-a.send; ok {
		t.Error("queue of departed client still open")
	}
	h.removeClient(a)
	if n := h.RoomCount(); n != 1 {
		t.Errorf("rooms = %d after first leave, want 1", n)
	}

	h.removeClient(b)
	if n := h.RoomCount(); n != 0 {
		t.Errorf("rooms = %d after last leave, want 0", n)
	}
}

func TestWelcomeListsTools(t *testing.T) {
	h := newTestHub(nil)
	c := NewClient(h, nil, "p", "c")
	h.addClient(c)

	m := next(t, c)
	var w WelcomePayload
	if err := json.Unmarshal(m.Payload, &w); err != nil {
		t.Fatal(err)
	}
	if w.ClientID != "c" || w.PlanID != "p" || len(w.Tools) != 5 {
		t.Errorf("welcome = %+v", w)
	}
}

func TestDrawingIsBroadcast(t *testing.T) {
	h := newTestHub(nil)
	a := join(t, h, "p", "a")
	b := join(t, h, "p", "b")
	e := h.rooms["p"].engine

	send(h, a, TypeToolSet, ToolPayload{Tool: "draw-bed"})
	if rs := stateOf(t, next(t, b)); rs.Tool != "draw-bed" {
		t.Fatalf("tool = %q", rs.Tool)
	}

	send(h, a, TypePointer, map[string]any{"phase": PhaseDown, "x": 100, "y": 100})
	send(h, a, TypePointer, map[string]any{"phase": PhaseMove, "x": 148, "y": 124})
	send(h, a, TypePointer, map[string]any{"phase": PhaseUp, "x": 148, "y": 124})

	if n := e.Scene().NodeCount(); n != 1 {
		t.Fatalf("nodes = %d, want 1", n)
	}
	rs := stateOf(t, last(t, b))
	if !rs.CanUndo || len(rs.Selection.IDs) != 1 {
		t.Errorf("state after draw = %+v", rs)
	}
	last(t, a)

	send(h, b, TypeUndo, nil)
	if n := e.Scene().NodeCount(); n != 0 {
		t.Errorf("nodes after undo = %d, want 0", n)
	}
	if rs := stateOf(t, next(t, a)); !rs.CanRedo || len(rs.Selection.IDs) != 0 {
		t.Errorf("state after undo = %+v", rs)
	}
}

func TestRejectedMessages(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		payload any
	}{
		{"unknown type", "object.explode", nil},
		{"pointer phase", TypePointer, map[string]any{"phase": "hover"}},
		{"missing payload", TypeWheel, nil},
		{"unknown tool", TypeToolSet, ToolPayload{Tool: "lasso"}},
		{"empty history", TypeUndo, nil},
		{"bad axis", TypeFlip, FlipPayload{Axis: "z"}},
		{"bad edge", TypeAlign, AlignPayload{Edge: "north"}},
		{"bad plan", TypePlanLoad, map[string]any{"plan": map[string]any{"version": "plan.v0"}}},
		{"missing layer", TypeLayerRemove, LayerPayload{LayerID: "layer_missing"}},
		{"malformed frame", typeMalformed, "unexpected end of JSON input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHub(sampleSeed)
			a := join(t, h, SamplePlanID, "a")
			b := join(t, h, SamplePlanID, "b")

			send(h, a, tt.typ, tt.payload)

			m := next(t, a)
			if m.Type != TypeError {
				t.Fatalf("reply = %s, want error", m.Type)
			}
			var p ErrorPayload
			if err := json.Unmarshal(m.Payload, &p); err != nil {
				t.Fatal(err)
			}
			if p.Request != tt.typ || p.Message == "" || p.Seq != 1 {
				t.Errorf("error = %+v", p)
			}
			expectNone(t, a)
			expectNone(t, b)
		})
	}
}

func TestPlanGetRepliesToSender(t *testing.T) {
	h := newTestHub(sampleSeed)
	a := join(t, h, SamplePlanID, "a")
	b := join(t, h, SamplePlanID, "b")

	send(h, a, TypePlanGet, nil)
	m := next(t, a)
	if m.Type != TypePlanDocument || m.PlanID != SamplePlanID || m.Seq != 1 {
		t.Fatalf("reply = %+v", m)
	}
	p, err := document.ParsePlan(m.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if p.Scene.NodeCount() != 6 {
		t.Errorf("plan nodes = %d, want 6", p.Scene.NodeCount())
	}
	expectNone(t, b)
}

func TestPlanLoadReplacesRoomPlan(t *testing.T) {
	h := newTestHub(nil)
	a := join(t, h, "p", "a")

	data, err := json.Marshal(document.NewSamplePlan())
	if err != nil {
		t.Fatal(err)
	}
	send(h, a, TypePlanLoad, PlanPayload{Plan: data})
	stateOf(t, next(t, a))
	if n := h.rooms["p"].engine.Scene().NodeCount(); n != 6 {
		t.Errorf("nodes = %d, want 6", n)
	}
}

func TestSaveShortcutBroadcastsPlan(t *testing.T) {
	h := newTestHub(sampleSeed)
	a := join(t, h, SamplePlanID, "a")
	b := join(t, h, SamplePlanID, "b")

	send(h, a, TypeKey, map[string]any{"phase": PhaseDown, "key": "s", "ctrl": true})

	for _, c := range []*Client{a, b} {
		if m := next(t, c); m.Type != TypePlanDocument || m.PlanID != SamplePlanID {
			t.Errorf("%s: first = %+v, want plan.document", c.ClientID, m)
		}
		stateOf(t, next(t, c))
	}
}

func TestSelectionEdits(t *testing.T) {
	h := newTestHub(sampleSeed)
	a := join(t, h, SamplePlanID, "a")
	e := h.rooms[SamplePlanID].engine

	var beds []string
	for _, n := range e.Scene().Layers[0].Nodes {
		if n.Kind == document.KindBed {
			beds = append(beds, n.ID)
		}
	}
	send(h, a, TypeSelect, SelectPayload{IDs: beds[:2]})
	send(h, a, TypeDuplicate, nil)
	send(h, a, TypeAlign, AlignPayload{Edge: "top"})
	last(t, a)

	if n := e.Scene().NodeCount(); n != 8 {
		t.Fatalf("nodes = %d, want 8", n)
	}
	sel := e.Selection().IDs
	if len(sel) != 2 || sel[0] == beds[0] {
		t.Errorf("selection = %v, want the two copies", sel)
	}

	send(h, a, TypeDelete, nil)
	stateOf(t, next(t, a))
	if n := e.Scene().NodeCount(); n != 6 {
		t.Errorf("nodes after delete = %d, want 6", n)
	}
}

func TestLayers(t *testing.T) {
	h := newTestHub(sampleSeed)
	a := join(t, h, SamplePlanID, "a")
	e := h.rooms[SamplePlanID].engine

	send(h, a, TypeLayerAdd, LayerPayload{Name: "Irrigation"})
	stateOf(t, next(t, a))
	if len(e.Scene().Layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(e.Scene().Layers))
	}
	id := e.ActiveLayerID()

	send(h, a, TypeLayerRemove, LayerPayload{LayerID: id})
	stateOf(t, next(t, a))
	if len(e.Scene().Layers) != 2 || e.ActiveLayerID() == id {
		t.Errorf("layers = %d, active = %s", len(e.Scene().Layers), e.ActiveLayerID())
	}
}

func TestStopClosesClients(t *testing.T) {
	h := newTestHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	c := NewClient(h, nil, "p", "c")
	if err := h.Register(c); err != nil {
		t.Fatal(err)
	}
	h.Stop()
	<-done

	for range c.send {
	}
	if err := h.Register(c); err != ErrHubStopped {
		t.Errorf("register after stop = %v, want ErrHubStopped", err)
	}
	if h.RoomCount() != 0 {
		t.Errorf("rooms = %d after stop", h.RoomCount())
	}
}

func TestWebsocketSession(t *testing.T) {
	h := newTestHub(sampleSeed)
	go h.Run()
	defer h.Stop()

	r := mux.NewRouter()
	r.HandleFunc("/ws/plan/{planId}", h.Handler(nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("bad plan id", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/ws/plan/nope")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/plan/" + SamplePlanID
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMsgSize)

	read := func() Message {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		return m
	}

	if m := read(); m.Type != TypeWelcome {
		t.Fatalf("first = %s, want welcome", m.Type)
	}
	stateOf(t, read())

	payload, _ := json.Marshal(ToolPayload{Tool: "measure"})
	data, _ := json.Marshal(Message{Type: TypeToolSet, Payload: payload})
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatal(err)
	}
	if rs := stateOf(t, read()); rs.Tool != "measure" {
		t.Errorf("tool = %q, want measure", rs.Tool)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":`)); err != nil {
		t.Fatal(err)
	}
	m := read()
	if m.Type != TypeError {
		t.Fatalf("reply to malformed frame = %s, want error", m.Type)
	}
	var p ErrorPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Request != typeMalformed || !strings.Contains(p.Message, "invalid payload") {
		t.Errorf("error = %+v", p)
	}
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name string
		kind websocket.MessageType
		data string
		want string
	}{
		{"message", websocket.MessageText, `{"type":"history.undo","seq":3}`, TypeUndo},
		{"binary", websocket.MessageBinary, `{"type":"history.undo"}`, typeMalformed},
		{"truncated", websocket.MessageText, `{"type":`, typeMalformed},
		{"no type", websocket.MessageText, `{"seq":3}`, typeMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := decodeFrame(tt.kind, []byte(tt.data))
			if msg.Type != tt.want {
				t.Fatalf("type = %q, want %q", msg.Type, tt.want)
			}
			if tt.want == typeMalformed {
				var reason string
				if err := json.Unmarshal(msg.Payload, &reason); err != nil || reason == "" {
					t.Errorf("reason = %q, %v", reason, err)
				}
			}
		})
	}
}

func TestPendingKeepsNewestRenderState(t *testing.T) {
	types := func(batch []frame) []string {
		out := make([]string, len(batch))
		for i, f := range batch {
			out[i] = f.typ
		}
		return out
	}
	tests := []struct {
		name   string
		queued []string
		close  bool
		want   []string
		open   bool
	}{
		{"single", []string{TypeRenderState}, false, []string{TypeRenderState}, true},
		{"states collapse", []string{TypeRenderState, TypeRenderState, TypeRenderState}, false, []string{TypeRenderState}, true},
		{"others kept in order", []string{TypeWelcome, TypeRenderState, TypePlanDocument, TypeRenderState, TypeError}, false,
			[]string{TypeWelcome, TypePlanDocument, TypeRenderState, TypeError}, true},
		{"closed queue", []string{TypeRenderState, TypeRenderState}, true, []string{TypeRenderState}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(newTestHub(nil), nil, "p", "c")
			for i, typ := range tt.queued[1:] {
				c.send <- frame{typ: typ, data: []byte{byte(i)}}
			}
			if tt.close {
				close(c.send)
			}
			batch, open := c.pending(frame{typ: tt.queued[0]})
			if got := types(batch); strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("batch = %v, want %v", got, tt.want)
			}
			if open != tt.open {
				t.Errorf("open = %v, want %v", open, tt.open)
			}
		})
	}
}
