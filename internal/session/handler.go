package session

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/verdant/verdant/editor-go/internal/typeid"
)

// Handler upgrades /ws/plan/{planId} requests and attaches the connection to
// the plan's room.
func (h *Hub) Handler(originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID := mux.Vars(r)["planId"]
		if planID != SamplePlanID {
			if err := typeid.Validate(planID, typeid.PrefixPlan); err != nil {
				http.Error(w, "invalid plan id", http.StatusBadRequest)
				return
			}
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			h.logger.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(h, conn, planID, uuid.New().String())
		if err := h.Register(client); err != nil {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
