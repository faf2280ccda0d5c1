package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"ameditor/pkg/editor"
	"ameditor/pkg/markers"
)

// Inbound editor event types.
const (
	eventChange    = "change"
	eventMarkers   = "markers"
	eventFormState = "form_state"
)

// clientEvent is the envelope the editor client sends over the WebSocket.
type clientEvent struct {
	Type    string           `json:"type"`
	DocID   string           `json:"doc_id,omitempty"`
	Text    string           `json:"text,omitempty"`
	Markers []markers.Marker `json:"markers,omitempty"`
	State   string           `json:"state,omitempty"`
}

// verdictEvent is pushed to the client whenever the verdict slot changes.
type verdictEvent struct {
	Type       string `json:"type"`
	Verdict    string `json:"verdict"`
	ErrorPanel string `json:"error_panel,omitempty"`
}

// handleWebSocket upgrades the connection and runs the editor event loop.
// Change events update the session's document slot and feed the debouncer;
// marker events replace the document's marker set. Verdict changes stream
// back on the same connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	defer close(done)

	// Single writer goroutine; gorilla connections allow one concurrent
	// writer only.
	go s.pushVerdicts(conn, sess, done)

	for {
		var event clientEvent
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed for session %s: %v", sess.ID(), err)
			}
			return
		}

		switch event.Type {
		case eventChange:
			sess.OnChange(event.Text, event.DocID)
		case eventMarkers:
			s.markers.Replace(event.DocID, event.Markers)
		case eventFormState:
			sess.SetFormState(parseFormState(event.State))
		default:
			s.logger.Debug("ignoring unknown event type %q", event.Type)
		}
	}
}

// pushVerdicts streams the current verdict on every slot change until the
// read loop exits. Each connection holds its own subscription, so several
// clients attached to one session all see every change.
func (s *Server) pushVerdicts(conn *websocket.Conn, sess *editor.Session, done <-chan struct{}) {
	changes := sess.SubscribeVerdicts()
	defer sess.UnsubscribeVerdicts(changes)

	send := func() bool {
		err := conn.WriteJSON(verdictEvent{
			Type:       "verdict",
			Verdict:    sess.Verdict().String(),
			ErrorPanel: sess.ErrorPanel(),
		})
		return err == nil
	}

	// Initial state so the client does not wait for the first change.
	if !send() {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-changes:
			if !send() {
				return
			}
		}
	}
}

func parseFormState(state string) editor.FormState {
	switch state {
	case "active":
		return editor.FormActive
	case "submitting":
		return editor.FormSubmitting
	default:
		return editor.FormIdle
	}
}
