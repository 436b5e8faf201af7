package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"matrixnotes/notesync"
	"matrixnotes/pkg/logger"
	"matrixnotes/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows the SPA dev server to connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Session is one authenticated WebSocket connection. It owns exactly one
// controller: activated with the user's id on connect, deactivated on
// disconnect. Inbound messages are controller commands; every state change
// goes back out as a STATE event.
type Session struct {
	Conn   *websocket.Conn
	Ctrl   *notesync.Controller
	UserID string
	Send   chan []byte

	done chan struct{}
}

// ServeWs upgrades the connection and runs a session for the given user.
func ServeWs(st store.Store, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	sess := &Session{
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
		done:   make(chan struct{}),
	}
	sess.Ctrl = notesync.New(st)
	sess.Ctrl.SetOnChange(sess.pushState)
	sess.Ctrl.SetOnSubscribeError(func(err error) {
		logger.Sugar.Errorf("Subscription failed for user %s: %v", userID, err)
		sess.pushError(err)
	})

	go sess.writePump()
	go sess.readPump()
}

func (s *Session) readPump() {
	defer func() {
		s.Ctrl.Deactivate()
		close(s.done)
		s.Conn.Close()
	}()

	if err := s.Ctrl.Activate(s.UserID); err != nil {
		logger.Sugar.Errorf("Failed to activate session for user %s: %v", s.UserID, err)
		s.pushError(err)
		return
	}

	for {
		_, rawMessage, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		s.handle(msg)
	}
}

// handle dispatches one client command. Command failures go back to this
// client as ERROR events; none of them ends the session.
func (s *Session) handle(msg WSMessage) {
	switch msg.Type {
	case CreateType:
		var p TextPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Errorf("Bad %s payload: %v", msg.Type, err)
			return
		}
		if err := s.Ctrl.Create(p.Text); err != nil {
			s.pushError(err)
		}
	case SetDraftType:
		var p TextPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Errorf("Bad %s payload: %v", msg.Type, err)
			return
		}
		s.Ctrl.SetDraft(p.Text)
	case BeginEditType:
		var p NoteRefPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Errorf("Bad %s payload: %v", msg.Type, err)
			return
		}
		if err := s.Ctrl.BeginEdit(p.NoteID); err != nil {
			s.pushError(err)
		}
	case EditDraftType:
		var p TextPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Errorf("Bad %s payload: %v", msg.Type, err)
			return
		}
		s.Ctrl.UpdateEditDraft(p.Text)
	case CommitEditType:
		if err := s.Ctrl.CommitEdit(); err != nil {
			s.pushError(err)
		}
	case CancelEditType:
		s.Ctrl.CancelEdit()
	case DeleteType:
		var p NoteRefPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			logger.Sugar.Errorf("Bad %s payload: %v", msg.Type, err)
			return
		}
		if err := s.Ctrl.Delete(p.NoteID); err != nil {
			s.pushError(err)
		}
	default:
		logger.Sugar.Warnf("Unknown message type %q from user %s", msg.Type, s.UserID)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(30 * time.Second) // Send ping every 30s
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case message := <-s.Send:
			s.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}

func (s *Session) pushState(state notesync.State) {
	payload, err := json.Marshal(state)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling state for user %s: %v", s.UserID, err)
		return
	}
	s.push(WSMessage{Type: StateType, Payload: payload})
}

func (s *Session) pushError(err error) {
	payload, marshalErr := json.Marshal(errorPayload(err))
	if marshalErr != nil {
		logger.Sugar.Errorf("Error marshalling error payload: %v", marshalErr)
		return
	}
	s.push(WSMessage{Type: ErrorType, Payload: payload})
}

func (s *Session) push(msg WSMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling message: %v", err)
		return
	}
	select {
	case s.Send <- raw:
	default:
		// The client is lagging badly; newer state will follow anyway.
		logger.Sugar.Warnf("Send buffer full for user %s, dropping message", s.UserID)
	}
}
