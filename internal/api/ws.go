package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // editor clients connect from arbitrary origins on localhost
	},
}

// WebSocket message types from client.
const (
	wsMsgAnalyze  = "analyze"
	wsMsgAnnotate = "annotate"
	wsMsgClear    = "clear"
)

// WebSocket message types to client.
const (
	wsMsgAnnotations = "annotations"
	wsMsgCleared     = "cleared"
	wsMsgError       = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsAnalyze is the payload for "analyze" messages.
type wsAnalyze struct {
	Path   string `json:"path"`
	Policy string `json:"policy,omitempty"`
}

// wsClear is the payload for "clear" messages.
type wsClear struct {
	Path string `json:"path"`
}

type wsClearedResponse struct {
	Path string `json:"path"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	entry := log.WithField("conn", uuid.NewString())
	entry.Debug("websocket connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				entry.WithError(err).Warn("websocket read")
			}
			entry.Debug("websocket closed")
			return
		}
		entry.WithField("bytes", len(raw)).Trace("websocket message")

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sendWSError(conn, errorJSON{Error: "invalid message format"})
			continue
		}

		switch msg.Type {
		case wsMsgAnalyze:
			s.handleWSAnalyze(r, conn, msg.Data, entry)
		case wsMsgAnnotate:
			handleWSAnnotate(conn, msg.Data)
		case wsMsgClear:
			s.handleWSClear(conn, msg.Data)
		default:
			sendWSError(conn, errorJSON{Error: "unknown message type: " + msg.Type})
		}
	}
}

func (s *Server) handleWSAnalyze(r *http.Request, conn *websocket.Conn, data json.RawMessage, entry *log.Entry) {
	if s.annotator == nil {
		sendWSError(conn, errorJSON{Error: "analyzer not configured"})
		return
	}

	var req wsAnalyze
	if err := json.Unmarshal(data, &req); err != nil || req.Path == "" {
		sendWSError(conn, errorJSON{Error: "invalid analyze data"})
		return
	}

	path, res, cached, err := s.analyze(r.Context(), req.Path, req.Policy)
	if err != nil {
		_, body := analyzeFailure(err)
		entry.WithField("path", path).WithError(err).Warn("analyze failed")
		sendWSError(conn, body)
		return
	}

	resp := toAnnotationsJSON(path, res)
	resp.Cached = cached
	sendWSMessage(conn, wsMsgAnnotations, resp)
}

func handleWSAnnotate(conn *websocket.Conn, data json.RawMessage) {
	var req annotateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, errorJSON{Error: "invalid annotate data"})
		return
	}
	res, err := annotateOutput(req)
	if err != nil {
		sendWSError(conn, errorJSON{Error: err.Error()})
		return
	}
	sendWSMessage(conn, wsMsgAnnotations, toAnnotationsJSON("", res))
}

func (s *Server) handleWSClear(conn *websocket.Conn, data json.RawMessage) {
	var req wsClear
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, errorJSON{Error: "invalid clear data"})
		return
	}
	if req.Path == "" {
		s.store.ClearAll()
		sendWSMessage(conn, wsMsgCleared, wsClearedResponse{})
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		sendWSError(conn, errorJSON{Error: err.Error()})
		return
	}
	s.store.Clear(abs)
	sendWSMessage(conn, wsMsgCleared, wsClearedResponse{Path: abs})
}

func sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.WithError(err).Error("ws marshal")
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		log.WithError(err).Warn("ws write")
	}
}

func sendWSError(conn *websocket.Conn, body errorJSON) {
	sendWSMessage(conn, wsMsgError, body)
}
