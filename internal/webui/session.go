package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/logging"
	"github.com/muurk/dctdash/internal/router"
)

const (
	writeWait    = 10 * time.Second
	maxInbound   = 4096
	outboundSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The mirror is read-only
	},
}

// Client message types
const (
	MsgSelect  = "select"  // {"type":"select","panel":"pools"}
	MsgHash    = "hash"    // {"type":"hash","fragment":"#pools"}
	MsgHome    = "home"    // {"type":"home"}
	MsgReload  = "reload"  // {"type":"reload"}
	MsgRefresh = "refresh" // {"type":"refresh"}, re-requests row details only
)

// Server message types
const (
	MsgState = "state"
	MsgTable = "table"
)

// ClientMessage is sent by the page
type ClientMessage struct {
	Type     string `json:"type"`
	Panel    string `json:"panel,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

// StateMessage reports the panel selection
type StateMessage struct {
	Type   string         `json:"type"`
	State  router.State   `json:"state"`
	Panels []router.Panel `json:"panels"`
}

// TableMessage carries a table snapshot and the grouped panels
type TableMessage struct {
	Type    string             `json:"type"`
	Table   dashboard.Snapshot `json:"table"`
	Lineups []dashboard.Group  `json:"lineups"`
	Pools   []dashboard.Group  `json:"pools"`
}

func newTableMessage(t *dashboard.Table) TableMessage {
	return TableMessage{
		Type:    MsgTable,
		Table:   t.Snapshot(),
		Lineups: t.Groups(dashboard.ColumnLineup),
		Pools:   t.Groups(dashboard.ColumnPool),
	}
}

// session is one websocket client with its own router and table
type session struct {
	conn   *websocket.Conn
	router *router.Router
	table  *dashboard.Table
	loader *dashboard.Loader

	ctx    context.Context
	cancel context.CancelFunc

	send       chan any
	tableDirty chan struct{}
}

func (s *Server) newSession(conn *websocket.Conn) *session {
	ctx, cancel := context.WithCancel(s.ctx)
	table := s.newTable()
	sess := &session{
		conn:       conn,
		router:     router.New(nil),
		table:      table,
		loader:     dashboard.NewLoader(s.fetcher, table),
		ctx:        ctx,
		cancel:     cancel,
		send:       make(chan any, outboundSize),
		tableDirty: make(chan struct{}, 1),
	}

	table.OnUpdate(func() {
		select {
		case sess.tableDirty <- struct{}{}:
		default:
		}
	})
	sess.router.OnChange(func(prev, next router.State) {
		logging.LogSelection(prev.Visible, next.Visible)
		sess.push(sess.stateMessage())
		if next.Visible == router.PanelDashboard && prev.Visible != router.PanelDashboard {
			sess.loader.LoadDeviceList(sess.ctx)
		}
	})
	return sess
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sess := s.newSession(conn)
	s.sessions.Add(1)
	logging.Debug("WebSocket client connected", zap.String("remote", c.Request.RemoteAddr))

	go sess.writeLoop()
	sess.push(sess.stateMessage())
	sess.readLoop()

	s.sessions.Add(-1)
	logging.Debug("WebSocket client disconnected", zap.String("remote", c.Request.RemoteAddr))
}

func (sess *session) stateMessage() StateMessage {
	return StateMessage{Type: MsgState, State: sess.router.State(), Panels: sess.router.Panels()}
}

// push queues a message, dropping it if the client is not keeping up
func (sess *session) push(msg any) {
	select {
	case sess.send <- msg:
	case <-sess.ctx.Done():
	default:
		logging.Debug("Dropping websocket message for slow client")
	}
}

func (sess *session) readLoop() {
	defer sess.cancel()
	sess.conn.SetReadLimit(maxInbound)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Undecodable frames are dropped; only a read error ends the session
			logging.Debug("Skipping undecodable websocket frame", zap.Int("bytes", len(data)), zap.Error(err))
			continue
		}
		sess.handle(msg)
	}
}

func (sess *session) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgSelect:
		if _, ok := sess.router.Lookup(msg.Panel); !ok {
			logging.Debug("Selecting unknown panel", zap.String("panel", msg.Panel))
		}
		sess.router.Select(msg.Panel)
	case MsgHash:
		sess.router.SelectFromFragment(msg.Fragment)
	case MsgHome:
		sess.router.Home()
	case MsgReload:
		sess.loader.LoadDeviceList(sess.ctx)
	case MsgRefresh:
		sess.loader.RefreshRowDetails(sess.ctx)
	default:
		logging.Debug("Ignoring websocket message", zap.String("type", msg.Type))
	}
}

func (sess *session) writeLoop() {
	defer sess.conn.Close()

	for {
		var msg any
		select {
		case <-sess.ctx.Done():
			_ = sess.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case msg = <-sess.send:
		case <-sess.tableDirty:
			msg = newTableMessage(sess.table)
		}

		_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sess.conn.WriteJSON(msg); err != nil {
			logging.Debug("WebSocket write failed", zap.Error(err))
			sess.cancel()
			return
		}
	}
}
