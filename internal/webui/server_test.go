package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/restapi"
	"github.com/muurk/dctdash/internal/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubFetcher struct {
	devices []string
	listErr error
}

func (f stubFetcher) CaptureDevices(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f stubFetcher) DeviceDetails(_ context.Context, name string) (*restapi.Details, error) {
	return &restapi.Details{Locked: name == "dev1", ChannelLineup: "L1", EncoderPoolName: "P-" + name}, nil
}

func (f stubFetcher) ExternalLock(_ context.Context, name string) (*restapi.LockState, error) {
	return &restapi.LockState{Locked: false}, nil
}

func newTestServer(t *testing.T, f dashboard.Fetcher) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer("", f, Options{Server: "http://opendct.test:9091/opendct"})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		_ = srv.Stop()
		ts.Close()
	})
	return srv, ts
}

func TestIndexPage(t *testing.T) {
	srv := NewServer("", stubFetcher{}, Options{Server: "http://opendct.test:9091/opendct"})
	r := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`id="dashboard"`, `href="#pools"`, "Channel Lineup", "opendct.test"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPanelsEndpoint(t *testing.T) {
	r := NewServer("", stubFetcher{}, Options{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/panels", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body struct {
		Default string         `json:"default"`
		Panels  []router.Panel `json:"panels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Default != router.PanelDashboard || len(body.Panels) != 4 {
		t.Errorf("panels = %+v", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := NewServer("", stubFetcher{}, Options{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestDashboardEndpoint(t *testing.T) {
	r := NewServer("", stubFetcher{devices: []string{"dev2", "dev1"}}, Options{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var msg struct {
		Table struct {
			Rows []struct {
				Cells []string `json:"cells"`
				State string   `json:"state"`
			} `json:"rows"`
			Order struct {
				Column string `json:"column"`
			} `json:"order"`
		} `json:"table"`
		Pools []dashboard.Group `json:"pools"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(msg.Table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(msg.Table.Rows))
	}
	first := msg.Table.Rows[0]
	if first.Cells[0] != "dev1" || first.Cells[1] != dashboard.StatusActive || first.State != "complete" {
		t.Errorf("first row = %+v", first)
	}
	if msg.Table.Order.Column != "name" {
		t.Errorf("order column = %q, want name", msg.Table.Order.Column)
	}
	if len(msg.Pools) != 2 {
		t.Errorf("pools = %d, want 2", len(msg.Pools))
	}
}

func TestDashboardEndpointEnumerationFailure(t *testing.T) {
	r := NewServer("", stubFetcher{listErr: errors.New("refused")}, Options{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"rows":[]`) {
		t.Errorf("body = %s, want empty rows", w.Body.String())
	}
}

type wsMessage struct {
	Type  string       `json:"type"`
	State router.State `json:"state"`
	Table struct {
		Rows []struct {
			Cells []string `json:"cells"`
			State string   `json:"state"`
		} `json:"rows"`
	} `json:"table"`
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until match returns true
func readUntil(t *testing.T, conn *websocket.Conn, what string, match func(wsMessage) bool) wsMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(msg) {
			return msg
		}
	}
}

func complete(msg wsMessage, n int) bool {
	if msg.Type != MsgTable || len(msg.Table.Rows) != n {
		return false
	}
	for _, row := range msg.Table.Rows {
		if row.State != "complete" {
			return false
		}
	}
	return true
}

func TestWebSocketSession(t *testing.T) {
	srv, ts := newTestServer(t, stubFetcher{devices: []string{"dev2", "dev1"}})
	conn := dial(t, ts)

	initial := readUntil(t, conn, "initial state", func(m wsMessage) bool { return m.Type == MsgState })
	if initial.State != (router.State{}) {
		t.Errorf("initial state = %v, want nothing selected", initial.State)
	}

	if err := conn.WriteJSON(ClientMessage{Type: MsgHash, Fragment: ""}); err != nil {
		t.Fatal(err)
	}
	state := readUntil(t, conn, "dashboard state", func(m wsMessage) bool { return m.Type == MsgState })
	if state.State.Visible != router.PanelDashboard {
		t.Errorf("visible = %q, want dashboard", state.State.Visible)
	}

	table := readUntil(t, conn, "complete table", func(m wsMessage) bool { return complete(m, 2) })
	if table.Table.Rows[0].Cells[0] != "dev1" || table.Table.Rows[0].Cells[1] != dashboard.StatusActive {
		t.Errorf("first row = %v", table.Table.Rows[0].Cells)
	}

	if srv.Sessions() != 1 {
		t.Errorf("Sessions() = %d, want 1", srv.Sessions())
	}
}

func TestWebSocketSelectUnknownPanel(t *testing.T) {
	_, ts := newTestServer(t, stubFetcher{})
	conn := dial(t, ts)
	readUntil(t, conn, "initial state", func(m wsMessage) bool { return m.Type == MsgState })

	if err := conn.WriteJSON(ClientMessage{Type: MsgHash, Fragment: "#pools"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "pools", func(m wsMessage) bool { return m.Type == MsgState && m.State.Visible == router.PanelPools })

	if err := conn.WriteJSON(ClientMessage{Type: MsgSelect, Panel: "settings"}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "empty state", func(m wsMessage) bool { return m.Type == MsgState && m.State == router.State{} })

	if err := conn.WriteJSON(ClientMessage{Type: MsgHome}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "home", func(m wsMessage) bool { return m.Type == MsgState && m.State.Visible == router.PanelDashboard })
}

func TestWebSocketReload(t *testing.T) {
	_, ts := newTestServer(t, stubFetcher{devices: []string{"dev1"}})
	conn := dial(t, ts)

	if err := conn.WriteJSON(ClientMessage{Type: MsgReload}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "reloaded table", func(m wsMessage) bool { return complete(m, 1) })
}

func TestWebSocketSkipsUndecodableFrames(t *testing.T) {
	frames := []struct {
		name  string
		frame string
	}{
		{"not json", "not json"},
		{"truncated", `{"type":`},
		{"empty", ""},
		{"wrong type", `{"type":5}`},
	}

	for _, tt := range frames {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, stubFetcher{})
			conn := dial(t, ts)
			readUntil(t, conn, "initial state", func(m wsMessage) bool { return m.Type == MsgState })

			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.frame)); err != nil {
				t.Fatal(err)
			}
			if err := conn.WriteJSON(ClientMessage{Type: MsgHash, Fragment: "#pools"}); err != nil {
				t.Fatal(err)
			}
			readUntil(t, conn, "pools after bad frame", func(m wsMessage) bool {
				return m.Type == MsgState && m.State.Visible == router.PanelPools
			})
		})
	}
}

func TestWebSocketSelectAfterHome(t *testing.T) {
	_, ts := newTestServer(t, stubFetcher{})
	conn := dial(t, ts)
	readUntil(t, conn, "initial state", func(m wsMessage) bool { return m.Type == MsgState })

	steps := []struct {
		msg  ClientMessage
		want string
	}{
		{ClientMessage{Type: MsgHash, Fragment: "#pools"}, router.PanelPools},
		// The page fragment stays #pools while home shows the dashboard
		{ClientMessage{Type: MsgHome}, router.PanelDashboard},
		{ClientMessage{Type: MsgSelect, Panel: router.PanelPools}, router.PanelPools},
		// Going back to an empty fragment means the dashboard
		{ClientMessage{Type: MsgHash, Fragment: ""}, router.PanelDashboard},
	}
	for _, step := range steps {
		if err := conn.WriteJSON(step.msg); err != nil {
			t.Fatal(err)
		}
		readUntil(t, conn, step.want, func(m wsMessage) bool {
			return m.Type == MsgState && m.State.Visible == step.want && m.State.Active == step.want
		})
	}
}

func TestIndexPageRoutesClicksAndHashes(t *testing.T) {
	r := NewServer("", stubFetcher{}, Options{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	for _, want := range []string{
		`data-panel="pools"`,
		`send({type: "select", panel: a.dataset.panel})`,
		`addEventListener("hashchange", function () { send({type: "hash", fragment: location.hash}); })`,
		`send({type: "refresh"})`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestWebSocketRefreshRows(t *testing.T) {
	_, ts := newTestServer(t, stubFetcher{devices: []string{"dev1"}})
	conn := dial(t, ts)

	if err := conn.WriteJSON(ClientMessage{Type: MsgReload}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "loaded table", func(m wsMessage) bool { return complete(m, 1) })

	// Row details are re-requested without enumeration; cells append
	if err := conn.WriteJSON(ClientMessage{Type: MsgRefresh}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, "refreshed row", func(m wsMessage) bool {
		return m.Type == MsgTable && len(m.Table.Rows) == 1 &&
			m.Table.Rows[0].Cells[1] == dashboard.StatusActive+dashboard.StatusActive &&
			m.Table.Rows[0].Cells[4] == "P-dev1P-dev1"
	})
}
