package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/rsned/cultivation-server/internal/cultivation/db"
	"github.com/rsned/cultivation-server/internal/cultivation/engine"
	cultsync "github.com/rsned/cultivation-server/internal/cultivation/sync"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	database, err := db.OpenAndInit(ctx, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("OpenAndInit: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	eng := engine.New(database)
	if err := eng.SeedBuiltinPresets(ctx); err != nil {
		t.Fatalf("SeedBuiltinPresets: %v", err)
	}
	h := NewHandler(eng, cultsync.NewSyncer(database, eng))
	go h.Hub().Run(ctx)

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestListPresets(t *testing.T) {
	srv := newTestServer(t)

	var presets []cultivation.Preset
	if code := do(t, http.MethodGet, srv.URL+"/api/presets", "", &presets); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	var ids []string
	for _, p := range presets {
		ids = append(ids, p.ID)
	}
	want := []string{"mortal", "genius", "high-martial", "tycoon", "fast-cultivation", "hard-mode"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("preset ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDeletePreset(t *testing.T) {
	srv := newTestServer(t)

	if code := do(t, http.MethodDelete, srv.URL+"/api/presets/mortal", "", nil); code != http.StatusConflict {
		t.Errorf("delete built-in: status %d, want 409", code)
	}
	if code := do(t, http.MethodDelete, srv.URL+"/api/presets/nope", "", nil); code != http.StatusNotFound {
		t.Errorf("delete unknown: status %d, want 404", code)
	}
}

func TestCalculateStatusCodes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body uses current selection", "", http.StatusOK},
		{"preset", `{"preset_id":"genius"}`, http.StatusOK},
		{"invalid override", `{"overrides":{"base_cost":-1}}`, http.StatusUnprocessableEntity},
		{"overflowing base cost", `{"overrides":{"base_cost":1e307,"technique_quality":0.1,"spiritual_root_coefficient":0.1}}`, http.StatusUnprocessableEntity},
		{"unknown preset", `{"preset_id":"nope"}`, http.StatusNotFound},
		{"unknown scheme", `{"scheme_id":"nope"}`, http.StatusNotFound},
		{"malformed", `{"preset_id":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := do(t, http.MethodPost, srv.URL+"/api/calculate", tt.body, nil); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalculateOverflowingParamsReportErrors(t *testing.T) {
	srv := newTestServer(t)

	var resp cultivation.CalculateResponse
	body := `{"overrides":{"base_cost":1e307,"large_stage_multiplier":5000}}`
	if code := do(t, http.MethodPost, srv.URL+"/api/calculate", body, &resp); code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", code, http.StatusUnprocessableEntity)
	}
	if resp.Result != nil || len(resp.Errors) != 2 {
		t.Errorf("response = %+v, want two errors and no result", resp)
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"cost": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var payload errorPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload.Error != "internal error" {
		t.Errorf("body = %q, %v", rec.Body.String(), err)
	}
}

func TestCalculateBody(t *testing.T) {
	srv := newTestServer(t)

	var resp cultivation.CalculateResponse
	do(t, http.MethodPost, srv.URL+"/api/calculate", `{"preset_id":"mortal"}`, &resp)
	if resp.Result == nil {
		t.Fatalf("no result, errors %q", resp.Errors)
	}
	if got, want := resp.Result.HighestStageReached, "Qi Condensation Layer 11"; got != want {
		t.Errorf("highest stage = %q, want %q", got, want)
	}

	var invalid cultivation.CalculateResponse
	do(t, http.MethodPost, srv.URL+"/api/calculate", `{"overrides":{"first_stage_sub_count":2}}`, &invalid)
	if diff := cmp.Diff([]string{"first_stage_sub_count must be between 3 and 20"}, invalid.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if invalid.Result != nil {
		t.Error("result must be omitted when validation fails")
	}
}

func TestCoefficients(t *testing.T) {
	srv := newTestServer(t)

	var got cultivation.CoefficientsResponse
	if code := do(t, http.MethodPost, srv.URL+"/api/coefficients", `{"preset_id":"mortal"}`, &got); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if got.ConversionRateFormatted != "1.03x" || got.MineOutput != 300 {
		t.Errorf("coefficients = %+v", got)
	}
}

func TestSchemeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var saved cultivation.Scheme
	code := do(t, http.MethodPost, srv.URL+"/api/schemes", `{"name":"Sect A","preset_id":"tycoon"}`, &saved)
	if code != http.StatusCreated || saved.ID == "" {
		t.Fatalf("save: status %d, scheme %+v", code, saved)
	}

	if code := do(t, http.MethodPost, srv.URL+"/api/schemes", `{"name":"  "}`, nil); code != http.StatusBadRequest {
		t.Errorf("save without name: status %d, want 400", code)
	}

	var fetched cultivation.Scheme
	do(t, http.MethodGet, srv.URL+"/api/schemes/"+saved.ID, "", &fetched)
	if fetched.Name != "Sect A" {
		t.Errorf("fetched name = %q", fetched.Name)
	}

	if code := do(t, http.MethodPatch, srv.URL+"/api/schemes/"+saved.ID, `{"name":"Sect B"}`, nil); code != http.StatusNoContent {
		t.Errorf("rename: status %d, want 204", code)
	}

	var export cultivation.SchemeExport
	do(t, http.MethodGet, srv.URL+"/api/schemes/"+saved.ID+"/export", "", &export)
	if export.Name != "Sect B" || export.ExportedAt == "" {
		t.Errorf("export = %+v", export)
	}

	data, err := json.Marshal([]cultivation.SchemeExport{export, export})
	if err != nil {
		t.Fatal(err)
	}
	var imported []cultivation.Scheme
	if code := do(t, http.MethodPost, srv.URL+"/api/schemes/import", string(data), &imported); code != http.StatusCreated {
		t.Fatalf("import: status %d", code)
	}
	if len(imported) != 2 {
		t.Errorf("imported %d schemes, want 2", len(imported))
	}
	if code := do(t, http.MethodPost, srv.URL+"/api/schemes/import", `"nope"`, nil); code != http.StatusBadRequest {
		t.Errorf("import invalid: status %d, want 400", code)
	}

	var listed []cultivation.Scheme
	do(t, http.MethodGet, srv.URL+"/api/schemes", "", &listed)
	if len(listed) != 3 {
		t.Errorf("listed %d schemes, want 3", len(listed))
	}

	if code := do(t, http.MethodDelete, srv.URL+"/api/schemes/"+saved.ID, "", nil); code != http.StatusNoContent {
		t.Errorf("delete: status %d, want 204", code)
	}
	if code := do(t, http.MethodGet, srv.URL+"/api/schemes/"+saved.ID, "", nil); code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", code)
	}
}

func TestCurrentEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var cur cultivation.CurrentResponse
	code := do(t, http.MethodPut, srv.URL+"/api/current", `{"preset_id":"hard-mode","overrides":{"mine_level":9}}`, &cur)
	if code != http.StatusOK {
		t.Fatalf("set current: status %d", code)
	}
	if cur.PresetID != "hard-mode" || cur.Resource.Mine.Level != 9 {
		t.Errorf("current = %+v", cur)
	}
	if code := do(t, http.MethodPut, srv.URL+"/api/current", `{"preset_id":"nope"}`, nil); code != http.StatusNotFound {
		t.Errorf("unknown preset: status %d, want 404", code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/calculate", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestWebSocketCalculate(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	if err := conn.WriteJSON(Message{Type: MsgCalculate, ID: 7, Payload: json.RawMessage(`{"preset_id":"mortal"}`)}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != MsgResult || msg.ID != 7 {
		t.Fatalf("got %s #%d, want result #7", msg.Type, msg.ID)
	}
	var resp cultivation.CalculateResponse
	if err := json.Unmarshal(msg.Payload, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result == nil || resp.Result.HighestStageReached != "Qi Condensation Layer 11" {
		t.Errorf("unexpected payload: %s", msg.Payload)
	}

	if err := conn.WriteJSON(Message{Type: MsgCalculate, ID: 8, Payload: json.RawMessage(`{"preset_id":"nope"}`)}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgError || msg.ID != 8 {
		t.Errorf("got %s #%d, want error #8", msg.Type, msg.ID)
	}

	if err := conn.WriteJSON(Message{Type: "bogus", ID: 9}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgError || msg.ID != 9 {
		t.Errorf("got %s #%d, want error #9", msg.Type, msg.ID)
	}
}

func TestWebSocketSchemesChangedBroadcast(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	// A round trip guarantees the client is registered with the hub.
	if err := conn.WriteJSON(Message{Type: MsgCalculate, ID: 1}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgResult {
		t.Fatalf("got %s, want result", msg.Type)
	}

	var saved cultivation.Scheme
	do(t, http.MethodPost, srv.URL+"/api/schemes", `{"name":"Broadcast me"}`, &saved)

	msg := readMessage(t, conn)
	if msg.Type != MsgSchemesChanged {
		t.Fatalf("got %s, want %s", msg.Type, MsgSchemesChanged)
	}
	var change schemesChanged
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(schemesChanged{Action: "saved", IDs: []string{saved.ID}}, change); diff != "" {
		t.Errorf("broadcast mismatch (-want +got):\n%s", diff)
	}
}

func TestEnqueueKeepsNewest(t *testing.T) {
	c := &Client{
		hub:     &Hub{logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		pending: make(chan Message, 1),
	}
	for id := int64(1); id <= 3; id++ {
		c.enqueue(Message{Type: MsgCalculate, ID: id})
	}
	if len(c.pending) != 1 {
		t.Fatalf("pending holds %d requests, want 1", len(c.pending))
	}
	if got := (<-c.pending).ID; got != 3 {
		t.Errorf("pending request id = %d, want 3", got)
	}
}

func TestReplyUnencodableSendsError(t *testing.T) {
	c := &Client{
		hub:  &Hub{logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		send: make(chan []byte, 1),
		done: make(chan struct{}),
	}
	c.reply(MsgResult, 4, map[string]float64{"ratio": math.NaN()})

	var msg Message
	if err := json.Unmarshal(<-c.send, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != MsgError || msg.ID != 4 {
		t.Errorf("reply = %+v, want an error for id 4", msg)
	}
}
