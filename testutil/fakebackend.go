package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Route names accepted by FakeBackend.FailNext
const (
	RouteUpload   = "upload"
	RouteChat     = "chat"
	RouteMessages = "messages"
	RouteSession  = "session"
	RouteHealth   = "health"
)

// FakeMessage is a stored message in wire form
type FakeMessage struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	CreatedAt string            `json:"created_at"`
	Artifacts []json.RawMessage `json:"artifacts"`
}

// RecordedRequest captures what the client sent
type RecordedRequest struct {
	Method    string
	Path      string
	Query     string
	RequestID string
	Form      map[string]string
	Filename  string
	FileBody  string
	JSON      map[string]interface{}
}

type failure struct {
	status int
	detail interface{}
}

type fakeSession struct {
	id        string
	createdAt time.Time
	uploadID  string
}

// FakeBackend is an in-process implementation of the analysis API. Messages
// are listed newest first and cursors are the id of a page's last item.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	sessions map[string]*fakeSession
	uploads  map[string]string // upload id -> session id
	messages map[string][]FakeMessage
	failures map[string][]failure
	requests []RecordedRequest
	seq      int
	clock    time.Time

	// ChatArtifacts, when set, replaces the artifacts of every chat reply
	ChatArtifacts []json.RawMessage
	// StuckCursor makes every message page claim more data behind the same cursor
	StuckCursor bool
}

// NewFakeBackend starts a fake backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		sessions: make(map[string]*fakeSession),
		uploads:  make(map[string]string),
		messages: make(map[string][]FakeMessage),
		failures: make(map[string][]failure),
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", fb.guard(RouteHealth, fb.handleHealth))
		r.Post("/excel/upload", fb.guard(RouteUpload, fb.handleUpload))
		r.Post("/excel/chat", fb.guard(RouteChat, fb.handleChat))
		r.Get("/sessions/{sessionID}", fb.guard(RouteSession, fb.handleGetSession))
		r.Get("/sessions/{sessionID}/messages", fb.guard(RouteMessages, fb.handleMessages))
	})

	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the server root (without the /api prefix)
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// FailNext makes the next call to route answer with status and a detail body.
// A nil detail sends an empty JSON object.
func (fb *FakeBackend) FailNext(route string, status int, detail interface{}) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failures[route] = append(fb.failures[route], failure{status: status, detail: detail})
}

// Requests returns every request received so far
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]RecordedRequest(nil), fb.requests...)
}

// LastRequest returns the most recent request
func (fb *FakeBackend) LastRequest() RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) == 0 {
		return RecordedRequest{}
	}
	return fb.requests[len(fb.requests)-1]
}

// SeedSession creates a session with one upload and n alternating user and
// assistant messages. It returns the session id, upload id and the message
// ids in creation order.
func (fb *FakeBackend) SeedSession(n int) (string, string, []string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	sess := fb.newSessionLocked()
	uploadID := uuid.NewString()
	sess.uploadID = uploadID
	fb.uploads[uploadID] = sess.id

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		m := fb.appendMessageLocked(sess.id, role, fmt.Sprintf("message %d", i), nil)
		ids = append(ids, m.ID)
	}
	return sess.id, uploadID, ids
}

// Messages returns a session's messages in creation order
func (fb *FakeBackend) Messages(sessionID string) []FakeMessage {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]FakeMessage(nil), fb.messages[sessionID]...)
}

func (fb *FakeBackend) guard(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		var f *failure
		if queued := fb.failures[route]; len(queued) > 0 {
			f = &queued[0]
			fb.failures[route] = queued[1:]
		}
		fb.mu.Unlock()

		if f != nil {
			fb.record(r, RecordedRequest{})
			body := map[string]interface{}{}
			if f.detail != nil {
				body["detail"] = f.detail
			}
			writeJSON(w, f.status, body)
			return
		}
		next(w, r)
	}
}

func (fb *FakeBackend) record(r *http.Request, rec RecordedRequest) {
	rec.Method = r.Method
	rec.Path = r.URL.Path
	rec.Query = r.URL.RawQuery
	rec.RequestID = r.Header.Get("X-Request-ID")
	fb.mu.Lock()
	fb.requests = append(fb.requests, rec)
	fb.mu.Unlock()
}

func (fb *FakeBackend) handleHealth(w http.ResponseWriter, r *http.Request) {
	fb.record(r, RecordedRequest{})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": "DataWhisper", "env": "test"})
}

func (fb *FakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		fb.record(r, RecordedRequest{})
		writeDetail(w, http.StatusUnprocessableEntity, "invalid multipart body")
		return
	}
	rec := RecordedRequest{Form: map[string]string{}}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			rec.Form[k] = v[0]
		}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		fb.record(r, rec)
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	content, _ := io.ReadAll(file)
	rec.Filename = header.Filename
	rec.FileBody = string(content)
	fb.record(r, rec)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	var sess *fakeSession
	if sid := rec.Form["session_id"]; sid != "" {
		sess = fb.sessions[sid]
		if sess == nil {
			writeDetail(w, http.StatusNotFound, "session not found")
			return
		}
	} else {
		sess = fb.newSessionLocked()
	}

	uploadID := uuid.NewString()
	sess.uploadID = uploadID
	fb.uploads[uploadID] = sess.id

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sess.id,
		"upload_id":  uploadID,
		"filename":   header.Filename,
		"profile":    FakeProfile(),
	})
}

func (fb *FakeBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fb.record(r, RecordedRequest{})
		writeDetail(w, http.StatusUnprocessableEntity, "invalid json")
		return
	}
	fb.record(r, RecordedRequest{JSON: body})

	sessionID, _ := body["session_id"].(string)
	uploadID, _ := body["upload_id"].(string)
	message, _ := body["message"].(string)
	if len(message) > 2000 {
		writeDetail(w, http.StatusBadRequest, "message too long (>2000 chars)")
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.uploads[uploadID] != sessionID || sessionID == "" {
		writeDetail(w, http.StatusNotFound, "upload not found for this session")
		return
	}

	artifacts := fb.ChatArtifacts
	if artifacts == nil {
		artifacts = []json.RawMessage{FakeChartArtifact()}
	}
	reply := fmt.Sprintf("Here is the trend you asked about: %s", message)

	fb.appendMessageLocked(sessionID, "user", message, nil)
	fb.appendMessageLocked(sessionID, "assistant", reply, artifacts)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reply":      reply,
		"session_id": sessionID,
		"upload_id":  uploadID,
		"artifacts":  artifacts,
	})
}

func (fb *FakeBackend) handleGetSession(w http.ResponseWriter, r *http.Request) {
	fb.record(r, RecordedRequest{})
	fb.mu.Lock()
	defer fb.mu.Unlock()

	sess := fb.sessions[chi.URLParam(r, "sessionID")]
	if sess == nil {
		writeDetail(w, http.StatusNotFound, "session not found")
		return
	}
	var current interface{}
	if sess.uploadID != "" {
		current = sess.uploadID
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                sess.id,
		"created_at":        sess.createdAt.Format("2006-01-02T15:04:05"),
		"status":            "active",
		"current_upload_id": current,
		"meta":              map[string]interface{}{"created_by": "excel_upload"},
	})
}

func (fb *FakeBackend) handleMessages(w http.ResponseWriter, r *http.Request) {
	fb.record(r, RecordedRequest{})
	fb.mu.Lock()
	defer fb.mu.Unlock()

	sessionID := chi.URLParam(r, "sessionID")
	if fb.sessions[sessionID] == nil {
		writeDetail(w, http.StatusNotFound, "session not found")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid limit")
			return
		}
		limit = n
	}

	// newest first
	all := fb.messages[sessionID]
	desc := make([]FakeMessage, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		desc = append(desc, all[i])
	}

	start := 0
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		start = -1
		for i, m := range desc {
			if m.ID == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			writeDetail(w, http.StatusBadRequest, "invalid cursor")
			return
		}
	}

	end := start + limit
	hasMore := end < len(desc)
	if end > len(desc) {
		end = len(desc)
	}
	items := desc[start:end]

	var next interface{}
	if hasMore && len(items) > 0 {
		next = items[len(items)-1].ID
	}
	if fb.StuckCursor && len(desc) > 0 {
		items = desc[:1]
		hasMore = true
		next = desc[0].ID
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       items,
		"next_cursor": next,
		"has_more":    hasMore,
	})
}

func (fb *FakeBackend) newSessionLocked() *fakeSession {
	sess := &fakeSession{id: uuid.NewString(), createdAt: fb.tickLocked()}
	fb.sessions[sess.id] = sess
	return sess
}

func (fb *FakeBackend) appendMessageLocked(sessionID, role, content string, artifacts []json.RawMessage) FakeMessage {
	fb.seq++
	if artifacts == nil {
		artifacts = []json.RawMessage{}
	}
	m := FakeMessage{
		ID:        fmt.Sprintf("m%06d", fb.seq),
		Role:      role,
		Content:   content,
		CreatedAt: fb.tickLocked().Format("2006-01-02T15:04:05.000000"),
		Artifacts: artifacts,
	}
	fb.messages[sessionID] = append(fb.messages[sessionID], m)
	return m
}

func (fb *FakeBackend) tickLocked() time.Time {
	fb.clock = fb.clock.Add(time.Second)
	return fb.clock
}

// FakeProfile is the profile every fake upload reports
func FakeProfile() map[string]interface{} {
	return map[string]interface{}{
		"rows":    10,
		"cols":    2,
		"columns": []string{"month", "sales"},
		"dtypes":  map[string]string{"month": "object", "sales": "float64"},
		"missing_rate": map[string]float64{
			"month": 0,
			"sales": 0.1,
		},
		"preview": []map[string]interface{}{
			{"month": "Jan", "sales": 10},
			{"month": "Feb", "sales": nil},
		},
	}
}

// FakeChartArtifact is a line chart artifact with a missing point
func FakeChartArtifact() json.RawMessage {
	return json.RawMessage(`{"kind":"chart","spec":{"type":"line","x":{"name":"month","values":["Jan","Feb","Mar"]},"series":[{"name":"sales","values":[10,null,5]}]}}`)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
