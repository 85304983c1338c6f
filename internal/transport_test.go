package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestTransport(t *testing.T, h http.HandlerFunc, hook ErrorHook) *HTTPTransport {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL + "/"
	cfg.Timeout = 2 * time.Second
	return NewHTTPTransport(cfg, hook)
}

func TestHTTPTransport_JSONRoundTrip(t *testing.T) {
	var gotPath, gotQuery, gotType, gotID, gotBody string
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		gotID = r.Header.Get("X-Request-ID")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"reply":"ok","artifacts":[]}`))
	}, nil)

	var out ChatReply
	err := tr.Send(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "excel/chat",
		Query:  map[string][]string{"x": {"1"}},
		JSON:   map[string]string{"message": "hi"},
	}, &out)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotPath != "/api/excel/chat" {
		t.Errorf("path = %q, want /api/excel/chat", gotPath)
	}
	if gotQuery != "x=1" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotType != "application/json" || gotBody != `{"message":"hi"}` {
		t.Errorf("body = %q (%s)", gotBody, gotType)
	}
	if len(gotID) != 36 {
		t.Errorf("X-Request-ID = %q, want a uuid", gotID)
	}
	if out.Reply != "ok" {
		t.Errorf("decoded reply = %q", out.Reply)
	}
}

func TestHTTPTransport_Multipart(t *testing.T) {
	var fields map[string][]string
	var filename, content string
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fields = r.MultipartForm.Value
		f, h, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		filename, content = h.Filename, string(b)
		_, _ = w.Write([]byte(`{}`))
	}, nil)

	err := tr.Send(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/excel/upload",
		Multipart: &MultipartBody{
			Fields: []FormField{{Name: "session_id", Value: "S1"}},
			File:   &FormFile{Field: "file", Filename: "a.xlsx", Content: strings.NewReader("bytes")},
		},
	}, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if filename != "a.xlsx" || content != "bytes" {
		t.Errorf("file part = %q %q", filename, content)
	}
	if got := fields["session_id"]; len(got) != 1 || got[0] != "S1" {
		t.Errorf("session_id field = %v", got)
	}
}

func TestHTTPTransport_ErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "string detail", status: 404, body: `{"detail":"session not found"}`, wantDetail: "session not found"},
		{name: "validation detail", status: 422, body: `{"detail":[{"loc":["body","file"],"msg":"field required"}]}`,
			wantDetail: `[{"loc":["body","file"],"msg":"field required"}]`},
		{name: "no detail", status: 500, body: `{}`, wantDetail: ""},
		{name: "not json", status: 502, body: `<html>bad gateway</html>`, wantDetail: ""},
		{name: "null detail", status: 500, body: `{"detail":null}`, wantDetail: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hooked *TransportError
			tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, func(err *TransportError) { hooked = err })

			err := tr.Send(context.Background(), &Request{Method: http.MethodGet, Path: "/health"}, &HealthStatus{})
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("Send() error = %v, want TransportError", err)
			}
			if te.StatusCode != tt.status || te.Detail != tt.wantDetail {
				t.Errorf("TransportError = %d %q, want %d %q", te.StatusCode, te.Detail, tt.status, tt.wantDetail)
			}
			if hooked != te {
				t.Error("error hook should observe the returned error")
			}
			if tt.wantDetail == "" && te.Message() != DefaultTransportMessage {
				t.Errorf("Message() = %q, want fallback", te.Message())
			}
		})
	}
}

func TestHTTPTransport_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	cfg := DefaultConfig()
	cfg.APIBaseURL = srv.URL
	srv.Close()

	calls := 0
	tr := NewHTTPTransport(cfg, func(*TransportError) { calls++ })
	err := tr.Send(context.Background(), &Request{Method: http.MethodGet, Path: "/health"}, nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Send() error = %v, want TransportError", err)
	}
	if te.StatusCode != 0 || te.Message() != DefaultTransportMessage {
		t.Errorf("TransportError = %+v", te)
	}
	if calls != 1 {
		t.Errorf("hook called %d times, want 1", calls)
	}
}

func TestHTTPTransport_Timeout(t *testing.T) {
	release := make(chan struct{})
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)
	defer close(release)
	tr.client.Timeout = 50 * time.Millisecond

	err := tr.Send(context.Background(), &Request{Method: http.MethodGet, Path: "/health"}, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Send() error = %v, want TransportError", err)
	}
}

func TestHTTPTransport_BadResponseBody(t *testing.T) {
	var hooked *TransportError
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":`))
	}, func(err *TransportError) { hooked = err })

	err := tr.Send(context.Background(), &Request{Method: http.MethodGet, Path: "/sessions/S1/messages"}, &MessagesPage{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Send() error = %v, want wrapped ParseError", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != 200 {
		t.Fatalf("bad body should surface as a TransportError, got %v", err)
	}
	if te.Message() != InvalidResponseMessage {
		t.Errorf("Message() = %q, want %q", te.Message(), InvalidResponseMessage)
	}
	if hooked != te {
		t.Error("error hook should observe the decode failure")
	}
}

func TestNewHTTPTransport_BaseURL(t *testing.T) {
	tests := []struct {
		base, prefix, want string
	}{
		{"http://h:8000", "/api", "http://h:8000/api"},
		{"http://h:8000/", "api/", "http://h:8000/api"},
		{"http://h:8000", "", "http://h:8000"},
	}
	for _, tt := range tests {
		cfg := Config{APIBaseURL: tt.base, APIPrefix: tt.prefix}
		if got := NewHTTPTransport(cfg, nil).BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q, %q) = %q, want %q", tt.base, tt.prefix, got, tt.want)
		}
	}
}
