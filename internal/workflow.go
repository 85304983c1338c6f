package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// UploadFile is the file payload of an upload
type UploadFile struct {
	Name    string
	Content io.Reader
}

// OpenUploadFile opens a local file for upload. The caller closes it.
func OpenUploadFile(path string) (*UploadFile, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return &UploadFile{Name: filepath.Base(path), Content: f}, f, nil
}

// Workflow sequences the upload, chat and history operations.
//
// Every operation is one round trip. Transport failures are returned exactly
// as the Transport produced them; nothing is retried or cached here.
type Workflow struct {
	transport Transport
	store     *SessionStore
}

// NewWorkflow creates a workflow over transport that records uploads in store
func NewWorkflow(transport Transport, store *SessionStore) *Workflow {
	return &Workflow{transport: transport, store: store}
}

// Store returns the session store the workflow writes to
func (w *Workflow) Store() *SessionStore {
	return w.store
}

// Upload sends file, adding it to sessionID when that is non-empty or
// letting the server create a session otherwise. On success the result is
// saved to the session store before it is returned. On failure the store is
// left untouched.
func (w *Workflow) Upload(ctx context.Context, file *UploadFile, sessionID string) (*UploadResult, error) {
	if file == nil || file.Content == nil {
		return nil, fmt.Errorf("upload: no file")
	}

	body := &MultipartBody{
		File: &FormFile{Field: "file", Filename: file.Name, Content: file.Content},
	}
	if sessionID != "" {
		body.Fields = append(body.Fields, FormField{Name: "session_id", Value: sessionID})
	}

	var res UploadResult
	if err := w.transport.Send(ctx, &Request{
		Method:    http.MethodPost,
		Path:      "/excel/upload",
		Multipart: body,
	}, &res); err != nil {
		return nil, err
	}

	if err := w.store.Save(ctx, res.SessionID, res.UploadID, res.Filename, res.Profile); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	LogDebug("Uploaded %s to session %s", res.Filename, res.SessionID)
	return &res, nil
}

// Chat sends one message for an established session/upload pair. The
// session store is never modified.
func (w *Workflow) Chat(ctx context.Context, sessionID, uploadID, message string) (*ChatReply, error) {
	payload := struct {
		SessionID string `json:"session_id"`
		UploadID  string `json:"upload_id"`
		Message   string `json:"message"`
	}{sessionID, uploadID, message}

	var reply ChatReply
	if err := w.transport.Send(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/excel/chat",
		JSON:   payload,
	}, &reply); err != nil {
		return nil, err
	}
	if reply.Artifacts == nil {
		reply.Artifacts = []Artifact{}
	}
	return &reply, nil
}

// ListMessages fetches exactly one page of history. An empty cursor asks for
// the first page; limit <= 0 leaves the page size to the server.
func (w *Workflow) ListMessages(ctx context.Context, sessionID, cursor string, limit int) (*MessagesPage, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var page MessagesPage
	if err := w.transport.Send(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/sessions/" + url.PathEscape(sessionID) + "/messages",
		Query:  query,
	}, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []ChatMessage{}
	}
	return &page, nil
}

// GetSession fetches the server-side record of a session
func (w *Workflow) GetSession(ctx context.Context, sessionID string) (*RemoteSession, error) {
	var sess RemoteSession
	if err := w.transport.Send(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/sessions/" + url.PathEscape(sessionID),
	}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Health probes the backend
func (w *Workflow) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := w.transport.Send(ctx, &Request{
		Method: http.MethodGet,
		Path:   "/health",
	}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
