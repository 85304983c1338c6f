package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Transport sends one request and decodes the JSON response body into out.
// Failures are returned as *TransportError.
type Transport interface {
	Send(ctx context.Context, req *Request, out interface{}) error
}

// Request describes one call. At most one of JSON and Multipart is set.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	JSON      interface{}
	Multipart *MultipartBody
}

// MultipartBody is a multipart/form-data payload with one file part
type MultipartBody struct {
	Fields []FormField
	File   *FormFile
}

// FormField is a plain text form field
type FormField struct {
	Name  string
	Value string
}

// FormFile is a file form field
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

// ErrorHook observes every transport failure before it is returned
type ErrorHook func(err *TransportError)

// HTTPTransport is the net/http implementation of Transport
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	onError ErrorHook
}

// NewHTTPTransport creates a transport rooted at cfg.APIBaseURL+cfg.APIPrefix
func NewHTTPTransport(cfg Config, onError ErrorHook) *HTTPTransport {
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	if prefix := strings.Trim(cfg.APIPrefix, "/"); prefix != "" {
		base += "/" + prefix
	}
	return &HTTPTransport{
		baseURL: base,
		client:  &http.Client{Timeout: cfg.Timeout},
		onError: onError,
	}
}

// BaseURL returns the URL every request path is appended to
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// Send implements Transport
func (t *HTTPTransport) Send(ctx context.Context, req *Request, out interface{}) error {
	requestID := uuid.NewString()
	fail := func(status int, detail string, err error) error {
		te := &TransportError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: status,
			Detail:     detail,
			RequestID:  requestID,
			Err:        err,
		}
		LogDebug("Request %s failed: %v", requestID, te)
		if t.onError != nil {
			t.onError(te)
		}
		return te
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return fail(0, "", err)
	}

	target := t.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fail(0, "", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	LogDebug("%s %s (request %s)", req.Method, target, requestID)
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errorDetail(data), fmt.Errorf("unexpected status %s", resp.Status))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(resp.StatusCode, InvalidResponseMessage, &ParseError{Source: "response", Key: req.Path, Err: err})
	}
	return nil
}

func encodeBody(req *Request) (io.Reader, string, error) {
	switch {
	case req.Multipart != nil:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if f := req.Multipart.File; f != nil {
			part, err := mw.CreateFormFile(f.Field, f.Filename)
			if err != nil {
				return nil, "", fmt.Errorf("create file part: %w", err)
			}
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", fmt.Errorf("copy file part: %w", err)
			}
		}
		for _, field := range req.Multipart.Fields {
			if err := mw.WriteField(field.Name, field.Value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", field.Name, err)
			}
		}
		if err := mw.Close(); err != nil {
			return nil, "", fmt.Errorf("close multipart: %w", err)
		}
		return &buf, mw.FormDataContentType(), nil
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshal body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	default:
		return nil, "", nil
	}
}

// errorDetail pulls the "detail" member out of an error body. Non-string
// details (validation errors) are rendered as compact JSON.
func errorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, body.Detail); err != nil {
		return ""
	}
	if compact.String() == "null" {
		return ""
	}
	return compact.String()
}
