package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Profile is the structural summary of an uploaded spreadsheet
type Profile struct {
	RowCount    int                      `json:"rows" yaml:"rows"`
	ColumnCount int                      `json:"cols" yaml:"cols"`
	ColumnNames []string                 `json:"columns" yaml:"columns"`
	ColumnTypes map[string]string        `json:"dtypes" yaml:"dtypes"`
	MissingRate map[string]float64       `json:"missing_rate" yaml:"missing_rate"`
	PreviewRows []map[string]interface{} `json:"preview" yaml:"preview"`
}

// Validate checks the profile invariants: non-negative shape, one name per
// column, and type/missingness keys drawn from the column names.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: missing", ErrInvalidProfile)
	}
	if p.RowCount < 0 || p.ColumnCount < 0 {
		return fmt.Errorf("%w: negative shape %dx%d", ErrInvalidProfile, p.RowCount, p.ColumnCount)
	}
	if len(p.ColumnNames) != p.ColumnCount {
		return fmt.Errorf("%w: %d column names for %d columns", ErrInvalidProfile, len(p.ColumnNames), p.ColumnCount)
	}
	known := make(map[string]bool, len(p.ColumnNames))
	for _, name := range p.ColumnNames {
		known[name] = true
	}
	for name := range p.ColumnTypes {
		if !known[name] {
			return fmt.Errorf("%w: type for unknown column %q", ErrInvalidProfile, name)
		}
	}
	for name, rate := range p.MissingRate {
		if !known[name] {
			return fmt.Errorf("%w: missing rate for unknown column %q", ErrInvalidProfile, name)
		}
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%w: missing rate %v for %q out of range", ErrInvalidProfile, rate, name)
		}
	}
	return nil
}

// ColumnType returns the type label of a column; ok is false when unknown
func (p *Profile) ColumnType(name string) (string, bool) {
	t, ok := p.ColumnTypes[name]
	return t, ok
}

// Missing returns the missing rate of a column; ok is false when unknown,
// which is not the same as a rate of zero.
func (p *Profile) Missing(name string) (float64, bool) {
	r, ok := p.MissingRate[name]
	return r, ok
}

// Session is the identity group persisted by the SessionStore. The four
// fields are only ever present together.
type Session struct {
	SessionID string   `json:"session_id" yaml:"session_id"`
	UploadID  string   `json:"upload_id" yaml:"upload_id"`
	Filename  string   `json:"filename" yaml:"filename"`
	Profile   *Profile `json:"profile" yaml:"profile"`
}

// Validate reports whether every field of the group is present and valid
func (s *Session) Validate() error {
	switch {
	case s == nil:
		return fmt.Errorf("%w: nil", ErrInvalidSession)
	case s.SessionID == "":
		return fmt.Errorf("%w: empty session id", ErrInvalidSession)
	case s.UploadID == "":
		return fmt.Errorf("%w: empty upload id", ErrInvalidSession)
	case s.Filename == "":
		return fmt.Errorf("%w: empty filename", ErrInvalidSession)
	}
	return s.Profile.Validate()
}

// UploadResult is the response of an upload; identical to the session group
type UploadResult = Session

// Role of a chat message author
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Timestamp decodes the backend's created_at values. The server emits either
// RFC 3339 or zone-less ISO 8601, the latter is read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// MarshalYAML renders the timestamp as RFC 3339 text
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return "", nil
	}
	return t.UTC().Format(time.RFC3339Nano), nil
}

// ChatMessage is one immutable turn of the conversation
type ChatMessage struct {
	ID        string     `json:"id" yaml:"id"`
	Role      Role       `json:"role" yaml:"role"`
	Content   string     `json:"content" yaml:"content"`
	CreatedAt Timestamp  `json:"created_at" yaml:"created_at"`
	Artifacts []Artifact `json:"artifacts" yaml:"artifacts"`
}

// MessagesPage is one page of a cursor-paginated history query. Items keep
// the server order.
type MessagesPage struct {
	Items      []ChatMessage `json:"items"`
	NextCursor *string       `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

// Cursor returns the cursor for the following page, or "" when the history
// is exhausted. A cursor sent alongside has_more=false is ignored.
func (p *MessagesPage) Cursor() string {
	if !p.HasMore || p.NextCursor == nil {
		return ""
	}
	return strings.TrimSpace(*p.NextCursor)
}

// ChatReply is the result of one chat turn
type ChatReply struct {
	Reply     string     `json:"reply"`
	SessionID string     `json:"session_id,omitempty"`
	UploadID  string     `json:"upload_id,omitempty"`
	Artifacts []Artifact `json:"artifacts"`
}

// RemoteSession is the server-side record of a session
type RemoteSession struct {
	ID              string                 `json:"id"`
	CreatedAt       Timestamp              `json:"created_at"`
	Status          string                 `json:"status"`
	CurrentUploadID *string                `json:"current_upload_id"`
	Meta            map[string]interface{} `json:"meta"`
}

// HealthStatus is the backend health probe response
type HealthStatus struct {
	Status string `json:"status"`
	App    string `json:"app"`
	Env    string `json:"env"`
}
