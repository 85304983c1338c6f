package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Durable storage keys of the session group
const (
	KeySessionID = "dw_session_id"
	KeyUploadID  = "dw_upload_id"
	KeyFilename  = "dw_filename"
	KeyProfile   = "dw_profile"
)

// SessionKeys lists every key the SessionStore owns
var SessionKeys = []string{KeySessionID, KeyUploadID, KeyFilename, KeyProfile}

// SessionStore is the single source of truth for the active session.
//
// The group (session id, upload id, filename, profile) is hydrated, saved
// and cleared as a unit: readers see either the whole group or no session.
// Durable storage is touched only by Load, Save and Clear.
type SessionStore struct {
	kv KVStore

	mu      sync.RWMutex
	current *Session
}

// NewSessionStore creates a store backed by kv. Call Load to hydrate it.
func NewSessionStore(kv KVStore) *SessionStore {
	return &SessionStore{kv: kv}
}

// Load reads the group from durable storage. A missing key, an unparsable
// profile or an invalid group leaves the store empty. It never fails.
func (s *SessionStore) Load(ctx context.Context) {
	sess := s.read(ctx)

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
}

func (s *SessionStore) read(ctx context.Context) *Session {
	values, err := s.kv.GetMany(ctx, SessionKeys)
	if err != nil {
		LogWarn("Failed to read session state: %v", err)
		return nil
	}

	for _, key := range SessionKeys {
		if _, ok := values[key]; !ok {
			if len(values) > 0 {
				LogDebug("Persisted session is partial (missing %s), treating as no session", key)
			}
			return nil
		}
	}

	var profile Profile
	if err := json.Unmarshal([]byte(values[KeyProfile]), &profile); err != nil {
		LogDebug("%v", &ParseError{Source: "state", Key: KeyProfile, Err: err})
		return nil
	}

	sess := &Session{
		SessionID: values[KeySessionID],
		UploadID:  values[KeyUploadID],
		Filename:  values[KeyFilename],
		Profile:   &profile,
	}
	if err := sess.Validate(); err != nil {
		LogDebug("Persisted session rejected: %v", err)
		return nil
	}
	return sess
}

// Save replaces the group in durable storage and memory. All four fields are
// required. When it returns nil the new group is visible to the next Current.
func (s *SessionStore) Save(ctx context.Context, sessionID, uploadID, filename string, profile *Profile) error {
	sess := &Session{
		SessionID: sessionID,
		UploadID:  uploadID,
		Filename:  filename,
		Profile:   cloneProfile(profile),
	}
	if err := sess.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(sess.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.SetMany(ctx, []KeyValuePair{
		{Key: KeySessionID, Value: sessionID},
		{Key: KeyUploadID, Value: uploadID},
		{Key: KeyFilename, Value: filename},
		{Key: KeyProfile, Value: string(data)},
	}); err != nil {
		return err
	}
	s.current = sess
	LogDebug("Saved session %s (upload %s)", sessionID, uploadID)
	return nil
}

// Clear removes the group from memory and durable storage. Clearing an empty
// store is a no-op. Memory is cleared even when storage fails.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.kv.Delete(ctx, SessionKeys...); err != nil {
		return err
	}
	return nil
}

// Current returns a copy of the active session group, or ok=false
func (s *SessionStore) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Session{}, false
	}
	out := *s.current
	out.Profile = cloneProfile(s.current.Profile)
	return out, true
}

// HasSession reports whether a session is established
func (s *SessionStore) HasSession() bool {
	_, ok := s.Current()
	return ok
}

func cloneProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.ColumnNames != nil {
		out.ColumnNames = make([]string, len(p.ColumnNames))
		copy(out.ColumnNames, p.ColumnNames)
	}
	if p.ColumnTypes != nil {
		out.ColumnTypes = make(map[string]string, len(p.ColumnTypes))
		for k, v := range p.ColumnTypes {
			out.ColumnTypes[k] = v
		}
	}
	if p.MissingRate != nil {
		out.MissingRate = make(map[string]float64, len(p.MissingRate))
		for k, v := range p.MissingRate {
			out.MissingRate[k] = v
		}
	}
	if p.PreviewRows != nil {
		out.PreviewRows = make([]map[string]interface{}, len(p.PreviewRows))
		for i, row := range p.PreviewRows {
			if row == nil {
				continue
			}
			r := make(map[string]interface{}, len(row))
			for k, v := range row {
				r[k] = v
			}
			out.PreviewRows[i] = r
		}
	}
	return &out
}
