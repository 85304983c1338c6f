package internal

import (
	"context"
	"fmt"
)

// MessageLister fetches one page of a session's history
type MessageLister interface {
	ListMessages(ctx context.Context, sessionID, cursor string, limit int) (*MessagesPage, error)
}

// Transcript is a session's full history in server order (newest first)
type Transcript struct {
	SessionID string        `json:"session_id" yaml:"session_id"`
	Filename  string        `json:"filename,omitempty" yaml:"filename,omitempty"`
	Messages  []ChatMessage `json:"messages" yaml:"messages"`
}

// PageFunc is called after each page is fetched; returning an error stops
// the walk.
type PageFunc func(page *MessagesPage) error

// WalkHistory follows next_cursor from the first page while has_more is set.
// It stops with an error if the server hands back a cursor it already gave,
// since following it again could never terminate.
func WalkHistory(ctx context.Context, lister MessageLister, sessionID string, limit int, fn PageFunc) error {
	seen := make(map[string]bool)
	cursor := ""
	for {
		page, err := lister.ListMessages(ctx, sessionID, cursor, limit)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}

		next := page.Cursor()
		if next == "" {
			return nil
		}
		if seen[next] {
			return fmt.Errorf("history pagination repeated cursor %q", next)
		}
		seen[next] = true
		cursor = next
	}
}

// CollectHistory fetches every page and concatenates the items in the order
// the server returned them.
func CollectHistory(ctx context.Context, lister MessageLister, sessionID string, limit int) (*Transcript, error) {
	t := &Transcript{SessionID: sessionID, Messages: []ChatMessage{}}
	pages := 0
	err := WalkHistory(ctx, lister, sessionID, limit, func(page *MessagesPage) error {
		pages++
		t.Messages = append(t.Messages, page.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	LogDebug("Collected %d message(s) for session %s in %d page(s)", len(t.Messages), sessionID, pages)
	return t, nil
}
