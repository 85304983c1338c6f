package internal

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCollectHistory(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 7, 50} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			wf, fb := newTestWorkflow(t)
			sid, _, ids := fb.SeedSession(7)

			tr, err := CollectHistory(context.Background(), wf, sid, limit)
			if err != nil {
				t.Fatalf("CollectHistory() error = %v", err)
			}
			if tr.SessionID != sid {
				t.Errorf("SessionID = %q", tr.SessionID)
			}
			if len(tr.Messages) != len(ids) {
				t.Fatalf("got %d messages, want %d", len(tr.Messages), len(ids))
			}
			for i, m := range tr.Messages {
				if want := ids[len(ids)-1-i]; m.ID != want {
					t.Errorf("message %d = %s, want %s", i, m.ID, want)
				}
			}
		})
	}
}

func TestCollectHistory_Empty(t *testing.T) {
	wf, fb := newTestWorkflow(t)
	sid, _, _ := fb.SeedSession(0)

	tr, err := CollectHistory(context.Background(), wf, sid, 10)
	if err != nil {
		t.Fatalf("CollectHistory() error = %v", err)
	}
	if tr.Messages == nil || len(tr.Messages) != 0 {
		t.Errorf("Messages = %v, want empty", tr.Messages)
	}
	if n := len(fb.Requests()); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestCollectHistory_RepeatedCursor(t *testing.T) {
	wf, fb := newTestWorkflow(t)
	sid, _, _ := fb.SeedSession(3)
	fb.StuckCursor = true

	_, err := CollectHistory(context.Background(), wf, sid, 1)
	if err == nil {
		t.Fatal("CollectHistory() should stop on a repeated cursor")
	}
	if n := len(fb.Requests()); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestCollectHistory_PageFailure(t *testing.T) {
	wf, fb := newTestWorkflow(t)
	sid, _, _ := fb.SeedSession(4)
	fb.FailNext("messages", 503, "busy")

	_, err := CollectHistory(context.Background(), wf, sid, 2)
	var te *TransportError
	if !errors.As(err, &te) || te.Message() != "busy" {
		t.Fatalf("CollectHistory() error = %v, want TransportError(busy)", err)
	}
}

type pagesLister struct {
	pages   map[string]*MessagesPage
	cursors []string
}

func (p *pagesLister) ListMessages(_ context.Context, _, cursor string, _ int) (*MessagesPage, error) {
	p.cursors = append(p.cursors, cursor)
	page, ok := p.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", cursor)
	}
	return page, nil
}

func TestWalkHistory_StopsWithoutCursor(t *testing.T) {
	blank := "  "
	lister := &pagesLister{pages: map[string]*MessagesPage{
		// has_more without a usable cursor ends the walk
		"": {Items: []ChatMessage{CreateTestMessage("m1", RoleUser, "hi")}, HasMore: true, NextCursor: &blank},
	}}

	pages := 0
	err := WalkHistory(context.Background(), lister, "S1", 0, func(*MessagesPage) error {
		pages++
		return nil
	})
	if err != nil {
		t.Fatalf("WalkHistory() error = %v", err)
	}
	if pages != 1 || len(lister.cursors) != 1 {
		t.Errorf("pages = %d, calls = %v", pages, lister.cursors)
	}
}

func TestWalkHistory_CallbackStops(t *testing.T) {
	next := "c1"
	lister := &pagesLister{pages: map[string]*MessagesPage{
		"":   {Items: []ChatMessage{}, HasMore: true, NextCursor: &next},
		"c1": {Items: []ChatMessage{}},
	}}
	stop := errors.New("stop")

	err := WalkHistory(context.Background(), lister, "S1", 0, func(*MessagesPage) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("WalkHistory() error = %v, want stop", err)
	}
	if len(lister.cursors) != 1 {
		t.Errorf("calls = %v, want 1", lister.cursors)
	}
}
