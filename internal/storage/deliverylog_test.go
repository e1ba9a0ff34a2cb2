package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func testLog(t *testing.T) *DeliveryLog {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "gramreply.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDeliveryLog(db)
}

func TestDeliveryLog_RecordAndRecent(t *testing.T) {
	l := testLog(t)
	ctx := context.Background()

	entries := []Entry{
		{DeliveryID: "d1", CommentID: "c1", PostID: "p1", Username: "ana", Action: ActionReply, Success: true},
		{DeliveryID: "d1", CommentID: "c1", PostID: "p1", Username: "ana", Action: ActionDM, Success: false, Detail: "status 429"},
	}
	for _, e := range entries {
		if err := l.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(got))
	}

	// Newest first.
	if got[0].Action != ActionDM {
		t.Errorf("got[0].Action = %q, want dm (newest first)", got[0].Action)
	}
	if got[0].Success {
		t.Error("dm entry should be recorded as failed")
	}
	if got[0].Detail != "status 429" {
		t.Errorf("got[0].Detail = %q", got[0].Detail)
	}
	if got[1].Action != ActionReply || !got[1].Success {
		t.Errorf("got[1] = %+v, want successful reply", got[1])
	}
}

func TestDeliveryLog_RejectsUnknownAction(t *testing.T) {
	l := testLog(t)

	err := l.Record(context.Background(), Entry{CommentID: "c1", Action: "retweet"})
	if err == nil {
		t.Error("Record() should reject unknown action kinds")
	}
}

func TestDeliveryLog_RecentLimit(t *testing.T) {
	l := testLog(t)
	ctx := context.Background()

	for range 5 {
		if err := l.Record(ctx, Entry{DeliveryID: "d", CommentID: "c", PostID: "p", Username: "u", Action: ActionReply, Success: true}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := l.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recent(3) returned %d entries", len(got))
	}
}
