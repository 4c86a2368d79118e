package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "campushub.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)

	tok, err := s.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if tok != "" {
		t.Errorf("LoadToken() on empty store = %q, want empty", tok)
	}

	if err := s.SaveToken("tok-1"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	if err := s.SaveToken("tok-2"); err != nil {
		t.Fatalf("SaveToken() second error = %v", err)
	}

	tok, err = s.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken() error = %v", err)
	}
	if tok != "tok-2" {
		t.Errorf("LoadToken() = %q, want latest token", tok)
	}

	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken() error = %v", err)
	}
	tok, _ = s.LoadToken()
	if tok != "" {
		t.Errorf("LoadToken() after clear = %q, want empty", tok)
	}
}

func TestThreadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	key := ThreadKey{ItemID: 42, BuyerID: 9, SellerID: 7, ViewerID: 9}

	if _, err := s.LoadThread(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadThread() on missing key error = %v, want ErrNotFound", err)
	}

	msgs := []Message{
		{ID: "1", Text: "is this still available?", Mine: true, SentAt: time.Now().Truncate(time.Second)},
		{ID: "2", Text: "yes, it is", Mine: false, SentAt: time.Now().Truncate(time.Second)},
	}
	if err := s.SaveThread(key, msgs); err != nil {
		t.Fatalf("SaveThread() error = %v", err)
	}

	got, err := s.LoadThread(key)
	if err != nil {
		t.Fatalf("LoadThread() error = %v", err)
	}
	if len(got) != 2 || got[0].Text != msgs[0].Text || got[1].Mine {
		t.Errorf("LoadThread() = %+v, want saved thread back", got)
	}

	// A different viewer on the same item/buyer/seller gets its own record.
	other := ThreadKey{ItemID: 42, BuyerID: 9, SellerID: 7, ViewerID: 7}
	if _, err := s.LoadThread(other); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadThread() with different viewer error = %v, want ErrNotFound", err)
	}
}

func TestThreadOverwrite(t *testing.T) {
	s := newTestStore(t)
	key := ThreadKey{ItemID: 1, BuyerID: 2, SellerID: 3, ViewerID: 2}

	if err := s.SaveThread(key, []Message{{ID: "1", Text: "old"}}); err != nil {
		t.Fatalf("SaveThread() error = %v", err)
	}
	if err := s.SaveThread(key, []Message{{ID: "1", Text: "old"}, {ID: "2", Text: "new"}}); err != nil {
		t.Fatalf("SaveThread() overwrite error = %v", err)
	}

	got, err := s.LoadThread(key)
	if err != nil {
		t.Fatalf("LoadThread() error = %v", err)
	}
	if len(got) != 2 || got[1].Text != "new" {
		t.Errorf("LoadThread() = %+v, want overwritten thread", got)
	}
}

func TestInstallPromptFlag(t *testing.T) {
	s := newTestStore(t)

	dismissed, err := s.InstallPromptDismissed()
	if err != nil {
		t.Fatalf("InstallPromptDismissed() error = %v", err)
	}
	if dismissed {
		t.Error("InstallPromptDismissed() = true on fresh store")
	}

	if err := s.SetInstallPromptDismissed(true); err != nil {
		t.Fatalf("SetInstallPromptDismissed() error = %v", err)
	}
	dismissed, _ = s.InstallPromptDismissed()
	if !dismissed {
		t.Error("InstallPromptDismissed() = false after dismissal")
	}
}
