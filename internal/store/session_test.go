package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/memopad/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *sql.DB, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := NewUserStore(db).Create("UTC")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewSessionStore(db), db, user.ID
}

func TestSessionCreateAndGet(t *testing.T) {
	ss, _, userID := setupSessionTestDB(t)

	sess, err := ss.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if !sess.ExpiresAt.After(time.Now().Add(89 * 24 * time.Hour)) {
		t.Errorf("expires_at %v too soon", sess.ExpiresAt)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.UserID != userID {
		t.Errorf("user id = %d, want %d", got.UserID, userID)
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	ss, _, _ := setupSessionTestDB(t)

	got, err := ss.GetByToken("deadbeef")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestSessionExpired(t *testing.T) {
	ss, db, userID := setupSessionTestDB(t)

	sess, _ := ss.Create(userID)

	expired := time.Now().UTC().Add(-time.Hour)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, expired, sess.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != nil {
		t.Error("expired session should resolve to nil")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, _, userID := setupSessionTestDB(t)

	sess, _ := ss.Create(userID)
	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	got, _ := ss.GetByToken(sess.Token)
	if got != nil {
		t.Error("session still present after delete")
	}
}

func TestSessionDeleteOthers(t *testing.T) {
	ss, _, userID := setupSessionTestDB(t)

	keep, _ := ss.Create(userID)
	other1, _ := ss.Create(userID)
	other2, _ := ss.Create(userID)

	if err := ss.DeleteOthers(userID, keep.ID); err != nil {
		t.Fatalf("delete others: %v", err)
	}

	if got, _ := ss.GetByToken(keep.Token); got == nil {
		t.Error("kept session was deleted")
	}
	if got, _ := ss.GetByToken(other1.Token); got != nil {
		t.Error("other session survived")
	}
	if got, _ := ss.GetByToken(other2.Token); got != nil {
		t.Error("other session survived")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ss, db, userID := setupSessionTestDB(t)

	live, _ := ss.Create(userID)
	stale, _ := ss.Create(userID)

	expired := time.Now().UTC().Add(-time.Hour)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, expired, stale.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}
	if got, _ := ss.GetByToken(live.Token); got == nil {
		t.Error("live session was purged")
	}
}
