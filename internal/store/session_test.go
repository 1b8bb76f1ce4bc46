package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/ellisbray/homebase/internal/database"
	"github.com/ellisbray/homebase/internal/model"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewUserStore(db), db
}

func TestSessionCreateAndLookup(t *testing.T) {
	ss, us, _ := setupSessionTestDB(t)

	user, err := us.Create("a@example.com", "hash", "A", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess, err := ss.Create(user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}
	if sess.UserID != user.ID {
		t.Errorf("user id = %d, want %d", sess.UserID, user.ID)
	}

	found, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if found == nil || found.ID != sess.ID {
		t.Fatalf("get by token returned %v", found)
	}

	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Error("expected session deleted")
	}
}

func TestSessionExpiry(t *testing.T) {
	ss, us, db := setupSessionTestDB(t)

	user, err := us.Create("a@example.com", "hash", "A", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Insert an already-expired session directly.
	expired := time.Now().UTC().Add(-time.Hour)
	if _, err := db.Exec(
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		"stale-token", user.ID, expired,
	); err != nil {
		t.Fatalf("insert expired session: %v", err)
	}

	found, err := ss.GetByToken("stale-token")
	if err != nil {
		t.Fatalf("get expired: %v", err)
	}
	if found != nil {
		t.Error("expired session should not resolve")
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	ss, us, db := setupSessionTestDB(t)

	user, err := us.Create("a@example.com", "hash", "A", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	live, err := ss.Create(user.ID)
	if err != nil {
		t.Fatalf("create live session: %v", err)
	}
	expired := time.Now().UTC().Add(-time.Hour)
	for _, token := range []string{"stale-1", "stale-2"} {
		if _, err := db.Exec(
			`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
			token, user.ID, expired,
		); err != nil {
			t.Fatalf("insert expired session: %v", err)
		}
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d sessions, want 2", n)
	}

	found, err := ss.GetByToken(live.Token)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if found == nil {
		t.Error("live session removed by cleanup")
	}
}
