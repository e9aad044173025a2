package store

import (
	"testing"

	"github.com/dukerupert/memopad/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("Asia/Makassar")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if len(u.SecretKey) != 32 {
		t.Errorf("secret key length = %d, want 32", len(u.SecretKey))
	}
	if !isHex(u.SecretKey) {
		t.Errorf("secret key %q is not lowercase hex", u.SecretKey)
	}
	if u.Timezone != "Asia/Makassar" {
		t.Errorf("timezone = %q, want %q", u.Timezone, "Asia/Makassar")
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestUserCreateUniqueKeys(t *testing.T) {
	us := setupUserTestDB(t)

	u1, _ := us.Create("UTC")
	u2, _ := us.Create("UTC")
	if u1.SecretKey == u2.SecretKey {
		t.Error("two users got the same secret key")
	}
}

func TestUserAuthenticate(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("UTC")

	u, err := us.Authenticate(created.SecretKey)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != created.ID {
		t.Errorf("id = %d, want %d", u.ID, created.ID)
	}
	// The plaintext key is only ever returned at creation
	if u.SecretKey != "" {
		t.Error("authenticate must not echo the secret key")
	}
	if u.LastLogin.IsZero() {
		t.Error("expected last_login to be set")
	}
}

func TestUserAuthenticateUnknownKey(t *testing.T) {
	us := setupUserTestDB(t)

	us.Create("UTC")

	u, err := us.Authenticate("00000000000000000000000000000000")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown key")
	}
}

func TestUserRegenerateKey(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("UTC")

	newKey, err := us.RegenerateKey(created.ID)
	if err != nil {
		t.Fatalf("regenerate key: %v", err)
	}
	if len(newKey) != 32 || !isHex(newKey) {
		t.Errorf("new key %q is not 32 hex chars", newKey)
	}
	if newKey == created.SecretKey {
		t.Error("regenerated key equals old key")
	}

	// Old key is invalid immediately
	u, err := us.Authenticate(created.SecretKey)
	if err != nil {
		t.Fatalf("authenticate old key: %v", err)
	}
	if u != nil {
		t.Error("old key should no longer authenticate")
	}

	// New key works
	u, err = us.Authenticate(newKey)
	if err != nil {
		t.Fatalf("authenticate new key: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Error("new key should authenticate the same user")
	}
}

func TestUserRegenerateKeyNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	key, err := us.RegenerateKey(999)
	if err != nil {
		t.Fatalf("regenerate key: %v", err)
	}
	if key != "" {
		t.Errorf("key = %q, want empty for missing user", key)
	}
}

func TestUserCount(t *testing.T) {
	us := setupUserTestDB(t)

	count, err := us.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	us.Create("UTC")
	us.Create("UTC")

	count, err = us.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestUserUpdateTimezone(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("UTC")

	if err := us.UpdateTimezone(u.ID, "Europe/Berlin"); err != nil {
		t.Fatalf("update timezone: %v", err)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q, want %q", got.Timezone, "Europe/Berlin")
	}
}
