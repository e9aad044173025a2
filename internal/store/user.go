package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/memopad/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GenerateSecretKey returns a random 32-character hex key (128 bits).
func GenerateSecretKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

const userCols = `id, timezone, created_at, last_login`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Timezone, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create provisions a new user with a freshly generated secret key. The
// returned User is the only place the plaintext key ever appears. A unique
// constraint collision is retried once with a new key.
func (s *UserStore) Create(timezone string) (*model.User, error) {
	for attempt := 0; ; attempt++ {
		key, err := GenerateSecretKey()
		if err != nil {
			return nil, err
		}

		result, err := s.db.Exec(
			`INSERT INTO users (secret_key, timezone) VALUES (?, ?)`,
			key, timezone,
		)
		if err != nil {
			if attempt == 0 && strings.Contains(err.Error(), "UNIQUE constraint") {
				continue
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}

		u, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		u.SecretKey = key
		return u, nil
	}
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Authenticate looks a user up by exact secret key match and touches
// last_login on success. The key is never echoed back on the returned User.
func (s *UserStore) Authenticate(secretKey string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE secret_key = ?`, secretKey)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate user: %w", err)
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec(`UPDATE users SET last_login = ? WHERE id = ?`, now, u.ID); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLogin = now
	return u, nil
}

// RegenerateKey replaces the user's secret key in a single statement, so the
// old key stops working the moment the new one exists. Returns the new key,
// or "" if the user does not exist.
func (s *UserStore) RegenerateKey(id int64) (string, error) {
	key, err := GenerateSecretKey()
	if err != nil {
		return "", err
	}

	result, err := s.db.Exec(`UPDATE users SET secret_key = ? WHERE id = ?`, key, id)
	if err != nil {
		return "", fmt.Errorf("regenerate key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return "", nil
	}
	return key, nil
}

func (s *UserStore) UpdateTimezone(id int64, timezone string) error {
	_, err := s.db.Exec(`UPDATE users SET timezone = ? WHERE id = ?`, timezone, id)
	if err != nil {
		return fmt.Errorf("update timezone: %w", err)
	}
	return nil
}

// Count returns the number of users; the auth gateway uses it to decide
// whether first-run bootstrap applies.
func (s *UserStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
