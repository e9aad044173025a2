package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/memopad/internal/model"
)

// MemoStore persists memos. Every query takes the owning user id explicitly
// and filters on it in SQL, so a memo belonging to someone else is
// indistinguishable from one that does not exist.
type MemoStore struct {
	db *sql.DB
}

func NewMemoStore(db *sql.DB) *MemoStore {
	return &MemoStore{db: db}
}

const memoCols = `id, user_id, title, content, created_at, updated_at`

func scanMemo(scanner interface{ Scan(...any) error }) (*model.Memo, error) {
	var m model.Memo
	err := scanner.Scan(&m.ID, &m.UserID, &m.Title, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemoStore) Create(userID int64, title, content string) (*model.Memo, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO memos (user_id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, title, content, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert memo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(id, userID)
}

func (s *MemoStore) Get(id, userID int64) (*model.Memo, error) {
	row := s.db.QueryRow(`SELECT `+memoCols+` FROM memos WHERE id = ? AND user_id = ?`, id, userID)
	m, err := scanMemo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memo: %w", err)
	}
	return m, nil
}

// Update rewrites title and content and refreshes updated_at. It returns the
// updated memo, or nil when no row matched both id and owner.
func (s *MemoStore) Update(id, userID int64, title, content string) (*model.Memo, error) {
	result, err := s.db.Exec(
		`UPDATE memos SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		title, content, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update memo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.Get(id, userID)
}

// Delete removes the memo if it belongs to userID. Returns false when no row
// matched.
func (s *MemoStore) Delete(id, userID int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM memos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete memo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByUser returns the user's memos, most recently touched first. The
// ordering is part of the API contract.
func (s *MemoStore) ListByUser(userID int64) ([]model.Memo, error) {
	rows, err := s.db.Query(
		`SELECT `+memoCols+` FROM memos WHERE user_id = ? ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memos: %w", err)
	}
	defer rows.Close()

	var memos []model.Memo
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memo: %w", err)
		}
		memos = append(memos, *m)
	}
	return memos, rows.Err()
}

// Search returns the user's memos whose title or content contains the query,
// case-insensitively, in the same recency order as ListByUser. Plain
// substring match; no ranking.
func (s *MemoStore) Search(userID int64, query string) ([]model.Memo, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT `+memoCols+` FROM memos
		 WHERE user_id = ? AND (title LIKE ? OR content LIKE ?)
		 ORDER BY updated_at DESC`,
		userID, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search memos: %w", err)
	}
	defer rows.Close()

	var memos []model.Memo
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memo: %w", err)
		}
		memos = append(memos, *m)
	}
	return memos, rows.Err()
}

// CountByUser reports how many memos the user owns (settings page stats).
func (s *MemoStore) CountByUser(userID int64) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memos WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count memos: %w", err)
	}
	return count, nil
}
