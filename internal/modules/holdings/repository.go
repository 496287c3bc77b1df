// Package holdings implements storage and reconciliation for holding rows:
// portfolio positions, watchlist entries, or both.
package holdings

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/database"
	"github.com/holdwatch/holdwatch/internal/domain"
)

// ErrNotFound signals that a row does not exist
var ErrNotFound = errors.New("holding not found")

// Op is a filter comparison operator
type Op string

const (
	OpEq Op = "="
	OpGt Op = ">"
	OpLt Op = "<"
)

// Filter is a single column predicate for FindAll and Count
type Filter struct {
	Column string
	Op     Op
	Value  interface{}
}

// filterColumns whitelists the columns predicates may reference
var filterColumns = map[string]bool{
	"id":              true,
	"user_id":         true,
	"name":            true,
	"ticker":          true,
	"shares":          true,
	"buy_price":       true,
	"current_price":   true,
	"target_price":    true,
	"is_in_watchlist": true,
}

// updateColumns whitelists the columns Update may set
var updateColumns = map[string]bool{
	"name":            true,
	"ticker":          true,
	"shares":          true,
	"buy_price":       true,
	"current_price":   true,
	"target_price":    true,
	"is_in_watchlist": true,
	"last_updated":    true,
}

const holdingColumns = `id, user_id, name, ticker, shares, buy_price,
	current_price, target_price, is_in_watchlist, last_updated, created_at, updated_at`

// Repository handles holding database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new holding repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

// buildWhere renders filters into a WHERE clause and its arguments
func buildWhere(filters []Filter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		if !filterColumns[f.Column] {
			return "", nil, fmt.Errorf("unknown filter column: %s", f.Column)
		}
		switch f.Op {
		case OpEq, OpGt, OpLt:
		default:
			return "", nil, fmt.Errorf("unknown filter operator: %s", f.Op)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", f.Column, f.Op))
		args = append(args, f.Value)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// FindAll returns all rows matching the filters, optionally ordered by a
// whitelisted column. Returns an empty slice, never nil, when nothing matches.
func (r *Repository) FindAll(filters []Filter, orderBy string) ([]domain.Holding, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + holdingColumns + " FROM stocks" + where
	if orderBy != "" {
		if !filterColumns[orderBy] {
			return nil, fmt.Errorf("unknown order column: %s", orderBy)
		}
		query += " ORDER BY " + orderBy + " ASC"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := []domain.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// FindByID returns a single row or ErrNotFound. Ownership is NOT checked
// here; callers must verify user_id before acting on the row.
func (r *Repository) FindByID(id string) (*domain.Holding, error) {
	row := r.db.QueryRow("SELECT "+holdingColumns+" FROM stocks WHERE id = ?", id)

	h, err := scanHolding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}

	return &h, nil
}

// FindByUserAndTicker returns the user's row for a ticker, or ErrNotFound
func (r *Repository) FindByUserAndTicker(userID, ticker string) (*domain.Holding, error) {
	row := r.db.QueryRow(
		"SELECT "+holdingColumns+" FROM stocks WHERE user_id = ? AND ticker = ?",
		userID, ticker,
	)

	h, err := scanHolding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan holding: %w", err)
	}

	return &h, nil
}

// FindTracked returns every row that the price sweep must refresh:
// portfolio positions and watchlist entries across all users.
func (r *Repository) FindTracked() ([]domain.Holding, error) {
	rows, err := r.db.Query(
		"SELECT " + holdingColumns + " FROM stocks WHERE shares > 0 OR is_in_watchlist = 1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked holdings: %w", err)
	}
	defer rows.Close()

	holdings := []domain.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked holdings: %w", err)
	}

	return holdings, nil
}

// Create persists a new row, assigning id and timestamps when absent,
// and returns the stored row.
func (r *Repository) Create(h domain.Holding) (*domain.Holding, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = now
	}
	if h.LastUpdated.IsZero() {
		h.LastUpdated = now
	}

	_, err := r.db.Exec(`INSERT INTO stocks (id, user_id, name, ticker, shares, buy_price,
		current_price, target_price, is_in_watchlist, last_updated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Name, h.Ticker, h.Shares, h.BuyPrice,
		h.CurrentPrice, h.TargetPrice, boolToInt(h.IsInWatchlist),
		formatTime(h.LastUpdated), formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert holding: %w", err)
	}

	return &h, nil
}

// Update applies a partial update and returns the updated row.
// Fails with ErrNotFound when the id does not exist.
func (r *Repository) Update(id string, fields map[string]interface{}) (*domain.Holding, error) {
	if len(fields) == 0 {
		return r.FindByID(id)
	}

	setClauses := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+2)
	for column, value := range fields {
		if !updateColumns[column] {
			return nil, fmt.Errorf("unknown update column: %s", column)
		}
		if t, ok := value.(time.Time); ok {
			value = formatTime(t)
		}
		if b, ok := value.(bool); ok {
			value = boolToInt(b)
		}
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, formatTime(time.Now().UTC()))
	args = append(args, id)

	result, err := r.db.Exec(
		"UPDATE stocks SET "+strings.Join(setClauses, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(id)
}

// Delete removes a row. Fails with ErrNotFound when already gone.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM stocks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// WatchlistSync carries the per-row fields for a transactional watchlist sync
type WatchlistSync struct {
	ID          string
	TargetPrice float64 // 0 leaves the stored target untouched
}

// SyncToWatchlist sets the watchlist flag on every given row in a single
// transaction, so a failure partway through leaves no half-synced portfolio.
func (r *Repository) SyncToWatchlist(rows []WatchlistSync) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		now := formatTime(time.Now().UTC())
		for _, row := range rows {
			var err error
			if row.TargetPrice > 0 {
				_, err = tx.Exec(
					"UPDATE stocks SET is_in_watchlist = 1, target_price = ?, updated_at = ? WHERE id = ?",
					row.TargetPrice, now, row.ID,
				)
			} else {
				_, err = tx.Exec(
					"UPDATE stocks SET is_in_watchlist = 1, updated_at = ? WHERE id = ?",
					now, row.ID,
				)
			}
			if err != nil {
				return fmt.Errorf("failed to sync row %s to watchlist: %w", row.ID, err)
			}
		}
		return nil
	})
}

// ClearWatchlistFlags clears the watchlist flag on every given row in a
// single transaction.
func (r *Repository) ClearWatchlistFlags(ids []string) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		now := formatTime(time.Now().UTC())
		for _, id := range ids {
			if _, err := tx.Exec(
				"UPDATE stocks SET is_in_watchlist = 0, updated_at = ? WHERE id = ?",
				now, id,
			); err != nil {
				return fmt.Errorf("failed to clear watchlist flag on %s: %w", id, err)
			}
		}
		return nil
	})
}

// Count returns the number of rows matching the filters
func (r *Repository) Count(filters []Filter) (int, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM stocks"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count holdings: %w", err)
	}

	return count, nil
}

// scanner matches both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(s scanner) (domain.Holding, error) {
	var h domain.Holding
	var watchlist int
	var lastUpdated, createdAt, updatedAt string

	err := s.Scan(&h.ID, &h.UserID, &h.Name, &h.Ticker, &h.Shares, &h.BuyPrice,
		&h.CurrentPrice, &h.TargetPrice, &watchlist, &lastUpdated, &createdAt, &updatedAt)
	if err != nil {
		return domain.Holding{}, err
	}

	h.IsInWatchlist = watchlist != 0
	h.LastUpdated = parseTime(lastUpdated)
	h.CreatedAt = parseTime(createdAt)
	h.UpdatedAt = parseTime(updatedAt)

	return h, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
