// Package assets manages commodity holdings (gold and silver) valued by weight.
package assets

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/holdwatch/holdwatch/internal/domain"
)

// ErrNotFound is returned when an asset row does not exist
var ErrNotFound = errors.New("asset not found")

const assetColumns = `id, user_id, name, grams, buy_price, current_price,
	last_updated, created_at, updated_at`

// Repository provides data access for the assets table
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new assets repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "assets").Logger(),
	}
}

// FindAllByUser returns the user's assets ordered by name
func (r *Repository) FindAllByUser(userID string) ([]domain.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM assets WHERE user_id = ? ORDER BY name", assetColumns)

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		asset, err := r.scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}

	return assets, rows.Err()
}

// FindAll returns every asset row across all users, used by the price
// refresh sweep
func (r *Repository) FindAll() ([]domain.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM assets", assetColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		asset, err := r.scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}

	return assets, rows.Err()
}

// FindByID returns a single asset row
func (r *Repository) FindByID(id string) (*domain.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM assets WHERE id = ?", assetColumns)

	asset, err := r.scanAsset(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}

	return asset, nil
}

// Create persists a new asset row, assigning id and timestamps
func (r *Repository) Create(a domain.Asset) (*domain.Asset, error) {
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.LastUpdated = now
	a.CreatedAt = now
	a.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO assets (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, assetColumns)
	_, err := r.db.Exec(query,
		a.ID, a.UserID, a.Name, a.Grams, a.BuyPrice, a.CurrentPrice,
		formatTime(now), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert asset: %w", err)
	}

	return &a, nil
}

// Update applies a partial update and returns the stored row
func (r *Repository) Update(id string, fields map[string]interface{}) (*domain.Asset, error) {
	allowed := map[string]bool{
		"name": true, "grams": true, "buy_price": true,
		"current_price": true, "last_updated": true,
	}

	setClause := ""
	args := []interface{}{}
	for column, value := range fields {
		if !allowed[column] {
			return nil, fmt.Errorf("update field not allowed: %s", column)
		}
		if setClause != "" {
			setClause += ", "
		}
		setClause += column + " = ?"
		if t, ok := value.(time.Time); ok {
			value = formatTime(t)
		}
		args = append(args, value)
	}
	if setClause == "" {
		return r.FindByID(id)
	}

	setClause += ", updated_at = ?"
	args = append(args, formatTime(time.Now().UTC()), id)

	result, err := r.db.Exec("UPDATE assets SET "+setClause+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.FindByID(id)
}

// Delete removes an asset row
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanAsset(row scanner) (*domain.Asset, error) {
	var a domain.Asset
	var lastUpdated, createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Grams, &a.BuyPrice,
		&a.CurrentPrice, &lastUpdated, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	a.LastUpdated = parseTime(lastUpdated)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
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
