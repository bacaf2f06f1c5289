// Package history keeps generated batches in the workspace database so a
// user can re-push or audit earlier runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dreamland/internal/domain"
)

var ErrNotFound = errors.New("batch not found")

// Batch is one saved generation run.
type Batch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	ItemCount int    `json:"item_count"`
}

type Store struct {
	DB *sql.DB
}

// SaveBatch stores one generation run. The items are kept as the raw JSON
// blob the run produced; save failures are the caller's to report, the
// engine never blocks on them.
func (s Store) SaveBatch(ctx context.Context, name string, ts time.Time, items []domain.CandidateItem) (Batch, error) {
	blob, err := json.Marshal(items)
	if err != nil {
		return Batch{}, fmt.Errorf("marshal items: %w", err)
	}
	b := Batch{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: ts.UTC().Format(time.RFC3339),
		ItemCount: len(items),
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO generation_batches(id,name,created_at,items_json) VALUES (?,?,?,?)`,
		b.ID, b.Name, b.CreatedAt, string(blob))
	if err != nil {
		return Batch{}, fmt.Errorf("insert batch: %w", err)
	}
	return b, nil
}

// ListBatches returns batches newest first.
func (s Store) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id,name,created_at,items_json FROM generation_batches ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Batch
	for rows.Next() {
		var b Batch
		var blob string
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &blob); err != nil {
			return nil, err
		}
		var items []domain.CandidateItem
		if err := json.Unmarshal([]byte(blob), &items); err == nil {
			b.ItemCount = len(items)
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// GetBatch returns one batch with its decoded items.
func (s Store) GetBatch(ctx context.Context, id string) (Batch, []domain.CandidateItem, error) {
	var b Batch
	var blob string
	err := s.DB.QueryRowContext(ctx, `SELECT id,name,created_at,items_json FROM generation_batches WHERE id=?`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &blob)
	if err == sql.ErrNoRows {
		return Batch{}, nil, ErrNotFound
	}
	if err != nil {
		return Batch{}, nil, err
	}
	var items []domain.CandidateItem
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return Batch{}, nil, fmt.Errorf("decode batch %s: %w", id, err)
	}
	b.ItemCount = len(items)
	return b, items, nil
}

// LatestBatch returns the most recent batch with its items.
func (s Store) LatestBatch(ctx context.Context) (Batch, []domain.CandidateItem, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `SELECT id FROM generation_batches ORDER BY created_at DESC, id LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return Batch{}, nil, ErrNotFound
	}
	if err != nil {
		return Batch{}, nil, err
	}
	return s.GetBatch(ctx, id)
}
