package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"weaponforge/internal/model"
)

var ErrNotFound = errors.New("weapon not found")

// WeaponStore persists priced weapon documents.
type WeaponStore interface {
	Save(ctx context.Context, doc *model.WeaponDocument) error
	List(ctx context.Context, limit int) ([]model.WeaponDocument, error)
	UpdatePrice(ctx context.Context, id string, price float64) error
}

// WeaponRepository keeps each weapon as a JSONB document in Postgres.
type WeaponRepository struct {
	DB *pgxpool.Pool
}

func (r *WeaponRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS weapons (
			id              uuid PRIMARY KEY,
			name            text NOT NULL DEFAULT '',
			doc             jsonb NOT NULL,
			predicted_price double precision NOT NULL,
			created_at      timestamptz NOT NULL DEFAULT now()
		)`)
	return err
}

// Save assigns an ID and creation time when missing and inserts the document.
func (r *WeaponRepository) Save(ctx context.Context, doc *model.WeaponDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return fmt.Errorf("weapon id: %w", err)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode weapon: %w", err)
	}

	_, err = r.DB.Exec(ctx, `
		INSERT INTO weapons (id, name, doc, predicted_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, doc.Name, body, doc.PredictedPrice, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert weapon: %w", err)
	}
	return nil
}

func (r *WeaponRepository) List(ctx context.Context, limit int) ([]model.WeaponDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, `SELECT doc FROM weapons ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.WeaponDocument
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d model.WeaponDocument
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode weapon: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *WeaponRepository) UpdatePrice(ctx context.Context, id string, price float64) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("weapon id: %w", err)
	}
	tag, err := r.DB.Exec(ctx, `
		UPDATE weapons
		SET predicted_price = $1, doc = jsonb_set(doc, '{predicted_price}', to_jsonb($1::double precision))
		WHERE id = $2
	`, price, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
