package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"weaponforge/internal/model"
)

// fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RawRepository is the audit trail of every generation attempt, kept in
// either sqlite or postgres through database/sql.
type RawRepository struct {
	DB     *sql.DB
	Driver string
}

func (r *RawRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generation_log (
			id          TEXT PRIMARY KEY,
			base_name   TEXT NOT NULL,
			weapon_name TEXT NOT NULL,
			prompt      TEXT NOT NULL,
			raw_text    TEXT NOT NULL,
			attempt     INTEGER NOT NULL,
			outcome     TEXT NOT NULL,
			error       TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)`)
	return err
}

func (r *RawRepository) Save(ctx context.Context, l *model.GenerationLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	// invalid UTF-8 from the model would be rejected by postgres
	raw := strings.ToValidUTF8(l.RawText, "")

	_, err := r.DB.ExecContext(ctx, r.rebind(`
		INSERT INTO generation_log
		(id, base_name, weapon_name, prompt, raw_text, attempt, outcome, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), l.ID, l.BaseName, l.WeaponName, l.Prompt, raw, l.Attempt, l.Outcome, l.Error,
		l.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert generation log: %w", err)
	}
	return nil
}

func (r *RawRepository) Recent(ctx context.Context, limit int) ([]model.GenerationLog, error) {
	rows, err := r.DB.QueryContext(ctx, r.rebind(`
		SELECT id, base_name, weapon_name, prompt, raw_text, attempt, outcome, error, created_at
		FROM generation_log
		ORDER BY created_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.GenerationLog
	for rows.Next() {
		var l model.GenerationLog
		var created string
		if err := rows.Scan(&l.ID, &l.BaseName, &l.WeaponName, &l.Prompt, &l.RawText, &l.Attempt, &l.Outcome, &l.Error, &created); err != nil {
			return nil, err
		}
		ts, err := time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("generation log %s: created_at %q: %w", l.ID, created, err)
		}
		l.CreatedAt = ts
		list = append(list, l)
	}
	return list, rows.Err()
}

// rebind turns ? placeholders into $n for postgres.
func (r *RawRepository) rebind(q string) string {
	if r.Driver != "postgres" {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
