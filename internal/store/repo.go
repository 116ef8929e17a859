package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/strength/internal/apperr"
	"github.com/starford/strength/internal/models"
)

const selectCardSQL = `SELECT id, section, card_name, icon, description, sets, reps, equipment, targets, created_at, updated_at FROM cards`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (int64, models.Card, error) {
	var (
		id                 int64
		c                  models.Card
		section            string
		sets, reps         sql.NullInt64
		equipment, targets sql.NullString
	)
	err := row.Scan(&id, &section, &c.CardName, &c.Icon, &c.Description,
		&sets, &reps, &equipment, &targets, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return 0, models.Card{}, err
	}
	c.Section = models.Section(section)
	if sets.Valid {
		c.Sets = models.Int(int(sets.Int64))
	}
	if reps.Valid {
		c.Reps = models.Int(int(reps.Int64))
	}
	if equipment.Valid {
		c.Equipment = models.String(equipment.String)
	}
	if targets.Valid {
		c.Targets = models.String(targets.String)
	}
	return id, c, nil
}

func collect(rows *sql.Rows) ([]models.Card, error) {
	defer rows.Close()
	out := []models.Card{}
	for rows.Next() {
		_, c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Create inserts a new card. It fails with apperr.ErrAlreadyExists when the
// (section, cardName) key is taken.
func (db *DB) Create(ctx context.Context, card models.Card) (models.Card, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Card{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO cards (section, card_name, icon, description, sets, reps, equipment, targets, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(card.Section), card.CardName, card.Icon, card.Description,
		nullInt(card.Sets), nullInt(card.Reps), nullString(card.Equipment), nullString(card.Targets), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Card{}, fmt.Errorf("store: card %q in %q: %w", card.CardName, card.Section, apperr.ErrAlreadyExists)
		}
		return models.Card{}, fmt.Errorf("store: insert card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Card{}, fmt.Errorf("store: last insert id: %w", err)
	}

	_, created, err := scanCard(tx.QueryRowContext(ctx, selectCardSQL+` WHERE id = ?`, id))
	if err != nil {
		return models.Card{}, fmt.Errorf("store: read created card: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Card{}, fmt.Errorf("store: commit: %w", err)
	}
	return created, nil
}

// Get returns the card with the given key. Lookups are always scoped by
// section; a same-named card in another section is never returned.
func (db *DB) Get(ctx context.Context, section models.Section, cardName string) (models.Card, error) {
	_, c, err := scanCard(db.conn.QueryRowContext(ctx,
		selectCardSQL+` WHERE section = ? AND card_name = ?`, string(section), cardName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Card{}, apperr.ErrNotFound
		}
		return models.Card{}, fmt.Errorf("store: get card: %w", err)
	}
	return c, nil
}

// List returns the cards of one section in insertion order.
// A section without cards yields an empty, non-nil slice.
func (db *DB) List(ctx context.Context, section models.Section) ([]models.Card, error) {
	rows, err := db.conn.QueryContext(ctx, selectCardSQL+` WHERE section = ? ORDER BY id`, string(section))
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	cards, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("store: scan cards: %w", err)
	}
	return cards, nil
}

// Index returns every card, grouped by section.
func (db *DB) Index(ctx context.Context) ([]models.Card, error) {
	rows, err := db.conn.QueryContext(ctx, selectCardSQL+` ORDER BY section, id`)
	if err != nil {
		return nil, fmt.Errorf("store: index cards: %w", err)
	}
	cards, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("store: scan cards: %w", err)
	}
	return cards, nil
}

// Update applies the present fields of patch to the matching card inside one
// transaction and returns the full record as committed. Absent fields are not
// touched. When no card matches, nothing is written and apperr.ErrNotFound is
// returned.
func (db *DB) Update(ctx context.Context, section models.Section, cardName string, patch models.CardPatch) (models.Card, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Card{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		assign []string
		args   []any
	)
	if v, ok := patch.Sets.Get(); ok {
		assign = append(assign, "sets = ?")
		args = append(args, v)
	}
	if v, ok := patch.Reps.Get(); ok {
		assign = append(assign, "reps = ?")
		args = append(args, v)
	}
	if v, ok := patch.Equipment.Get(); ok {
		assign = append(assign, "equipment = ?")
		args = append(args, v)
	}
	if v, ok := patch.Targets.Get(); ok {
		assign = append(assign, "targets = ?")
		args = append(args, v)
	}

	if len(assign) > 0 {
		assign = append(assign, "updated_at = ?")
		args = append(args, time.Now().UTC(), string(section), cardName)
		res, err := tx.ExecContext(ctx,
			`UPDATE cards SET `+strings.Join(assign, ", ")+` WHERE section = ? AND card_name = ?`, args...)
		if err != nil {
			return models.Card{}, fmt.Errorf("store: update card: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return models.Card{}, fmt.Errorf("store: rows affected: %w", err)
		}
		if n == 0 {
			return models.Card{}, apperr.ErrNotFound
		}
	}

	_, updated, err := scanCard(tx.QueryRowContext(ctx,
		selectCardSQL+` WHERE section = ? AND card_name = ?`, string(section), cardName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Card{}, apperr.ErrNotFound
		}
		return models.Card{}, fmt.Errorf("store: read updated card: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Card{}, fmt.Errorf("store: commit: %w", err)
	}
	return updated, nil
}

// Remove deletes the card with the given key, failing with
// apperr.ErrNotFound when it does not exist.
func (db *DB) Remove(ctx context.Context, section models.Section, cardName string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM cards WHERE section = ? AND card_name = ?`, string(section), cardName)
	if err != nil {
		return fmt.Errorf("store: delete card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// RemoveByName deletes a card identified by name alone. Because names are
// only unique within a section, it fails with apperr.ErrConflict when more
// than one section holds the name.
func (db *DB) RemoveByName(ctx context.Context, cardName string) (models.Card, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return models.Card{}, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, selectCardSQL+` WHERE card_name = ? ORDER BY id LIMIT 2`, cardName)
	if err != nil {
		return models.Card{}, fmt.Errorf("store: find card: %w", err)
	}
	var (
		ids     []int64
		matches []models.Card
	)
	for rows.Next() {
		id, c, err := scanCard(rows)
		if err != nil {
			rows.Close()
			return models.Card{}, fmt.Errorf("store: scan card: %w", err)
		}
		ids = append(ids, id)
		matches = append(matches, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return models.Card{}, fmt.Errorf("store: find card: %w", err)
	}
	rows.Close()

	switch len(matches) {
	case 0:
		return models.Card{}, apperr.ErrNotFound
	case 1:
	default:
		return models.Card{}, fmt.Errorf("store: card name %q exists in several sections: %w", cardName, apperr.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, ids[0]); err != nil {
		return models.Card{}, fmt.Errorf("store: delete card: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Card{}, fmt.Errorf("store: commit: %w", err)
	}
	return matches[0], nil
}

// Seed inserts the card unless its key has ever been stored before, even if
// that card was later deleted. Existing cards are left untouched. It reports
// whether a row was inserted.
func (db *DB) Seed(ctx context.Context, card models.Card) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var known int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM card_keys WHERE section = ? AND card_name = ?`,
		string(card.Section), card.CardName).Scan(&known)
	if err != nil {
		return false, fmt.Errorf("store: check card key: %w", err)
	}
	if known > 0 {
		return false, nil
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards (section, card_name, icon, description, sets, reps, equipment, targets, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, string(card.Section), card.CardName, card.Icon, card.Description,
		nullInt(card.Sets), nullInt(card.Reps), nullString(card.Equipment), nullString(card.Targets), now, now)
	if err != nil {
		return false, fmt.Errorf("store: seed card: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("store: commit: %w", err)
	}
	return true, nil
}
