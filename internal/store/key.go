package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/depthkeys/internal/keys"
)

// KeyRegion is a persisted key rectangle. Pixel indices are not stored; they
// are rebuilt from Rect against the live frame size on load.
type KeyRegion struct {
	ID        string
	Key       string
	Label     string
	Rect      keys.Rect
	Position  int
	CreatedAt time.Time
}

// FromRegion converts a live region into its stored form.
func FromRegion(r keys.Region) *KeyRegion {
	return &KeyRegion{
		ID:    r.ID,
		Key:   r.Key,
		Label: r.Label,
		Rect:  r.Rect,
	}
}

// Region rebuilds the live region for a frame of the given size.
func (k *KeyRegion) Region(frameWidth, frameHeight int) (keys.Region, error) {
	r, err := keys.NewRegion(k.Rect, k.Key, frameWidth, frameHeight)
	if err != nil {
		return keys.Region{}, err
	}
	return r.WithID(k.ID).WithLabel(k.Label), nil
}

// KeyRepository provides storage for key regions.
type KeyRepository struct {
	db *sql.DB
}

// Keys returns the key region repository for this store.
func (s *Store) Keys() *KeyRepository {
	return &KeyRepository{db: s.db}
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertKey(db execer, k *KeyRegion) error {
	_, err := db.Exec(
		`INSERT INTO key_regions (id, key, label, left_px, top_px, width_px, height_px, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		k.ID, k.Key, k.Label, k.Rect.Left, k.Rect.Top, k.Rect.Width, k.Rect.Height, k.Position, k.CreatedAt,
	)
	return err
}

// Create appends a key region after the existing ones.
func (r *KeyRepository) Create(k *KeyRegion) error {
	var next int
	if err := r.db.QueryRow(`SELECT COALESCE(MAX(position), -1) + 1 FROM key_regions`).Scan(&next); err != nil {
		return err
	}

	k.Position = next
	k.CreatedAt = time.Now()
	return insertKey(r.db, k)
}

// GetByID retrieves a key region by its ID.
func (r *KeyRepository) GetByID(id string) (*KeyRegion, error) {
	k := &KeyRegion{}

	err := r.db.QueryRow(
		`SELECT id, key, label, left_px, top_px, width_px, height_px, position, created_at
		 FROM key_regions WHERE id = ?`,
		id,
	).Scan(&k.ID, &k.Key, &k.Label, &k.Rect.Left, &k.Rect.Top, &k.Rect.Width, &k.Rect.Height, &k.Position, &k.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return k, nil
}

// List retrieves all key regions in the order they were added.
func (r *KeyRepository) List() ([]*KeyRegion, error) {
	rows, err := r.db.Query(
		`SELECT id, key, label, left_px, top_px, width_px, height_px, position, created_at
		 FROM key_regions ORDER BY position ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []*KeyRegion
	for rows.Next() {
		k := &KeyRegion{}
		err := rows.Scan(&k.ID, &k.Key, &k.Label, &k.Rect.Left, &k.Rect.Top, &k.Rect.Width, &k.Rect.Height, &k.Position, &k.CreatedAt)
		if err != nil {
			return nil, err
		}
		regions = append(regions, k)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return regions, nil
}

// DeleteAll removes every key region.
func (r *KeyRepository) DeleteAll() error {
	_, err := r.db.Exec(`DELETE FROM key_regions`)
	return err
}

// ReplaceAll atomically replaces the stored regions with the given ones,
// keeping their order.
func (r *KeyRepository) ReplaceAll(regions []*KeyRegion) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM key_regions`); err != nil {
		return err
	}

	now := time.Now()
	for i, k := range regions {
		k.Position = i
		k.CreatedAt = now
		if err := insertKey(tx, k); err != nil {
			return err
		}
	}

	return tx.Commit()
}
