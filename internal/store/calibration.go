package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Calibration is a persisted baseline depth frame.
type Calibration struct {
	ID         int64
	Width      int
	Height     int
	Depth      []uint16
	CapturedAt time.Time
}

// CalibrationRepository provides storage for calibration baselines.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

func encodeDepth(depth []uint16) []byte {
	buf := make([]byte, len(depth)*2)
	for i, d := range depth {
		binary.LittleEndian.PutUint16(buf[i*2:], d)
	}
	return buf
}

func decodeDepth(buf []byte) ([]uint16, error) {
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("depth blob has odd length %d", len(buf))
	}
	depth := make([]uint16, len(buf)/2)
	for i := range depth {
		depth[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return depth, nil
}

// Save stores a new calibration and sets its ID.
func (r *CalibrationRepository) Save(c *Calibration) error {
	if len(c.Depth) != c.Width*c.Height {
		return fmt.Errorf("calibration has %d samples, want %dx%d", len(c.Depth), c.Width, c.Height)
	}
	if c.CapturedAt.IsZero() {
		c.CapturedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO calibrations (width, height, depth, captured_at) VALUES (?, ?, ?, ?)`,
		c.Width, c.Height, encodeDepth(c.Depth), c.CapturedAt,
	)
	if err != nil {
		return err
	}

	c.ID, err = result.LastInsertId()
	return err
}

// Latest returns the most recently saved calibration.
func (r *CalibrationRepository) Latest() (*Calibration, error) {
	c := &Calibration{}
	var blob []byte

	err := r.db.QueryRow(
		`SELECT id, width, height, depth, captured_at
		 FROM calibrations ORDER BY id DESC LIMIT 1`,
	).Scan(&c.ID, &c.Width, &c.Height, &blob, &c.CapturedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if c.Depth, err = decodeDepth(blob); err != nil {
		return nil, err
	}
	return c, nil
}

// Prune deletes all but the newest keep calibrations and returns how many
// were removed.
func (r *CalibrationRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.Exec(
		`DELETE FROM calibrations WHERE id NOT IN (
			SELECT id FROM calibrations ORDER BY id DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the number of stored calibrations.
func (r *CalibrationRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM calibrations`).Scan(&n)
	return n, err
}
