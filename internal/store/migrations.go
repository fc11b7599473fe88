package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Key regions, in the order they were added
		`CREATE TABLE IF NOT EXISTS key_regions (
			id TEXT PRIMARY KEY,
			key TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			left_px INTEGER NOT NULL CHECK(left_px >= 0),
			top_px INTEGER NOT NULL CHECK(top_px >= 0),
			width_px INTEGER NOT NULL CHECK(width_px >= 0),
			height_px INTEGER NOT NULL CHECK(height_px >= 0),
			position INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Calibration baselines, depth stored as little-endian uint16
		`CREATE TABLE IF NOT EXISTS calibrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			depth BLOB NOT NULL,
			captured_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_key_regions_position ON key_regions(position)`,
		`CREATE INDEX IF NOT EXISTS idx_calibrations_captured_at ON calibrations(captured_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
