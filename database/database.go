// Package database persists image records in SQLite. The connection is
// opened by the caller and handed to a Store; nothing in here holds global
// state, so tests can run against isolated in-memory databases.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"imagedup/duplicates"
	"imagedup/fingerprint"
	"imagedup/logging"
	"imagedup/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the database at dbPath and ensures the schema exists
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		folder TEXT NOT NULL DEFAULT 'default',
		format TEXT,
		width INTEGER,
		height INTEGER,
		size INTEGER,
		created_at TEXT,
		phash TEXT,
		phash_version INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_folder ON images(folder);
	CREATE INDEX IF NOT EXISTS idx_folder_filename ON images(folder, filename);
	CREATE INDEX IF NOT EXISTS idx_phash ON images(phash);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		return nil, err
	}

	// Databases written before fingerprints were versioned lack the
	// phash_version column; add it so their hashes read as unversioned
	var hasVersionColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('images') WHERE name='phash_version'").Scan(&hasVersionColumn)
	if err != nil {
		return nil, fmt.Errorf("error checking for phash_version column: %v", err)
	}

	if !hasVersionColumn {
		_, err = db.Exec("ALTER TABLE images ADD COLUMN phash_version INTEGER;")
		if err != nil {
			return nil, fmt.Errorf("error adding phash_version column: %v", err)
		}
		logging.DebugLog("Added 'phash_version' column to existing database schema")
	}

	return db, nil
}

// Store reads and writes image records over an injected connection
type Store struct {
	db *sql.DB
}

// The duplicate index consumes exactly this read surface
var _ duplicates.Store = (*Store)(nil)
var _ duplicates.FingerprintWriter = (*Store)(nil)

// NewStore creates a store over an open database handle. The store never
// closes the handle; its lifetime belongs to the caller.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertImage stores a new image record and returns its assigned ID.
// A nil fingerprint is stored as NULL, a modeled absent state.
func (s *Store) InsertImage(rec types.ImageRecord) (int64, error) {
	createdAt := rec.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().Format(time.RFC3339)
	}

	var phash sql.NullString
	var version sql.NullInt64
	if rec.Fingerprint != nil {
		phash = sql.NullString{String: *rec.Fingerprint, Valid: true}
		version = sql.NullInt64{Int64: fingerprint.Version, Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO images (filename, folder, format, width, height, size, created_at, phash, phash_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Filename, rec.Folder, rec.Format, rec.Width, rec.Height, rec.Size,
		createdAt, phash, version,
	)
	if err != nil {
		return 0, fmt.Errorf("cannot insert record for %s: %v", rec.Filename, err)
	}

	return result.LastInsertId()
}

// ImageByID returns the record with the given ID, or nil if absent
func (s *Store) ImageByID(id int64) (*types.ImageRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, filename, folder, format, width, height, size, created_at, phash
		FROM images WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read image %d: %v", id, err)
	}
	return rec, nil
}

// FingerprintedImages returns the records in the folder that carry a
// fingerprint computed with the current algorithm version. Rows hashed by an
// older configuration are excluded: their bit vectors are not comparable.
func (s *Store) FingerprintedImages(folder string) ([]types.ImageRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, filename, folder, format, width, height, size, created_at, phash
		FROM images
		WHERE folder = ? AND phash IS NOT NULL AND phash_version = ?
		ORDER BY id`, folder, fingerprint.Version)
	if err != nil {
		return nil, fmt.Errorf("cannot query folder %q: %v", folder, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ImagesByFilename returns all records in the folder with exactly this
// filename. Filenames are not unique within a folder.
func (s *Store) ImagesByFilename(folder, filename string) ([]types.ImageRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, filename, folder, format, width, height, size, created_at, phash
		FROM images
		WHERE folder = ? AND filename = ?
		ORDER BY id`, folder, filename)
	if err != nil {
		return nil, fmt.Errorf("cannot query folder %q: %v", folder, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// SetFingerprint attaches a fingerprint to an existing record (backfill)
func (s *Store) SetFingerprint(id int64, fp string) error {
	result, err := s.db.Exec(
		"UPDATE images SET phash = ?, phash_version = ? WHERE id = ?",
		fp, fingerprint.Version, id,
	)
	if err != nil {
		return fmt.Errorf("cannot update fingerprint for image %d: %v", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no image with id %d", id)
	}
	return nil
}

// DeleteImage removes a record
func (s *Store) DeleteImage(id int64) error {
	_, err := s.db.Exec("DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("cannot delete image %d: %v", id, err)
	}
	return nil
}

// FolderStats summarizes the records stored in one folder
type FolderStats struct {
	TotalImages        int
	Fingerprinted      int
	UniqueFingerprints int
}

// GetFolderStats retrieves statistics about a folder's records
func (s *Store) GetFolderStats(folder string) (*FolderStats, error) {
	var stats FolderStats

	err := s.db.QueryRow("SELECT COUNT(*) FROM images WHERE folder = ?", folder).Scan(&stats.TotalImages)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %v", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM images WHERE folder = ? AND phash IS NOT NULL", folder).Scan(&stats.Fingerprinted)
	if err != nil {
		return nil, fmt.Errorf("failed to count fingerprinted images: %v", err)
	}

	err = s.db.QueryRow("SELECT COUNT(DISTINCT phash) FROM images WHERE folder = ? AND phash IS NOT NULL", folder).Scan(&stats.UniqueFingerprints)
	if err != nil {
		return nil, fmt.Errorf("failed to count unique fingerprints: %v", err)
	}

	return &stats, nil
}

// rowScanner lets scanRecord work for both QueryRow and Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*types.ImageRecord, error) {
	var rec types.ImageRecord
	var format sql.NullString
	var width, height, size sql.NullInt64
	var createdAt sql.NullString
	var phash sql.NullString

	err := row.Scan(&rec.ID, &rec.Filename, &rec.Folder, &format, &width, &height, &size, &createdAt, &phash)
	if err != nil {
		return nil, err
	}

	rec.Format = format.String
	rec.Width = int(width.Int64)
	rec.Height = int(height.Int64)
	rec.Size = size.Int64
	rec.CreatedAt = createdAt.String
	if phash.Valid {
		fp := phash.String
		rec.Fingerprint = &fp
	}

	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]types.ImageRecord, error) {
	var records []types.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
