// Package metadata implements the C4 MetadataStore against SQLite, hand
// writing the DAL that the teacher's sqlc-generated layer would otherwise
// provide.
package metadata

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"innerfs/internal/core"
	"innerfs/internal/metadata/migrations"
)

// SQLiteStore implements core.MetadataStore over a single SQLite database
// file holding the files/directory_entry/file_changes/persistent_settings
// tables.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenConnection opens path (or ":memory:") with the PRAGMAs InnerFS
// requires: foreign keys on, WAL journaling for concurrent readers during
// a mount.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// database/sql pools connections; a second connection to
		// ":memory:" opens an unrelated, empty database. Force a single
		// connection so in-memory stores behave like a real file.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}
	return db, nil
}

// NewSQLiteStore opens path, applies any pending migrations and returns a
// ready store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, core.NewError(core.KindBackendIO, "metadata.new", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// DB exposes the underlying connection for backends (sqlar) that need to
// share it, and for snapshot/export tooling.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.close", s.path, err)
	}
	return nil
}

func (s *SQLiteStore) GetInode(id int64) (*core.Inode, error) {
	row := s.db.QueryRow(`
		SELECT id, version, kind, name, uid, gid, perms, size, sha512, enc_key, compress, accessed_at, created_at, updated_at
		FROM files WHERE id = ?`, id)
	in, err := scanInode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewError(core.KindNoEntry, "metadata.getInode", "", err)
	}
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "metadata.getInode", "", err)
	}
	return in, nil
}

func (s *SQLiteStore) CreateInode(in *core.Inode) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO files (version, kind, name, uid, gid, perms, size, sha512, enc_key, compress, accessed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Version, in.Kind, in.Name, in.UID, in.GID, in.Perms, in.Size,
		in.Sha512, in.EncKey, in.Compress, in.AccessedAt, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return 0, core.NewError(core.KindBackendIO, "metadata.createInode", in.Name, err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateInode(in *core.Inode) error {
	_, err := s.db.Exec(`
		UPDATE files SET version = ?, kind = ?, name = ?, uid = ?, gid = ?, perms = ?, size = ?,
			sha512 = ?, enc_key = ?, compress = ?, accessed_at = ?, updated_at = ?
		WHERE id = ?`,
		in.Version, in.Kind, in.Name, in.UID, in.GID, in.Perms, in.Size,
		in.Sha512, in.EncKey, in.Compress, in.AccessedAt, in.UpdatedAt, in.ID)
	if err != nil {
		return core.NewError(core.KindBackendIO, "metadata.updateInode", in.Name, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteInode(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.deleteInode", "", err)
	}
	return nil
}

func (s *SQLiteStore) LookupEntry(dirID int64, name string) (*core.DirectoryEntry, error) {
	row := s.db.QueryRow(`
		SELECT id, directory_file_id, entry_file_id, name, kind
		FROM directory_entry WHERE directory_file_id = ? AND name = ?`, dirID, name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewError(core.KindNoEntry, "metadata.lookupEntry", name, err)
	}
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "metadata.lookupEntry", name, err)
	}
	return e, nil
}

func (s *SQLiteStore) ListEntries(dirID int64) ([]core.DirectoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, directory_file_id, entry_file_id, name, kind
		FROM directory_entry WHERE directory_file_id = ? ORDER BY name`, dirID)
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "metadata.listEntries", "", err)
	}
	defer rows.Close()
	var out []core.DirectoryEntry
	for rows.Next() {
		var e core.DirectoryEntry
		if err := rows.Scan(&e.ID, &e.DirectoryFileID, &e.EntryFileID, &e.Name, &e.Kind); err != nil {
			return nil, core.NewError(core.KindBackendIO, "metadata.listEntries", "", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateEntry(e *core.DirectoryEntry) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO directory_entry (directory_file_id, entry_file_id, name, kind)
		VALUES (?, ?, ?, ?)`, e.DirectoryFileID, e.EntryFileID, e.Name, e.Kind)
	if err != nil {
		return 0, core.NewError(core.KindExists, "metadata.createEntry", e.Name, err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) DeleteEntry(dirID int64, name string) error {
	if _, err := s.db.Exec(`DELETE FROM directory_entry WHERE directory_file_id = ? AND name = ?`, dirID, name); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.deleteEntry", name, err)
	}
	return nil
}

func (s *SQLiteStore) RenameEntry(oldDirID int64, oldName string, newDirID int64, newName string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendIO, "metadata.renameEntry", oldName, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM directory_entry WHERE directory_file_id = ? AND name = ?`, newDirID, newName); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.renameEntry", newName, err)
	}
	if _, err := tx.Exec(`
		UPDATE directory_entry SET directory_file_id = ?, name = ?
		WHERE directory_file_id = ? AND name = ?`, newDirID, newName, oldDirID, oldName); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.renameEntry", oldName, err)
	}
	// §4.5: the moved inode's own name attribute follows the entry, not
	// just the directory_entry row that indexes it.
	if newName != oldName {
		var entryFileID int64
		err := tx.QueryRow(`
			SELECT entry_file_id FROM directory_entry
			WHERE directory_file_id = ? AND name = ?`, newDirID, newName).Scan(&entryFileID)
		if err != nil {
			return core.NewError(core.KindBackendIO, "metadata.renameEntry", newName, err)
		}
		if _, err := tx.Exec(`UPDATE files SET name = ? WHERE id = ?`, newName, entryFileID); err != nil {
			return core.NewError(core.KindBackendIO, "metadata.renameEntry", newName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.renameEntry", oldName, err)
	}
	return nil
}

func (s *SQLiteStore) CountChildren(dirID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM directory_entry
		WHERE directory_file_id = ? AND name != '.' AND name != '..'`, dirID).Scan(&count)
	if err != nil {
		return 0, core.NewError(core.KindBackendIO, "metadata.countChildren", "", err)
	}
	return count, nil
}

func (s *SQLiteStore) AppendChange(e *core.ChangeJournalEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO file_changes (file_id, file_version, kind, file_sha512, changed_at)
		VALUES (?, ?, ?, ?, ?)`, e.FileID, e.FileVersion, e.Kind, e.FileSha512, e.ChangedAt)
	if err != nil {
		return core.NewError(core.KindBackendIO, "metadata.appendChange", "", err)
	}
	return nil
}

func (s *SQLiteStore) BlobRefCount(sha512, encKey, compress string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM files WHERE sha512 = ? AND enc_key = ? AND compress = ?`,
		sha512, encKey, compress).Scan(&count)
	if err != nil {
		return 0, core.NewError(core.KindBackendIO, "metadata.blobRefCount", "", err)
	}
	return count, nil
}

func (s *SQLiteStore) FindBlobBySha512(sha512 string) (string, string, bool, error) {
	var encKey, compress string
	err := s.db.QueryRow(`
		SELECT enc_key, compress FROM files WHERE sha512 = ? AND enc_key = '' LIMIT 1`, sha512).Scan(&encKey, &compress)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, core.NewError(core.KindBackendIO, "metadata.findBlobBySha512", "", err)
	}
	return encKey, compress, true, nil
}

func (s *SQLiteStore) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM persistent_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, core.NewError(core.KindBackendIO, "metadata.getSetting", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO persistent_settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return core.NewError(core.KindBackendIO, "metadata.setSetting", key, err)
	}
	return nil
}

func (s *SQLiteStore) AllSettings() (core.Settings, error) {
	rows, err := s.db.Query(`SELECT key, value FROM persistent_settings`)
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "metadata.allSettings", "", err)
	}
	defer rows.Close()
	out := make(core.Settings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, core.NewError(core.KindBackendIO, "metadata.allSettings", "", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountInodes() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, core.NewError(core.KindBackendIO, "metadata.countInodes", "", err)
	}
	return count, nil
}

func (s *SQLiteStore) SumFileSizes() (int64, error) {
	var sum sql.NullInt64
	if err := s.db.QueryRow(`SELECT SUM(size) FROM files WHERE kind = 0`).Scan(&sum); err != nil {
		return 0, core.NewError(core.KindBackendIO, "metadata.sumFileSizes", "", err)
	}
	return sum.Int64, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanInode(row scannable) (*core.Inode, error) {
	var in core.Inode
	err := row.Scan(&in.ID, &in.Version, &in.Kind, &in.Name, &in.UID, &in.GID, &in.Perms, &in.Size,
		&in.Sha512, &in.EncKey, &in.Compress, &in.AccessedAt, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func scanEntry(row scannable) (*core.DirectoryEntry, error) {
	var e core.DirectoryEntry
	if err := row.Scan(&e.ID, &e.DirectoryFileID, &e.EntryFileID, &e.Name, &e.Kind); err != nil {
		return nil, err
	}
	return &e, nil
}

var _ core.MetadataStore = (*SQLiteStore)(nil)
