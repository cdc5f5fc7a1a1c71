package metadata

import (
	"fmt"

	"innerfs/internal/core"
)

// SnapshotTo writes a consistent point-in-time copy of the database to
// destPath using SQLite's VACUUM INTO, the same mechanism the teacher's
// app.Close used to produce a backup-ready snapshot before uploading it.
func (s *SQLiteStore) SnapshotTo(destPath string) error {
	_, err := s.db.Exec(fmt.Sprintf("VACUUM INTO %q", destPath))
	if err != nil {
		return core.NewError(core.KindBackendIO, "metadata.snapshotTo", destPath, err)
	}
	return nil
}

// Nuke truncates every metadata table and reinitializes the root
// directory row, following original_source's MetadataDB::nuke. Run
// inside a transaction so a failure partway through leaves the store
// exactly as it was before the call.
func (s *SQLiteStore) Nuke() error {
	tx, err := s.db.Begin()
	if err != nil {
		return core.NewError(core.KindBackendIO, "metadata.nuke", "", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"directory_entry", "files", "file_changes", "persistent_settings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return core.NewError(core.KindBackendIO, "metadata.nuke", table, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO files (id, version, kind, name, uid, gid, perms, size, accessed_at, created_at, updated_at)
		 VALUES (?, 1, ?, '/', 0, 0, 493, 0, 0, 0, 0)`,
		core.RootInodeID, core.KindDirectory); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.nuke", "root", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO directory_entry (directory_file_id, entry_file_id, name, kind) VALUES (?, ?, '.', ?)`,
		core.RootInodeID, core.RootInodeID, core.KindDirectory); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.nuke", "root self-entry", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO directory_entry (directory_file_id, entry_file_id, name, kind) VALUES (?, ?, '..', ?)`,
		core.RootInodeID, core.RootInodeID, core.KindDirectory); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.nuke", "root parent-entry", err)
	}

	if err := tx.Commit(); err != nil {
		return core.NewError(core.KindBackendIO, "metadata.nuke", "", err)
	}
	return nil
}
