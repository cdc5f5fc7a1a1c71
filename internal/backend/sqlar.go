package backend

import (
	"database/sql"
	"errors"

	"innerfs/internal/core"
)

// SqlarBackend stores each object as a row in a `sqlar` table inside the
// same SQLite database the metadata store uses, named after the classic
// sqlite3 `sqlar` archive extension. Bodies are stored exactly as handed
// to Put — codec-chain compression/encryption already happened upstream in
// the pipeline, so this backend never interprets the bytes it holds.
type SqlarBackend struct {
	db *sql.DB
}

func NewSqlarBackend(db *sql.DB) (*SqlarBackend, error) {
	const ddl = `
CREATE TABLE IF NOT EXISTS sqlar (
	name TEXT PRIMARY KEY,
	sz   INTEGER NOT NULL,
	data BLOB NOT NULL
)`
	if _, err := db.Exec(ddl); err != nil {
		return nil, core.NewError(core.KindBackendIO, "sqlar.new", "", err)
	}
	return &SqlarBackend{db: db}, nil
}

func (b *SqlarBackend) Put(name string, data []byte) error {
	_, err := b.db.Exec(
		`INSERT INTO sqlar (name, sz, data) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET sz = excluded.sz, data = excluded.data`,
		name, len(data), data,
	)
	if err != nil {
		return core.NewError(core.KindBackendIO, "sqlar.put", name, err)
	}
	return nil
}

func (b *SqlarBackend) Get(name string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRow(`SELECT data FROM sqlar WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewError(core.KindNoEntry, "sqlar.get", name, err)
	}
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "sqlar.get", name, err)
	}
	return data, nil
}

func (b *SqlarBackend) Delete(name string) error {
	if _, err := b.db.Exec(`DELETE FROM sqlar WHERE name = ?`, name); err != nil {
		return core.NewError(core.KindBackendIO, "sqlar.delete", name, err)
	}
	return nil
}

func (b *SqlarBackend) Exists(name string) (bool, error) {
	var one int
	err := b.db.QueryRow(`SELECT 1 FROM sqlar WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, core.NewError(core.KindBackendIO, "sqlar.exists", name, err)
	}
	return true, nil
}

func (b *SqlarBackend) List() (core.NameIterator, error) {
	rows, err := b.db.Query(`SELECT name FROM sqlar`)
	if err != nil {
		return nil, core.NewError(core.KindBackendIO, "sqlar.list", "", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, core.NewError(core.KindBackendIO, "sqlar.list", "", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewError(core.KindBackendIO, "sqlar.list", "", err)
	}
	return core.NewSliceNameIterator(names), nil
}

func (b *SqlarBackend) FreeBytes() (int64, bool) { return 0, false }
