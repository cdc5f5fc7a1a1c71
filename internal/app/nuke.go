package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"innerfs/internal/core"
)

// Nuke drops every object from the primary backend and every replica
// (listing each one, since there is no other way to enumerate a content-
// addressed namespace), truncates all metadata tables and reinitializes
// the schema, then removes the WAL/SHM sidecar files SQLite leaves
// behind. Grounded on original_source's nuke command.
func (a *App) Nuke() error {
	for _, b := range append([]core.Backend{a.primary}, a.replicas...) {
		if err := nukeBackend(b); err != nil {
			return err
		}
	}

	if err := a.store.Nuke(); err != nil {
		return err
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(a.cfg.DatabaseFile + suffix)
	}
	return nil
}

func nukeBackend(b core.Backend) error {
	it, err := b.List()
	if err != nil {
		return err
	}
	defer it.Close()

	for {
		name, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := b.Delete(name); err != nil {
			return err
		}
	}
}

// ConfirmNuke implements spec.md's stdin confirmation gate: the user must
// type "yes" or "y". force bypasses the prompt entirely.
func ConfirmNuke(r io.Reader, w io.Writer, force bool) (bool, error) {
	if force {
		return true, nil
	}
	fmt.Fprintln(w, "This operation is irreversible. Type 'yes' or 'y' to proceed:")
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "yes" || answer == "y", nil
}
