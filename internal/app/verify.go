package app

import (
	"crypto/sha512"
	"encoding/hex"

	"innerfs/internal/core"
)

// VerifyMismatch names one file inode whose stored body failed to
// reproduce its recorded sha512 or size.
type VerifyMismatch struct {
	InodeID int64
	Path    string
	Kind    core.Kind
	Detail  string
}

// Verify iterates every file inode, fetching its body through the primary
// backend and checking SHA-512 and length against the stored values,
// without mutating any state. It collects every mismatch rather than
// stopping at the first, per spec.md's bulk-report contract.
func (a *App) Verify() ([]VerifyMismatch, error) {
	var mismatches []VerifyMismatch
	err := walkTree(a.Facade, core.RootInodeID, "/", func(p string, in *core.Inode) error {
		if in.IsDir() || in.Sha512 == "" {
			return nil
		}
		body, err := a.Facade.Pipeline.Read(in.Sha512, in.EncKey, in.Compress)
		if err != nil {
			mismatches = append(mismatches, VerifyMismatch{
				InodeID: in.ID, Path: p, Kind: core.KindOf(err), Detail: err.Error(),
			})
			return nil
		}
		if int64(len(body)) != in.Size {
			mismatches = append(mismatches, VerifyMismatch{
				InodeID: in.ID, Path: p, Kind: core.KindIntegrityFailure,
				Detail: "stored size does not match body length",
			})
			return nil
		}
		sum := sha512.Sum512(body)
		if hex.EncodeToString(sum[:]) != in.Sha512 {
			mismatches = append(mismatches, VerifyMismatch{
				InodeID: in.ID, Path: p, Kind: core.KindIntegrityFailure,
				Detail: "recomputed sha512 does not match stored value",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mismatches, nil
}
