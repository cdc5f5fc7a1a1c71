package app

import (
	"archive/tar"
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"innerfs/internal/core"
)

// TreeNode is the recursive shape export-index serializes: one inode plus
// its children, excluding body bytes. Grounded on original_source's
// FsTree/get_tree.
type TreeNode struct {
	ID         int64      `json:"id" yaml:"id"`
	Kind       string     `json:"kind" yaml:"kind"`
	Name       string     `json:"name" yaml:"name"`
	UID        uint32     `json:"uid" yaml:"uid"`
	GID        uint32     `json:"gid" yaml:"gid"`
	Perms      uint32     `json:"perms" yaml:"perms"`
	Size       int64      `json:"size" yaml:"size"`
	Sha512     string     `json:"sha512" yaml:"sha512"`
	AccessedAt int64      `json:"accessed_at" yaml:"accessed_at"`
	CreatedAt  int64      `json:"created_at" yaml:"created_at"`
	UpdatedAt  int64      `json:"updated_at" yaml:"updated_at"`
	Children   []TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree builds the recursive TreeNode view of the whole filesystem.
func (a *App) Tree() (*TreeNode, error) {
	root, err := a.store.GetInode(core.RootInodeID)
	if err != nil {
		return nil, err
	}
	return a.treeNode(root)
}

func (a *App) treeNode(in *core.Inode) (*TreeNode, error) {
	node := &TreeNode{
		ID: in.ID, Kind: in.Kind.String(), Name: in.Name,
		UID: in.UID, GID: in.GID, Perms: in.Perms, Size: in.Size,
		Sha512: in.Sha512, AccessedAt: in.AccessedAt,
		CreatedAt: in.CreatedAt, UpdatedAt: in.UpdatedAt,
	}
	if !in.IsDir() {
		return node, nil
	}
	entries, err := a.store.ListEntries(in.ID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		child, err := a.store.GetInode(e.EntryFileID)
		if err != nil {
			return nil, err
		}
		childNode, err := a.treeNode(child)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, *childNode)
	}
	return node, nil
}

// ExportIndex writes the tree in the requested format ("json" or "yaml").
func (a *App) ExportIndex(w io.Writer, format string) error {
	tree, err := a.Tree()
	if err != nil {
		return err
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case "yaml":
		return yaml.NewEncoder(w).Encode(tree)
	default:
		return fmt.Errorf("unknown export-index format %q", format)
	}
}

// ExportFiles walks the subtree rooted at path and streams every file's
// body, read through the blob pipeline, into the chosen container format
// ("zip", "tar" or "directory").
func (a *App) ExportFiles(rootPath string, format string, dest string) error {
	in, err := a.Facade.Resolver.ResolvePath(rootPath)
	if err != nil {
		return err
	}

	switch format {
	case "zip":
		return a.exportZip(in, dest)
	case "tar":
		return a.exportTar(in, dest)
	case "directory":
		return a.exportDirectory(in, dest)
	default:
		return fmt.Errorf("unknown export-files format %q", format)
	}
}

func (a *App) exportZip(root *core.Inode, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating zip archive: %w", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	defer zw.Close()

	return a.walkForExport(root, "", func(p string, in *core.Inode) error {
		if in.IsDir() {
			_, err := zw.Create(p + "/")
			return err
		}
		body, err := a.readBodyFor(in)
		if err != nil {
			return err
		}
		w, err := zw.Create(p)
		if err != nil {
			return err
		}
		_, err = w.Write(body)
		return err
	})
}

func (a *App) exportTar(root *core.Inode, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating tar archive: %w", err)
	}
	defer f.Close()
	tw := tar.NewWriter(f)
	defer tw.Close()

	return a.walkForExport(root, "", func(p string, in *core.Inode) error {
		header := &tar.Header{
			Name:    p,
			Mode:    int64(in.Perms),
			Uid:     int(in.UID),
			Gid:     int(in.GID),
			ModTime: unixTime(in.UpdatedAt),
		}
		if in.IsDir() {
			header.Name += "/"
			header.Typeflag = tar.TypeDir
			return tw.WriteHeader(header)
		}
		body, err := a.readBodyFor(in)
		if err != nil {
			return err
		}
		header.Typeflag = tar.TypeReg
		header.Size = int64(len(body))
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		_, err = tw.Write(body)
		return err
	})
}

func (a *App) exportDirectory(root *core.Inode, dest string) error {
	return a.walkForExport(root, "", func(p string, in *core.Inode) error {
		full := filepath.Join(dest, p)
		if in.IsDir() {
			return os.MkdirAll(full, 0o755)
		}
		body, err := a.readBodyFor(in)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		return os.WriteFile(full, body, os.FileMode(in.Perms))
	})
}

// walkForExport visits every descendant of root, calling visit with a
// path relative to root; root itself (empty relPath) is not visited.
func (a *App) walkForExport(in *core.Inode, relPath string, visit func(string, *core.Inode) error) error {
	if relPath != "" {
		if err := visit(relPath, in); err != nil {
			return err
		}
	}
	if !in.IsDir() {
		return nil
	}
	entries, err := a.store.ListEntries(in.ID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		child, err := a.store.GetInode(e.EntryFileID)
		if err != nil {
			return err
		}
		childPath := filepath.Join(relPath, e.Name)
		if err := a.walkForExport(child, childPath, visit); err != nil {
			return err
		}
	}
	return nil
}

func unixTime(sec int64) time.Time { return time.Unix(sec, 0) }

func (a *App) readBodyFor(in *core.Inode) ([]byte, error) {
	if in.Sha512 == "" {
		return nil, nil
	}
	return a.Facade.Pipeline.Read(in.Sha512, in.EncKey, in.Compress)
}
