package app

import (
	"path"
	"sort"

	"innerfs/internal/core"
)

// Stats is the JSON object `stats` prints: spec.md's counts-and-sums
// contract supplemented with the largest-files and extension-histogram
// breakdowns original_source's stats command reports.
type Stats struct {
	Files         int64            `json:"files"`
	Directories   int64            `json:"directories"`
	TotalBytes    int64            `json:"total_bytes"`
	LargestFiles  []FileSizeEntry  `json:"largest_files"`
	ExtensionHist []ExtensionCount `json:"extension_histogram"`
	FreeBytes     int64            `json:"backend_free_bytes"`
}

// FileSizeEntry names one file in the largest-files breakdown.
type FileSizeEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ExtensionCount names one file extension and how many files carry it.
type ExtensionCount struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
}

const (
	largestFilesLimit = 5
	extensionHistLimit = 10
)

// Stats walks the whole inode tree once, building the aggregate report.
func (a *App) Stats() (*Stats, error) {
	files, err := a.store.CountInodes()
	if err != nil {
		return nil, err
	}
	total, err := a.store.SumFileSizes()
	if err != nil {
		return nil, err
	}

	var (
		dirs      int64
		sizes     []FileSizeEntry
		extCounts = map[string]int{}
	)
	err = walkTree(a.Facade, core.RootInodeID, "/", func(p string, in *core.Inode) error {
		if in.IsDir() {
			dirs++
			return nil
		}
		sizes = append(sizes, FileSizeEntry{Path: p, Size: in.Size})
		if ext := path.Ext(in.Name); ext != "" {
			extCounts[ext]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Size > sizes[j].Size })
	if len(sizes) > largestFilesLimit {
		sizes = sizes[:largestFilesLimit]
	}

	hist := make([]ExtensionCount, 0, len(extCounts))
	for ext, count := range extCounts {
		hist = append(hist, ExtensionCount{Extension: ext, Count: count})
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].Count > hist[j].Count })
	if len(hist) > extensionHistLimit {
		hist = hist[:extensionHistLimit]
	}

	free, _ := a.primary.FreeBytes()

	return &Stats{
		Files:         files,
		Directories:   dirs,
		TotalBytes:    total,
		LargestFiles:  sizes,
		ExtensionHist: hist,
		FreeBytes:     free,
	}, nil
}

// walkTree visits every inode reachable from dirID (the "." and ".."
// entries of each directory are skipped), calling visit with each entry's
// full path.
func walkTree(f *core.Facade, dirID int64, dirPath string, visit func(string, *core.Inode) error) error {
	entries, err := f.Readdir(dirID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		in, err := f.Store.GetInode(e.EntryFileID)
		if err != nil {
			return err
		}
		childPath := path.Join(dirPath, e.Name)
		if err := visit(childPath, in); err != nil {
			return err
		}
		if in.IsDir() {
			if err := walkTree(f, in.ID, childPath, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
