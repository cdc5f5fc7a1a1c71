// Package fuseadapter wraps a core.Facade in a github.com/hanwen/go-fuse/v2
// filesystem, translating kernel callbacks into façade calls and
// core.Error.Kind values into the POSIX errno table from §7. It carries no
// filesystem logic of its own — every decision (dedup, codec, refcounting,
// path resolution) lives in core and its collaborators; this package only
// does inode-number bookkeeping and uid/gid/errno plumbing.
package fuseadapter

import (
	"fmt"
	"os"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"innerfs/internal/core"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory the filesystem is mounted at. Created if
	// it does not already exist.
	Mountpoint string

	// Facade is the wired façade (store, pipeline, resolver, handle table)
	// every operation delegates to.
	Facade *core.Facade

	// AllowOther permits other users (including root) to access the mount.
	// Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug enables go-fuse's own request trace logging.
	Debug bool
}

// Mount mounts the InnerFS façade at options.Mountpoint. The caller must
// call Unmount on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Facade == nil {
		return nil, fmt.Errorf("facade is required")
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &inodeNode{facade: options.Facade, id: core.RootInodeID}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "innerfs",
			Name:       "innerfs",
			AllowOther: options.AllowOther,
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Facade.Logger.Info("filesystem mounted", "mountpoint", options.Mountpoint)
	return server, nil
}
