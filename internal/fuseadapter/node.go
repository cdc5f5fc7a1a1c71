package fuseadapter

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"innerfs/internal/core"
)

// inodeNode is the one node type every path in the mount uses, file or
// directory. Its identity is the façade's own inode id, set as the kernel's
// Ino so the two numbering spaces coincide as §6 requires.
type inodeNode struct {
	gofuse.Inode
	facade *core.Facade
	id     int64
}

var (
	_ gofuse.InodeEmbedder = (*inodeNode)(nil)
	_ gofuse.NodeLookuper  = (*inodeNode)(nil)
	_ gofuse.NodeGetattrer = (*inodeNode)(nil)
	_ gofuse.NodeSetattrer = (*inodeNode)(nil)
	_ gofuse.NodeMkdirer   = (*inodeNode)(nil)
	_ gofuse.NodeCreater   = (*inodeNode)(nil)
	_ gofuse.NodeOpener    = (*inodeNode)(nil)
	_ gofuse.NodeUnlinker  = (*inodeNode)(nil)
	_ gofuse.NodeRmdirer   = (*inodeNode)(nil)
	_ gofuse.NodeRenamer   = (*inodeNode)(nil)
	_ gofuse.NodeReaddirer = (*inodeNode)(nil)
	_ gofuse.NodeStatfser  = (*inodeNode)(nil)
	_ gofuse.NodeAccesser  = (*inodeNode)(nil)
)

// callerIDs extracts the requesting process's uid/gid from ctx. go-fuse
// passes a *fuse.Context (which implements context.Context via embedding)
// to every node callback; outside of a real mount (unit tests) the
// assertion fails and the mount's own root ownership (0,0) is used.
func callerIDs(ctx context.Context) (uid, gid uint32) {
	if fc, ok := ctx.(*fuse.Context); ok {
		return fc.Caller.Uid, fc.Caller.Gid
	}
	return 0, 0
}

func modeFor(kind core.InodeKind, perms uint32) uint32 {
	if kind == core.KindDirectory {
		return syscall.S_IFDIR | perms
	}
	return syscall.S_IFREG | perms
}

func fillAttr(out *fuse.Attr, id int64, attr *core.Attr) {
	out.Ino = uint64(id)
	out.Mode = modeFor(attr.Kind, attr.Perms)
	out.Size = uint64(attr.Size)
	out.Blocks = uint64(attr.Blocks)
	out.Nlink = attr.NLink
	out.Owner = fuse.Owner{Uid: attr.UID, Gid: attr.GID}
	out.Blksize = 4096
	out.Atime = uint64(attr.AccessedAt.Unix())
	out.Mtime = uint64(attr.UpdatedAt)
	out.Ctime = uint64(attr.UpdatedAt)
}

func (n *inodeNode) childNode(in *core.Inode) *inodeNode {
	return &inodeNode{facade: n.facade, id: in.ID}
}

func (n *inodeNode) attachChild(ctx context.Context, in *core.Inode) *gofuse.Inode {
	attr := gofuse.StableAttr{
		Mode: modeFor(in.Kind, in.Perms),
		Ino:  uint64(in.ID),
	}
	return n.NewInode(ctx, n.childNode(in), attr)
}

func (n *inodeNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	in, err := n.facade.Lookup(n.id, name)
	if err != nil {
		return nil, errno(err)
	}
	attr, err := n.facade.GetAttr(in.ID)
	if err != nil {
		return nil, errno(err)
	}
	fillAttr(&out.Attr, in.ID, attr)
	return n.attachChild(ctx, in), 0
}

func (n *inodeNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.facade.GetAttr(n.id)
	if err != nil {
		return errno(err)
	}
	fillAttr(&out.Attr, n.id, attr)
	return 0
}

func (n *inodeNode) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	var changes core.SetAttrChanges
	if size, ok := in.GetSize(); ok {
		s := int64(size)
		changes.Size = &s
	}
	if mode, ok := in.GetMode(); ok {
		m := mode & 0o7777
		changes.Perms = &m
	}
	if uid, ok := in.GetUID(); ok {
		changes.UID = &uid
	}
	if gid, ok := in.GetGID(); ok {
		changes.GID = &gid
	}

	attr, err := n.facade.SetAttr(n.id, changes)
	if err != nil {
		return errno(err)
	}
	fillAttr(&out.Attr, n.id, attr)
	return 0
}

func (n *inodeNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	uid, gid := callerIDs(ctx)
	in, err := n.facade.Mkdir(n.id, name, uid, gid, mode&0o7777)
	if err != nil {
		return nil, errno(err)
	}
	attr, err := n.facade.GetAttr(in.ID)
	if err != nil {
		return nil, errno(err)
	}
	fillAttr(&out.Attr, in.ID, attr)
	return n.attachChild(ctx, in), 0
}

func (n *inodeNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	uid, gid := callerIDs(ctx)
	in, handleID, err := n.facade.Create(n.id, name, uid, gid, mode&0o7777)
	if err != nil {
		return nil, nil, 0, errno(err)
	}
	attr, err := n.facade.GetAttr(in.ID)
	if err != nil {
		return nil, nil, 0, errno(err)
	}
	fillAttr(&out.Attr, in.ID, attr)
	child := n.attachChild(ctx, in)
	return child, &fileHandle{facade: n.facade, id: handleID}, 0, 0
}

func (n *inodeNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	handleID, err := n.facade.Open(n.id, int(flags))
	if err != nil {
		return nil, 0, errno(err)
	}
	return &fileHandle{facade: n.facade, id: handleID}, 0, 0
}

func (n *inodeNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return errno(n.facade.Unlink(n.id, name))
}

func (n *inodeNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return errno(n.facade.Rmdir(n.id, name))
}

func (n *inodeNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	target, ok := newParent.(*inodeNode)
	if !ok {
		return syscall.EINVAL
	}
	return errno(n.facade.Rename(n.id, name, target.id, newName))
}

func (n *inodeNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := n.facade.Readdir(n.id)
	if err != nil {
		return nil, errno(err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fuse.DirEntry{
			Name: e.Name,
			Ino:  uint64(e.EntryFileID),
			Mode: modeFor(e.Kind, 0),
		})
	}
	return gofuse.NewListDirStream(out), 0
}

func (n *inodeNode) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	res, err := n.facade.Statfs()
	if err != nil {
		return errno(err)
	}
	const blockSize = 4096
	out.Bsize = blockSize
	out.Blocks = uint64(res.TotalBytes+res.FreeBytes) / blockSize
	out.Bfree = uint64(res.FreeBytes) / blockSize
	out.Bavail = out.Bfree
	out.Files = uint64(res.Files)
	out.NameLen = 255
	return 0
}

func (n *inodeNode) Access(ctx context.Context, mask uint32) syscall.Errno {
	uid, gid := callerIDs(ctx)
	return errno(n.facade.Access(n.id, uid, gid, mask&0o7))
}
