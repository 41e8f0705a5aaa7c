//go:build !cgofuse
// +build !cgofuse

package fuse

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/types"
)

// toErrno translates a core error into the errno the kernel expects.
func toErrno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case jfserrors.IsNotFound(err):
		return syscall.ENOENT
	case jfserrors.IsReadOnly(err):
		return syscall.EROFS
	case jfserrors.IsNoAttribute(err):
		return syscall.ENODATA
	default:
		return syscall.EIO
	}
}

// fillAttr copies core attributes into the kernel reply.
func fillAttr(attr types.FileAttr, out *fuse.Attr) {
	out.Mode = attr.Mode
	out.Size = uint64(attr.Size)
	out.Nlink = attr.Nlink
	out.Uid = attr.UID
	out.Gid = attr.GID
	atime, mtime, ctime := attr.Atime, attr.Mtime, attr.Ctime
	out.SetTimes(&atime, &mtime, &ctime)
}

// node carries the state shared by both inode kinds: the operation core
// and the canonical path this inode answers for.
type node struct {
	fs.Inode
	core *Core
	path string
}

func (n *node) childPath(name string) string {
	if n.path == "" {
		return name
	}
	return n.path + "/" + name
}

// Getattr answers kernel GETATTR through the core's attributes contract.
func (n *node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.core.GetAttr(n.path)
	if err != nil {
		return toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	return 0
}

// Setattr allows the timestamp-only no-op and rejects everything else.
func (n *node) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	const timeBits = fuse.FATTR_ATIME | fuse.FATTR_MTIME | fuse.FATTR_ATIME_NOW | fuse.FATTR_MTIME_NOW
	effective := in.Valid &^ (fuse.FATTR_FH | fuse.FATTR_LOCKOWNER)

	if effective != 0 && effective&^uint32(timeBits) == 0 {
		if err := n.core.UTimens(n.path); err != nil {
			return toErrno(err)
		}
		if attr, ok := n.core.peekAttr(n.path); ok {
			fillAttr(attr, &out.Attr)
		}
		return 0
	}

	return toErrno(n.core.Mutate("setattr", n.path))
}

func (n *node) Access(ctx context.Context, mask uint32) syscall.Errno {
	return toErrno(n.core.Access(n.path))
}

func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	s := n.core.StatFS()
	out.Blocks = s.Blocks
	out.Bfree = s.Bfree
	out.Bavail = s.Bavail
	out.Files = s.Files
	out.Ffree = s.Ffree
	out.Bsize = uint32(s.Bsize)
	out.Frsize = uint32(s.Frsize)
	out.NameLen = uint32(s.NameMax)
	return 0
}

func (n *node) Getxattr(ctx context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	return 0, toErrno(n.core.GetXAttr(n.path, attr))
}

func (n *node) Setxattr(ctx context.Context, attr string, data []byte, flags uint32) syscall.Errno {
	return toErrno(n.core.SetXAttr(n.path, attr))
}

func (n *node) Listxattr(ctx context.Context, dest []byte) (uint32, syscall.Errno) {
	if _, err := n.core.ListXAttr(n.path); err != nil {
		return 0, toErrno(err)
	}
	return 0, 0
}

func (n *node) Removexattr(ctx context.Context, attr string) syscall.Errno {
	return toErrno(n.core.Mutate("removexattr", n.path))
}

// dirNode is a directory inode.
type dirNode struct {
	node
}

var (
	_ fs.NodeLookuper      = (*dirNode)(nil)
	_ fs.NodeReaddirer     = (*dirNode)(nil)
	_ fs.NodeOpendirer     = (*dirNode)(nil)
	_ fs.NodeGetattrer     = (*dirNode)(nil)
	_ fs.NodeSetattrer     = (*dirNode)(nil)
	_ fs.NodeAccesser      = (*dirNode)(nil)
	_ fs.NodeStatfser      = (*dirNode)(nil)
	_ fs.NodeGetxattrer    = (*dirNode)(nil)
	_ fs.NodeSetxattrer    = (*dirNode)(nil)
	_ fs.NodeListxattrer   = (*dirNode)(nil)
	_ fs.NodeRemovexattrer = (*dirNode)(nil)
	_ fs.NodeMkdirer       = (*dirNode)(nil)
	_ fs.NodeCreater       = (*dirNode)(nil)
	_ fs.NodeUnlinker      = (*dirNode)(nil)
	_ fs.NodeRmdirer       = (*dirNode)(nil)
	_ fs.NodeRenamer       = (*dirNode)(nil)
	_ fs.NodeLinker        = (*dirNode)(nil)
	_ fs.NodeSymlinker     = (*dirNode)(nil)
	_ fs.NodeMknoder       = (*dirNode)(nil)
)

// Lookup resolves a child by name. The kind of inode created follows the
// kind bits the core reports.
func (n *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := n.childPath(name)

	attr, err := n.core.GetAttr(childPath)
	if err != nil {
		return nil, toErrno(err)
	}

	fillAttr(attr, &out.Attr)

	if attr.Mode&modeDir != 0 {
		child := &dirNode{node{core: n.core, path: childPath}}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFDIR}), 0
	}
	child := &fileNode{node{core: n.core, path: childPath}}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFREG}), 0
}

// Readdir streams children in declaration order. The core yields "." and
// ".." per the listing contract; go-fuse expects streams without them, so
// they are dropped here.
func (n *dirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := n.core.ReadDir(n.path)
	if err != nil {
		return nil, toErrno(err)
	}

	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		mode := uint32(fuse.S_IFREG)
		if e.IsDir {
			mode = fuse.S_IFDIR
		}
		out = append(out, fuse.DirEntry{Name: e.Name, Mode: mode})
	}

	return fs.NewListDirStream(out), 0
}

func (n *dirNode) Opendir(ctx context.Context) syscall.Errno {
	return toErrno(n.core.OpenDir(n.path))
}

// Mutations: read-only by construction, not configurable.

func (n *dirNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, toErrno(n.core.Mutate("mkdir", n.childPath(name)))
}

func (n *dirNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	return nil, nil, 0, toErrno(n.core.Mutate("create", n.childPath(name)))
}

func (n *dirNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return toErrno(n.core.Mutate("unlink", n.childPath(name)))
}

func (n *dirNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return toErrno(n.core.Mutate("rmdir", n.childPath(name)))
}

func (n *dirNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	return toErrno(n.core.Mutate("rename", n.childPath(name)))
}

func (n *dirNode) Link(ctx context.Context, target fs.InodeEmbedder, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, toErrno(n.core.Mutate("link", n.childPath(name)))
}

func (n *dirNode) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, toErrno(n.core.Mutate("symlink", n.childPath(name)))
}

func (n *dirNode) Mknod(ctx context.Context, name string, mode uint32, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, toErrno(n.core.Mutate("mknod", n.childPath(name)))
}

// fileNode is a regular-file inode.
type fileNode struct {
	node
}

var (
	_ fs.NodeOpener    = (*fileNode)(nil)
	_ fs.NodeGetattrer = (*fileNode)(nil)
	_ fs.NodeSetattrer = (*fileNode)(nil)
)

// Open hands out a stateless handle. Write intent is a mutation.
func (n *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC|syscall.O_APPEND) != 0 {
		return nil, 0, toErrno(n.core.Mutate("open", n.path))
	}

	if err := n.core.Open(n.path); err != nil {
		return nil, 0, toErrno(err)
	}

	return &fileHandle{core: n.core, path: n.path}, 0, 0
}

// fileHandle is a no-op handle: no descriptor state exists behind it.
type fileHandle struct {
	core *Core
	path string
}

var (
	_ fs.FileReader   = (*fileHandle)(nil)
	_ fs.FileReleaser = (*fileHandle)(nil)
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := h.core.Read(h.path, int64(len(dest)), off)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(data), 0
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	return toErrno(h.core.Release(h.path))
}

// rootNode builds the inode tree entry point for mounting.
func rootNode(core *Core) fs.InodeEmbedder {
	return &dirNode{node{core: core, path: ""}}
}
