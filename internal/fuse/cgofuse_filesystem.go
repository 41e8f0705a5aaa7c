//go:build cgofuse
// +build cgofuse

package fuse

import (
	"os"

	"github.com/winfsp/cgofuse/fuse"

	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/types"
)

// CgoFS adapts the operation core to cgofuse's path-based interface.
// cgofuse dispatches every call with the raw path, which matches the
// core's shape exactly.
type CgoFS struct {
	fuse.FileSystemBase
	core *Core
}

// NewCgoFS wraps core for cgofuse hosting.
func NewCgoFS(core *Core) *CgoFS {
	return &CgoFS{core: core}
}

// toStatus translates a core error into a cgofuse status code.
func toStatus(err error) int {
	switch {
	case err == nil:
		return 0
	case jfserrors.IsNotFound(err):
		return -fuse.ENOENT
	case jfserrors.IsReadOnly(err):
		return -fuse.EROFS
	case jfserrors.IsNoAttribute(err):
		return -fuse.ENOATTR
	default:
		return -fuse.EIO
	}
}

// fillStat copies core attributes into a cgofuse stat buffer.
func fillStat(attr types.FileAttr, stat *fuse.Stat_t) {
	stat.Mode = attr.Mode
	stat.Nlink = attr.Nlink
	stat.Size = attr.Size
	stat.Uid = attr.UID
	stat.Gid = attr.GID
	stat.Atim = fuse.NewTimespec(attr.Atime)
	stat.Mtim = fuse.NewTimespec(attr.Mtime)
	stat.Ctim = fuse.NewTimespec(attr.Ctime)
}

func (f *CgoFS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	attr, err := f.core.GetAttr(path)
	if err != nil {
		return toStatus(err)
	}
	fillStat(attr, stat)
	return 0
}

// Readdir passes the core's entries through, dots included; cgofuse
// expects the filesystem to supply them.
func (f *CgoFS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	entries, err := f.core.ReadDir(path)
	if err != nil {
		return toStatus(err)
	}

	for _, e := range entries {
		if !fill(e.Name, nil, 0) {
			break
		}
	}
	return 0
}

func (f *CgoFS) Open(path string, flags int) (int, uint64) {
	if flags&(os.O_WRONLY|os.O_RDWR|os.O_TRUNC|os.O_APPEND) != 0 {
		return toStatus(f.core.Mutate("open", path)), ^uint64(0)
	}
	if err := f.core.Open(path); err != nil {
		return toStatus(err), ^uint64(0)
	}
	return 0, 0
}

func (f *CgoFS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	data, err := f.core.Read(path, int64(len(buff)), ofst)
	if err != nil {
		return toStatus(err)
	}
	return copy(buff, data)
}

func (f *CgoFS) Release(path string, fh uint64) int {
	return toStatus(f.core.Release(path))
}

func (f *CgoFS) Opendir(path string) (int, uint64) {
	if err := f.core.OpenDir(path); err != nil {
		return toStatus(err), ^uint64(0)
	}
	return 0, 0
}

func (f *CgoFS) Releasedir(path string, fh uint64) int {
	return toStatus(f.core.ReleaseDir(path))
}

func (f *CgoFS) Access(path string, mask uint32) int {
	return toStatus(f.core.Access(path))
}

func (f *CgoFS) Statfs(path string, stat *fuse.Statfs_t) int {
	s := f.core.StatFS()
	stat.Bsize = s.Bsize
	stat.Frsize = s.Frsize
	stat.Blocks = s.Blocks
	stat.Bfree = s.Bfree
	stat.Bavail = s.Bavail
	stat.Files = s.Files
	stat.Ffree = s.Ffree
	stat.Favail = s.Favail
	stat.Flag = s.Flag
	stat.Namemax = s.NameMax
	return 0
}

func (f *CgoFS) Readlink(path string) (int, string) {
	target, err := f.core.ReadLink(path)
	return toStatus(err), target
}

func (f *CgoFS) Utimens(path string, tmsp []fuse.Timespec) int {
	return toStatus(f.core.UTimens(path))
}

// Extended attributes: none exist and none can be written.

func (f *CgoFS) Getxattr(path string, name string) (int, []byte) {
	return toStatus(f.core.GetXAttr(path, name)), nil
}

func (f *CgoFS) Listxattr(path string, fill func(name string) bool) int {
	_, err := f.core.ListXAttr(path)
	return toStatus(err)
}

func (f *CgoFS) Setxattr(path string, name string, value []byte, flags int) int {
	return toStatus(f.core.SetXAttr(path, name))
}

func (f *CgoFS) Removexattr(path string, name string) int {
	return toStatus(f.core.Mutate("removexattr", path))
}

// Mutations: read-only by construction, not configurable.

func (f *CgoFS) Mknod(path string, mode uint32, dev uint64) int {
	return toStatus(f.core.Mutate("mknod", path))
}

func (f *CgoFS) Mkdir(path string, mode uint32) int {
	return toStatus(f.core.Mutate("mkdir", path))
}

func (f *CgoFS) Unlink(path string) int {
	return toStatus(f.core.Mutate("unlink", path))
}

func (f *CgoFS) Rmdir(path string) int {
	return toStatus(f.core.Mutate("rmdir", path))
}

func (f *CgoFS) Link(oldpath string, newpath string) int {
	return toStatus(f.core.Mutate("link", newpath))
}

func (f *CgoFS) Symlink(target string, newpath string) int {
	return toStatus(f.core.Mutate("symlink", newpath))
}

func (f *CgoFS) Rename(oldpath string, newpath string) int {
	return toStatus(f.core.Mutate("rename", oldpath))
}

func (f *CgoFS) Chmod(path string, mode uint32) int {
	return toStatus(f.core.Mutate("chmod", path))
}

func (f *CgoFS) Chown(path string, uid uint32, gid uint32) int {
	return toStatus(f.core.Mutate("chown", path))
}

func (f *CgoFS) Truncate(path string, size int64, fh uint64) int {
	return toStatus(f.core.Mutate("truncate", path))
}

func (f *CgoFS) Create(path string, flags int, mode uint32) (int, uint64) {
	return toStatus(f.core.Mutate("create", path)), ^uint64(0)
}

func (f *CgoFS) Write(path string, buff []byte, ofst int64, fh uint64) int {
	return toStatus(f.core.Mutate("write", path))
}
