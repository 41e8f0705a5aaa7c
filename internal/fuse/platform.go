//go:build !cgofuse
// +build !cgofuse

package fuse

import (
	"context"

	"github.com/jsonfs/jsonfs/internal/config"
	"github.com/jsonfs/jsonfs/pkg/utils"
)

// PlatformMountManager is the surface main drives regardless of which
// FUSE binding the build carries.
type PlatformMountManager interface {
	Mount(ctx context.Context) error
	Unmount() error
	Wait()
	IsMounted() bool
	MountPoint() string
}

// CreatePlatformMountManager returns the mount manager for this build:
// the go-fuse one on default builds.
func CreatePlatformMountManager(core *Core, mountpoint string, cfg config.MountConfig, logger *utils.Logger) PlatformMountManager {
	return NewMountManager(core, mountpoint, cfg, logger)
}
