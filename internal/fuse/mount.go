//go:build !cgofuse
// +build !cgofuse

package fuse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/jsonfs/jsonfs/internal/config"
	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/utils"
)

// MountManager owns the go-fuse server lifecycle.
type MountManager struct {
	mu         sync.Mutex
	core       *Core
	cfg        config.MountConfig
	mountpoint string
	logger     *utils.Logger
	server     *fuse.Server
	mounted    bool
}

// NewMountManager creates a manager that will mount core at mountpoint.
func NewMountManager(core *Core, mountpoint string, cfg config.MountConfig, logger *utils.Logger) *MountManager {
	return &MountManager{
		core:       core,
		cfg:        cfg,
		mountpoint: mountpoint,
		logger:     logger,
	}
}

// Mount mounts the filesystem and starts serving in the background.
func (m *MountManager) Mount(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mounted {
		return jfserrors.NewMountFailed(m.mountpoint, fmt.Errorf("filesystem is already mounted"))
	}

	if err := m.validateMountPoint(); err != nil {
		return jfserrors.NewMountFailed(m.mountpoint, err)
	}

	server, err := fs.Mount(m.mountpoint, rootNode(m.core), m.buildFUSEOptions())
	if err != nil {
		return jfserrors.NewMountFailed(m.mountpoint, err)
	}

	m.server = server
	m.mounted = true
	m.logger.Info("jsonfs mounted at %s", m.mountpoint)

	return nil
}

// Unmount detaches the filesystem, falling back to a forced unmount when
// the kernel refuses a clean one.
func (m *MountManager) Unmount() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.mounted || m.server == nil {
		return jfserrors.NewMountFailed(m.mountpoint, fmt.Errorf("filesystem is not mounted"))
	}

	m.logger.Info("Unmounting filesystem at %s", m.mountpoint)

	if err := m.server.Unmount(); err != nil {
		m.logger.Warn("Normal unmount failed, trying force unmount: %v", err)
		if forceErr := m.forceUnmount(); forceErr != nil {
			return jfserrors.NewMountFailed(m.mountpoint,
				fmt.Errorf("unmount failed: %w (force unmount also failed: %v)", err, forceErr))
		}
	}

	m.mounted = false
	m.server = nil

	m.logger.Info("Filesystem unmounted")
	return nil
}

// Wait blocks until the kernel connection shuts down.
func (m *MountManager) Wait() {
	m.mu.Lock()
	server := m.server
	m.mu.Unlock()

	if server != nil {
		server.Wait()
	}
}

// IsMounted reports whether the filesystem is currently mounted.
func (m *MountManager) IsMounted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}

// MountPoint returns the configured mount point.
func (m *MountManager) MountPoint() string {
	return m.mountpoint
}

func (m *MountManager) validateMountPoint() error {
	if m.mountpoint == "" {
		return fmt.Errorf("mount point cannot be empty")
	}

	info, err := os.Stat(m.mountpoint)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("mount point does not exist: %s", m.mountpoint)
		}
		return fmt.Errorf("cannot access mount point: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("mount point is not a directory: %s", m.mountpoint)
	}

	if entries, err := os.ReadDir(m.mountpoint); err == nil && len(entries) > 0 {
		m.logger.Warn("Mount point %s is not empty", m.mountpoint)
	}

	if m.isAlreadyMounted() {
		return fmt.Errorf("mount point %s is already mounted", m.mountpoint)
	}

	return nil
}

func (m *MountManager) buildFUSEOptions() *fs.Options {
	attrTimeout := m.cfg.AttrTimeout
	entryTimeout := m.cfg.EntryTimeout

	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Name:       m.cfg.FSName,
			FsName:     m.cfg.FSName,
			Debug:      m.cfg.Debug,
			AllowOther: m.cfg.AllowOther,
		},
		AttrTimeout:  &attrTimeout,
		EntryTimeout: &entryTimeout,
	}

	// Read-only by construction, not configurable. Name and FsName
	// already cover the subtype= and fsname= options.
	opts.Options = append(opts.Options, "ro")

	return opts
}

func (m *MountManager) isAlreadyMounted() bool {
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		// No procfs on this platform; assume not mounted.
		return false
	}

	target := " " + filepath.Clean(m.mountpoint) + " "
	return strings.Contains(string(data), target)
}

func (m *MountManager) forceUnmount() error {
	// Lazy detach first, forced second.
	if err := syscall.Unmount(m.mountpoint, 2); err == nil {
		return nil
	}
	return syscall.Unmount(m.mountpoint, 1)
}
