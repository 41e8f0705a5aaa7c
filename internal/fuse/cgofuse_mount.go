//go:build cgofuse
// +build cgofuse

package fuse

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/winfsp/cgofuse/fuse"

	"github.com/jsonfs/jsonfs/internal/config"
	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/utils"
)

// CgoMountManager hosts a CgoFS through cgofuse. It covers the
// platforms go-fuse does not reach: Windows through WinFsp and macOS
// through macFUSE.
type CgoMountManager struct {
	mu         sync.Mutex
	fs         *CgoFS
	cfg        config.MountConfig
	mountpoint string
	logger     *utils.Logger

	host    *fuse.FileSystemHost
	done    chan struct{}
	mounted bool
}

// NewCgoMountManager wires core into a cgofuse host for mountpoint.
func NewCgoMountManager(core *Core, mountpoint string, cfg config.MountConfig, logger *utils.Logger) *CgoMountManager {
	return &CgoMountManager{
		fs:         NewCgoFS(core),
		cfg:        cfg,
		mountpoint: mountpoint,
		logger:     logger,
	}
}

// Mount attaches the filesystem and begins serving in the background.
// The mountpoint is not pre-validated here: on Windows it names a drive
// letter or an empty directory that WinFsp checks itself.
func (m *CgoMountManager) Mount(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mounted {
		return jfserrors.NewMountFailed(m.mountpoint, fmt.Errorf("already mounted"))
	}

	m.host = fuse.NewFileSystemHost(m.fs)
	m.done = make(chan struct{})

	options := m.buildOptions()
	m.logger.Debug("cgofuse options: %v", options)

	host := m.host
	go func() {
		defer close(m.done)
		if !host.Mount(m.mountpoint, options) {
			m.logger.Error("cgofuse mount at %s failed", m.mountpoint)
		}
	}()

	// cgofuse reports failure by returning from Mount. Give it a moment
	// so the immediate ones surface as a mount error instead of a
	// mysteriously absent filesystem.
	select {
	case <-m.done:
		return jfserrors.NewMountFailed(m.mountpoint, fmt.Errorf("cgofuse mount returned during startup"))
	case <-time.After(200 * time.Millisecond):
	}

	m.mounted = true
	m.logger.Info("jsonfs mounted at %s", m.mountpoint)
	return nil
}

// Unmount detaches the filesystem.
func (m *CgoMountManager) Unmount() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.mounted {
		return nil
	}

	if !m.host.Unmount() {
		return jfserrors.NewMountFailed(m.mountpoint, fmt.Errorf("cgofuse unmount failed"))
	}

	m.mounted = false
	m.logger.Info("jsonfs unmounted from %s", m.mountpoint)
	return nil
}

// Wait blocks until the host loop exits, normally after Unmount or an
// external unmount of the volume.
func (m *CgoMountManager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done != nil {
		<-done
	}
}

// IsMounted reports whether the filesystem is currently attached.
func (m *CgoMountManager) IsMounted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}

// MountPoint returns the configured mountpoint.
func (m *CgoMountManager) MountPoint() string {
	return m.mountpoint
}

func (m *CgoMountManager) buildOptions() []string {
	// Read-only by construction, not configurable.
	options := []string{
		"-o", "ro",
		"-o", fmt.Sprintf("fsname=%s", m.cfg.FSName),
	}

	if m.cfg.AllowOther {
		options = append(options, "-o", "allow_other")
	}
	if runtime.GOOS == "darwin" {
		options = append(options, "-o", fmt.Sprintf("volname=%s", m.cfg.FSName))
	}
	if m.cfg.Debug {
		options = append(options, "-d")
	}
	return options
}
