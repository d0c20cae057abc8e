package fixture

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"conform/internal/errors"
)

// Fixture is one isolated working copy of a named template tree.
// The template is read-only; the instance belongs to a single scenario.
type Fixture struct {
	Name         string
	TemplatePath string
	InstancePath string

	releaseOnce sync.Once
	releaseErr  error
}

// Release deletes the instance directory. It is idempotent: calling it
// twice (or on an already-removed instance) is a no-op, never an error.
func (f *Fixture) Release() error {
	if f == nil || f.InstancePath == "" {
		return nil
	}
	f.releaseOnce.Do(func() {
		f.releaseErr = os.RemoveAll(f.InstancePath)
	})
	return f.releaseErr
}

// Manager materializes fixture instances under WorkRoot from templates
// under TemplateRoot. Instance names embed a UUID so concurrent
// acquisitions never collide without any locking.
type Manager struct {
	TemplateRoot string
	WorkRoot     string
}

func NewManager(templateRoot, workRoot string) *Manager {
	if workRoot == "" {
		workRoot = os.TempDir()
	}
	return &Manager{TemplateRoot: templateRoot, WorkRoot: workRoot}
}

// Acquire copies the named template tree into a fresh instance
// directory and returns the fixture. The caller owns Release.
func (m *Manager) Acquire(name string) (*Fixture, error) {
	const op = "fixture.acquire"

	template := filepath.Join(m.TemplateRoot, name)
	info, err := os.Stat(template)
	if err != nil || !info.IsDir() {
		return nil, errors.E(op, errors.KindFixtureNotFound,
			fmt.Errorf("no fixture template %q under %s", name, m.TemplateRoot))
	}

	instance, err := m.newInstanceDir(name)
	if err != nil {
		return nil, errors.E(op, errors.KindOther, err)
	}
	if err := copyTree(template, instance); err != nil {
		os.RemoveAll(instance)
		return nil, errors.E(op, errors.KindOther,
			fmt.Errorf("copying fixture %q: %w", name, err))
	}

	return &Fixture{Name: name, TemplatePath: template, InstancePath: instance}, nil
}

// Scratch returns an empty instance directory with no template behind
// it, for scenarios that must run outside any valid project.
func (m *Manager) Scratch() (*Fixture, error) {
	instance, err := m.newInstanceDir("scratch")
	if err != nil {
		return nil, errors.E("fixture.scratch", errors.KindOther, err)
	}
	return &Fixture{Name: "scratch", InstancePath: instance}, nil
}

func (m *Manager) newInstanceDir(name string) (string, error) {
	dir := filepath.Join(m.WorkRoot, fmt.Sprintf("conform-%s-%s", name, uuid.New().String()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// copyTree recursively copies src into dst, preserving relative
// structure and file modes (scripts in fixtures stay executable).
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	dest, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dest.Close()

	if _, err := io.Copy(dest, source); err != nil {
		return err
	}
	return os.Chmod(dst, mode)
}
