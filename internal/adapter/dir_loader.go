package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// DirClassLoader reads classes from an exploded class directory, such as the
// output of a previous patch run.
type DirClassLoader struct {
	root  m.Path
	cache classCache
}

// NewDirClassLoader serves classes below root.
func NewDirClassLoader(root m.Path, cacheSize int) (*DirClassLoader, error) {
	cache, err := newClassCache(cacheSize)
	if err != nil {
		return nil, err
	}

	return &DirClassLoader{root: root, cache: cache}, nil
}

// LoadClass implements ClassLoader.
func (d *DirClassLoader) LoadClass(ctx context.Context, name string) (*bytecode.ClassNode, error) {
	return d.cache.load(ctx, name, d.readClass)
}

// ReadClass implements ClassSource.
func (d *DirClassLoader) ReadClass(ctx context.Context, name string) ([]byte, error) {
	return d.cache.read(ctx, m.InternalName(name), d.readClass)
}

func (d *DirClassLoader) readClass(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(d.file(name + classSuffix))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s in %s", ErrClassNotFound, name, d.root)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read class %s: %w", name, err)
	}

	return data, nil
}

// ReadResource implements ClassSource.
func (d *DirClassLoader) ReadResource(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(d.file(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", name, err)
	}

	return data, nil
}

// ListClasses implements ClassSource.
func (d *DirClassLoader) ListClasses(ctx context.Context) ([]m.ClassEntry, error) {
	var classes []m.ClassEntry

	root := string(d.root)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir() || !strings.HasSuffix(path, classSuffix) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		classes = append(classes, m.ClassEntry{
			Name: strings.TrimSuffix(filepath.ToSlash(rel), classSuffix),
			Size: info.Size(),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list classes in %s: %w", d.root, err)
	}

	sort.Slice(classes, func(a, b int) bool { return classes[a].Name < classes[b].Name })

	return classes, nil
}

// Close implements ClassSource.
func (d *DirClassLoader) Close() error { return nil }

func (d *DirClassLoader) file(name string) string {
	return filepath.Join(string(d.root), filepath.FromSlash(strings.TrimPrefix(name, "/")))
}

func isDir(path m.Path) (bool, error) {
	info, err := os.Stat(string(path))
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info.IsDir(), nil
}
