package adapter

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

const classSuffix = ".class"

// JarClassLoader reads classes and resources from a jar file.
type JarClassLoader struct {
	path    m.Path
	archive *zip.ReadCloser
	entries map[string]*zip.File
	cache   classCache
}

// OpenJar opens the jar at path. cacheSize bounds the raw class cache.
func OpenJar(path m.Path, cacheSize int) (*JarClassLoader, error) {
	archive, err := zip.OpenReader(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open jar %s: %w", path, err)
	}

	cache, err := newClassCache(cacheSize)
	if err != nil {
		_ = archive.Close()
		return nil, err
	}

	entries := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		entries[f.Name] = f
	}

	return &JarClassLoader{path: path, archive: archive, entries: entries, cache: cache}, nil
}

// Path returns the jar's location.
func (j *JarClassLoader) Path() m.Path { return j.path }

// LoadClass implements ClassLoader.
func (j *JarClassLoader) LoadClass(ctx context.Context, name string) (*bytecode.ClassNode, error) {
	return j.cache.load(ctx, name, j.readClass)
}

// ReadClass implements ClassSource.
func (j *JarClassLoader) ReadClass(ctx context.Context, name string) ([]byte, error) {
	return j.cache.read(ctx, m.InternalName(name), j.readClass)
}

func (j *JarClassLoader) readClass(_ context.Context, name string) ([]byte, error) {
	f, ok := j.entries[name+classSuffix]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrClassNotFound, name, j.path)
	}

	return readZipFile(f)
}

// ReadResource implements ClassSource.
func (j *JarClassLoader) ReadResource(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, ok := j.entries[strings.TrimPrefix(name, "/")]
	if !ok {
		return nil, fmt.Errorf("resource %s in %s: %w", name, j.path, fs.ErrNotExist)
	}

	return readZipFile(f)
}

// ListClasses implements ClassSource.
func (j *JarClassLoader) ListClasses(ctx context.Context) ([]m.ClassEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var classes []m.ClassEntry

	for _, f := range j.archive.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, classSuffix) {
			continue
		}

		classes = append(classes, m.ClassEntry{
			Name: strings.TrimSuffix(f.Name, classSuffix),
			Size: int64(f.UncompressedSize64),
		})
	}

	sort.Slice(classes, func(a, b int) bool { return classes[a].Name < classes[b].Name })

	return classes, nil
}

// Close releases the jar.
func (j *JarClassLoader) Close() error { return j.archive.Close() }

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}

	return data, nil
}
