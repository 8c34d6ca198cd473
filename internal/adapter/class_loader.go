// Package adapter contains the infrastructure the patching engine talks to:
// class sources backed by jars or directories, class emitters and report
// storage.
package adapter

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// ErrClassNotFound is returned when a loader has no class with the requested name.
var ErrClassNotFound = errors.New("class not found")

// DefaultCacheSize is the number of raw classes a source keeps in memory.
const DefaultCacheSize = 512

// ClassLoader resolves classes by internal name (a/b/C). Every call returns a
// fresh node, so edits made to one result never show up in another.
type ClassLoader interface {
	LoadClass(ctx context.Context, name string) (*bytecode.ClassNode, error)
}

// ClassSource is a ClassLoader over a concrete container of classes.
type ClassSource interface {
	ClassLoader

	// ReadClass returns the raw bytes of a class.
	ReadClass(ctx context.Context, name string) ([]byte, error)

	// ListClasses returns every class in the container, sorted by name.
	ListClasses(ctx context.Context) ([]m.ClassEntry, error)

	// ReadResource returns a non-class entry such as version.txt.
	ReadResource(ctx context.Context, name string) ([]byte, error)

	Close() error
}

// classCache keeps raw class bytes of recently loaded classes.
type classCache struct {
	entries *lru.Cache[string, []byte]
}

func newClassCache(size int) (classCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return classCache{}, fmt.Errorf("failed to create class cache: %w", err)
	}

	return classCache{entries: entries}, nil
}

func (c classCache) read(ctx context.Context, name string, read func(context.Context, string) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if data, ok := c.entries.Get(name); ok {
		return data, nil
	}

	data, err := read(ctx, name)
	if err != nil {
		return nil, err
	}

	c.entries.Add(name, data)

	return data, nil
}

func (c classCache) load(ctx context.Context, name string, read func(context.Context, string) ([]byte, error)) (*bytecode.ClassNode, error) {
	data, err := c.read(ctx, m.InternalName(name), read)
	if err != nil {
		return nil, err
	}

	node, err := bytecode.ReadClass(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse class %s: %w", name, err)
	}

	return node, nil
}

// ChainClassLoader asks each loader in turn and returns the first class found.
type ChainClassLoader []ClassLoader

// LoadClass implements ClassLoader.
func (c ChainClassLoader) LoadClass(ctx context.Context, name string) (*bytecode.ClassNode, error) {
	for _, loader := range c {
		node, err := loader.LoadClass(ctx, name)
		if err == nil {
			return node, nil
		}

		if !errors.Is(err, ErrClassNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
}

// OpenClassSource opens path as a directory of classes or as a jar.
func OpenClassSource(path m.Path) (ClassSource, error) {
	dir, err := isDir(path)
	if err != nil {
		return nil, err
	}

	if dir {
		return NewDirClassLoader(path, DefaultCacheSize)
	}

	return OpenJar(path, DefaultCacheSize)
}
