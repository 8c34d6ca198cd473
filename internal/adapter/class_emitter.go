package adapter

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	m "starhook.dev/pkg/starhook/internal/model"
)

// ClassEmitter receives the serialized form of every class a pass changed.
type ClassEmitter interface {
	// Emit stores the class named by its internal name.
	Emit(ctx context.Context, name string, data []byte) error

	// Close flushes everything emitted so far.
	Close() error
}

// DirClassEmitter writes classes as <root>/<name>.class. Nothing is written
// until Close.
type DirClassEmitter struct {
	MemoryClassEmitter

	root m.Path
}

// NewDirClassEmitter writes below root, creating directories as needed.
func NewDirClassEmitter(root m.Path) *DirClassEmitter {
	return &DirClassEmitter{
		MemoryClassEmitter: MemoryClassEmitter{classes: make(map[string][]byte)},
		root:               root,
	}
}

type stagedClass struct {
	tmp  string
	path string
}

// Close stages every class in a temporary file next to its destination and
// renames them into place only once all of them were written.
func (d *DirClassEmitter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	staged := make([]stagedClass, 0, len(d.order))

	defer func() {
		for _, s := range staged {
			_ = os.Remove(s.tmp)
		}
	}()

	for _, name := range d.order {
		s, err := d.stage(name, d.classes[name])
		if err != nil {
			return err
		}

		staged = append(staged, s)
	}

	for _, s := range staged {
		if err := os.Rename(s.tmp, s.path); err != nil {
			return fmt.Errorf("failed to move class to %s: %w", s.path, err)
		}
	}

	return nil
}

func (d *DirClassEmitter) stage(name string, data []byte) (stagedClass, error) {
	path := filepath.Join(string(d.root), filepath.FromSlash(name)+classSuffix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return stagedClass{}, fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".starhook-*.class")
	if err != nil {
		return stagedClass{}, fmt.Errorf("failed to stage class %s: %w", name, err)
	}

	s := stagedClass{tmp: tmp.Name(), path: path}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(s.tmp)

		return stagedClass{}, fmt.Errorf("failed to write class %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(s.tmp)
		return stagedClass{}, fmt.Errorf("failed to write class %s: %w", name, err)
	}

	if err := os.Chmod(s.tmp, 0o644); err != nil {
		_ = os.Remove(s.tmp)
		return stagedClass{}, fmt.Errorf("failed to write class %s: %w", name, err)
	}

	return s, nil
}

// MemoryClassEmitter keeps emitted classes in memory. It backs dry runs.
type MemoryClassEmitter struct {
	mu      sync.Mutex
	classes map[string][]byte
	order   []string
}

// NewMemoryClassEmitter creates an empty in-memory emitter.
func NewMemoryClassEmitter() *MemoryClassEmitter {
	return &MemoryClassEmitter{classes: make(map[string][]byte)}
}

// Emit implements ClassEmitter.
func (e *MemoryClassEmitter) Emit(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.classes[name]; !ok {
		e.order = append(e.order, name)
	}

	e.classes[name] = data

	return nil
}

// Class returns the emitted bytes of name.
func (e *MemoryClassEmitter) Class(name string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, ok := e.classes[name]

	return data, ok
}

// Names returns the emitted class names in emission order.
func (e *MemoryClassEmitter) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.order...)
}

// Close implements ClassEmitter.
func (e *MemoryClassEmitter) Close() error { return nil }

// JarClassEmitter writes a copy of a source jar with the emitted classes
// replacing or joining its entries. Nothing is written until Close.
type JarClassEmitter struct {
	MemoryClassEmitter

	source m.Path
	target m.Path
}

// NewJarClassEmitter copies source to target on Close.
func NewJarClassEmitter(source, target m.Path) *JarClassEmitter {
	return &JarClassEmitter{
		MemoryClassEmitter: MemoryClassEmitter{classes: make(map[string][]byte)},
		source:             source,
		target:             target,
	}
}

// Close writes the target jar through a temporary file in the same directory.
func (j *JarClassEmitter) Close() error {
	src, err := zip.OpenReader(string(j.source))
	if err != nil {
		return fmt.Errorf("failed to open jar %s: %w", j.source, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(filepath.Dir(string(j.target)), ".starhook-*.jar")
	if err != nil {
		return fmt.Errorf("failed to create output jar: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := j.writeJar(tmp, src); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output jar: %w", err)
	}

	if err := os.Rename(tmpName, string(j.target)); err != nil {
		return fmt.Errorf("failed to move output jar to %s: %w", j.target, err)
	}

	return nil
}

func (j *JarClassEmitter) writeJar(out *os.File, src *zip.ReadCloser) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	w := zip.NewWriter(out)
	written := make(map[string]bool, len(j.classes))

	for _, f := range src.File {
		name := strings.TrimSuffix(f.Name, classSuffix)
		if data, ok := j.classes[name]; ok && strings.HasSuffix(f.Name, classSuffix) {
			if err := writeEntry(w, f.Name, data); err != nil {
				return err
			}

			written[name] = true

			continue
		}

		// rewritten classes invalidate any jar signature
		if len(j.classes) > 0 && isSignatureFile(f.Name) {
			continue
		}

		if err := w.Copy(f); err != nil {
			return fmt.Errorf("failed to copy %s: %w", f.Name, err)
		}
	}

	for _, name := range j.order {
		if written[name] {
			continue
		}

		if err := writeEntry(w, name+classSuffix, j.classes[name]); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish output jar: %w", err)
	}

	return nil
}

func writeEntry(w *zip.Writer, name string, data []byte) error {
	fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}

func isSignatureFile(name string) bool {
	if !strings.HasPrefix(name, "META-INF/") {
		return false
	}

	switch strings.ToUpper(filepath.Ext(name)) {
	case ".SF", ".RSA", ".DSA", ".EC":
		return true
	}

	return false
}
