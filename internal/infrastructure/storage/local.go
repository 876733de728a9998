// Package storage guarda documentos en el disco local y los expone bajo una URL base.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jhoicas/rebate-api/internal/application/ports"
)

var _ ports.FileStorage = (*Local)(nil)

// Local escribe bajo dir y devuelve baseURL + "/" + name.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal crea el directorio raíz si no existe.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear %s: %w", dir, err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save escribe el contenido en un archivo temporal y lo renombra al final.
func (l *Local) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	clean, dst, err := l.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: crear directorio: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: archivo temporal: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, readerWithContext{ctx: ctx, r: content}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: escribir: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: cerrar: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storage: mover: %w", err)
	}
	return l.baseURL + "/" + clean, nil
}

// Delete borra el archivo guardado con name.
func (l *Local) Delete(_ context.Context, name string) error {
	_, dst, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: borrar: %w", err)
	}
	return nil
}

// resolve limpia name y lo ancla bajo dir.
func (l *Local) resolve(name string) (clean, dst string, err error) {
	clean = path.Clean("/" + name)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", "", fmt.Errorf("storage: nombre inválido %q", name)
	}
	return clean, filepath.Join(l.dir, filepath.FromSlash(clean)), nil
}

// readerWithContext corta la copia si el contexto se cancela.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
