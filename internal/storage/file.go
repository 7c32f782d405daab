package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
)

// FileKV файловое хранилище: одно значение — один JSON-файл в каталоге
// данных. Переживает перезапуск процесса; аналог локального хранилища
// браузера в исходной системе.
type FileKV struct {
	dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileKV{dir: dir}, nil
}

var _ KV = (*FileKV)(nil)

// path имя файла для ключа; ключ экранируется, т.к. содержит
// произвольное имя пользователя
func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNoKey
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (f *FileKV) Set(_ context.Context, key string, value []byte) error {
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(key))
}
