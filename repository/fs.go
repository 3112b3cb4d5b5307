package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem はローカルファイルシステムを保管先とするリポジトリ。
// キーの区画をルート配下のパスにそのまま対応させる。
type FileSystem struct {
	root string
}

// NewFileSystem はrootを基点とするファイルシステムリポジトリを生成する。
// mkdirがtrueならrootが存在しないときに作成する。
func NewFileSystem(root string, mkdir bool) (*FileSystem, error) {
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !mkdir {
			return nil, fmt.Errorf("リポジトリのルート %s がありません: %w", root, err)
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("リポジトリのルートを作成できません: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("リポジトリのルートを確認できません: %w", err)
	case !info.IsDir():
		return nil, &NotADirectoryError{Path: root}
	}
	return &FileSystem{root: root}, nil
}

// path はキーに対応するルート配下のパスを返す。
// ValidateKeyを通ったキーは区切り文字を含まないため安全に連結できる。
func (r *FileSystem) path(key []string) string {
	return filepath.Join(append([]string{r.root}, key...)...)
}

// Reader はkeyの内容を読み出すリーダーを返す。
func (r *FileSystem) Reader(ctx context.Context, key []string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(r.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, &InvalidKeyError{Key: key, Cause: err}
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, &InvalidKeyError{Key: key}
	}
	return f, nil
}

// Writer はkeyへ書き込むライターを返す。親ディレクトリは必要に応じて作成する。
func (r *FileSystem) Writer(ctx context.Context, key []string) (io.WriteCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	path := r.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &InvalidKeyError{Key: key, Cause: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &InvalidKeyError{Key: key, Cause: err}
	}
	return f, nil
}

// Exists はkeyの内容または下位キーが存在するかどうかを返す。
func (r *FileSystem) Exists(ctx context.Context, key []string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	_, err := os.Stat(r.path(key))
	return err == nil
}

// List はkey直下の子キー名を辞書順で返す。
func (r *FileSystem) List(ctx context.Context, key []string) ([]string, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	path := r.path(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, &InvalidKeyError{Key: key, Cause: err}
	}
	if !info.IsDir() {
		return nil, &NotADirectoryError{Path: path}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &InvalidKeyError{Key: key, Cause: err}
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// compile-time interface check
var _ Repository = (*FileSystem)(nil)
