package repository

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// Memory はメモリ上にのみ内容を保持するリポジトリ。試験用途向け。
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory は空のメモリリポジトリを生成する。
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Reader はkeyの内容を読み出すリーダーを返す。
func (r *Memory) Reader(ctx context.Context, key []string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.blobs[JoinKey(key)]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	return io.NopCloser(bytes.NewReader(slices.Clone(data))), nil
}

// Writer はkeyへ書き込むライターを返す。内容はCloseで確定する。
func (r *Memory) Writer(ctx context.Context, key []string) (io.WriteCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return &memoryWriter{repo: r, key: JoinKey(key)}, nil
}

// Exists はkeyの内容または下位キーが存在するかどうかを返す。
func (r *Memory) Exists(ctx context.Context, key []string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	joined := JoinKey(key)
	if _, ok := r.blobs[joined]; ok {
		return true
	}
	prefix := joined + "/"
	for stored := range r.blobs {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}

// List はkey直下の子キー名を辞書順で返す。
func (r *Memory) List(ctx context.Context, key []string) ([]string, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	joined := JoinKey(key)
	prefix := joined + "/"
	seen := make(map[string]struct{})
	for stored := range r.blobs {
		rest, ok := strings.CutPrefix(stored, prefix)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		seen[name] = struct{}{}
	}
	if len(seen) == 0 {
		if _, ok := r.blobs[joined]; ok {
			return nil, &NotADirectoryError{Path: joined}
		}
		return nil, &NotFoundError{Key: key}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// memoryWriter はCloseされるまで書き込みをバッファに溜める。
type memoryWriter struct {
	repo *Memory
	key  string
	buf  bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	w.repo.mu.Lock()
	defer w.repo.mu.Unlock()
	w.repo.blobs[w.key] = slices.Clone(w.buf.Bytes())
	return nil
}

// compile-time interface check
var _ Repository = (*Memory)(nil)
