package stage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/hitoshi/feedvault/repository"
)

// DirtyBuffer は書き込みをメモリに溜めるリポジトリ。
// 読み出しは未確定の内容を優先し、なければinnerへ委譲する。
// Flushで溜めた内容をinnerへ書き出す。
type DirtyBuffer struct {
	inner   repository.Repository
	limiter *rate.Limiter

	mu    sync.Mutex
	dirty map[string][]byte
}

// NewDirtyBuffer はinnerを包む書き込みバッファを生成する。
// limiterがnilでなければFlush時の書き込みをそのレートに抑える。
func NewDirtyBuffer(inner repository.Repository, limiter *rate.Limiter) *DirtyBuffer {
	return &DirtyBuffer{
		inner:   inner,
		limiter: limiter,
		dirty:   make(map[string][]byte),
	}
}

// Reader はkeyの内容を読み出すリーダーを返す。未確定の内容を優先する。
func (b *DirtyBuffer) Reader(ctx context.Context, key []string) (io.ReadCloser, error) {
	if err := repository.ValidateKey(key); err != nil {
		return nil, err
	}
	b.mu.Lock()
	joined := repository.JoinKey(key)
	if data, ok := b.dirty[joined]; ok {
		b.mu.Unlock()
		return io.NopCloser(bytes.NewReader(slices.Clone(data))), nil
	}
	if b.hasChildren(joined) {
		b.mu.Unlock()
		return nil, &repository.InvalidKeyError{Key: key}
	}
	b.mu.Unlock()
	return b.inner.Reader(ctx, key)
}

// Writer はkeyへ書き込むライターを返す。内容はCloseでバッファに確定し、
// Flushされるまでinnerには書き込まれない。
func (b *DirtyBuffer) Writer(ctx context.Context, key []string) (io.WriteCloser, error) {
	if err := repository.ValidateKey(key); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	joined := repository.JoinKey(key)
	if b.hasChildren(joined) {
		return nil, &repository.InvalidKeyError{Key: key}
	}
	// 途中の区画が既に末端として確定していれば書き込めない
	for i := 1; i < len(key); i++ {
		if _, ok := b.dirty[repository.JoinKey(key[:i])]; ok {
			return nil, &repository.InvalidKeyError{Key: key}
		}
	}
	return &dirtyWriter{buffer: b, key: joined}, nil
}

// Exists はkeyの内容または下位キーが存在するかどうかを返す。
func (b *DirtyBuffer) Exists(ctx context.Context, key []string) bool {
	if repository.ValidateKey(key) != nil {
		return false
	}
	b.mu.Lock()
	joined := repository.JoinKey(key)
	if _, ok := b.dirty[joined]; ok {
		b.mu.Unlock()
		return true
	}
	if b.hasChildren(joined) {
		b.mu.Unlock()
		return true
	}
	b.mu.Unlock()
	return b.inner.Exists(ctx, key)
}

// List はkey直下の子キー名を辞書順で返す。
// バッファ上の未確定キーとinnerのキーを重複なく合わせる。
func (b *DirtyBuffer) List(ctx context.Context, key []string) ([]string, error) {
	if err := repository.ValidateKey(key); err != nil {
		return nil, err
	}
	b.mu.Lock()
	joined := repository.JoinKey(key)
	if _, ok := b.dirty[joined]; ok {
		b.mu.Unlock()
		return nil, &repository.NotADirectoryError{Path: joined}
	}
	seen := make(map[string]struct{})
	prefix := joined + "/"
	for stored := range b.dirty {
		rest, ok := strings.CutPrefix(stored, prefix)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		seen[name] = struct{}{}
	}
	b.mu.Unlock()

	names, err := b.inner.List(ctx, key)
	if err != nil {
		if len(seen) == 0 {
			return nil, err
		}
		var notFound *repository.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	for _, name := range names {
		seen[name] = struct{}{}
	}
	merged := make([]string, 0, len(seen))
	for name := range seen {
		merged = append(merged, name)
	}
	slices.Sort(merged)
	return merged, nil
}

// Flush は溜めた内容をキーの辞書順でinnerへ書き出し、書き出した件数を返す。
// 途中で失敗した場合、未書き出しの内容はバッファに残る。
func (b *DirtyBuffer) Flush(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.dirty))
	for joined := range b.dirty {
		keys = append(keys, joined)
	}
	slices.Sort(keys)

	written := 0
	for _, joined := range keys {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return written, err
			}
		}
		key := strings.Split(joined, "/")
		w, err := b.inner.Writer(ctx, key)
		if err != nil {
			return written, err
		}
		if _, err := w.Write(b.dirty[joined]); err != nil {
			w.Close()
			return written, err
		}
		if err := w.Close(); err != nil {
			return written, err
		}
		delete(b.dirty, joined)
		written++
	}
	return written, nil
}

// Pending は未書き出しの文書数を返す。
func (b *DirtyBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dirty)
}

// hasChildren はjoinedの下位に未確定のキーがあるかどうかを返す。
// 呼び出し側がmuを保持していること。
func (b *DirtyBuffer) hasChildren(joined string) bool {
	prefix := joined + "/"
	for stored := range b.dirty {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}

// dirtyWriter はCloseされるまで書き込みを溜め、Closeでバッファに確定する。
type dirtyWriter struct {
	buffer *DirtyBuffer
	key    string
	buf    bytes.Buffer
}

func (w *dirtyWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *dirtyWriter) Close() error {
	w.buffer.mu.Lock()
	defer w.buffer.mu.Unlock()
	w.buffer.dirty[w.key] = slices.Clone(w.buf.Bytes())
	return nil
}

// compile-time interface check
var _ repository.Repository = (*DirtyBuffer)(nil)
