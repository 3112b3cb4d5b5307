package stage

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/feedvault/repository"
)

// --- モック定義 ---

// mockRepository はRepositoryのテスト用モック。
type mockRepository struct {
	readerFunc func(ctx context.Context, key []string) (io.ReadCloser, error)
	writerFunc func(ctx context.Context, key []string) (io.WriteCloser, error)
	existsFunc func(ctx context.Context, key []string) bool
	listFunc   func(ctx context.Context, key []string) ([]string, error)
}

func (m *mockRepository) Reader(ctx context.Context, key []string) (io.ReadCloser, error) {
	if m.readerFunc != nil {
		return m.readerFunc(ctx, key)
	}
	return nil, &repository.NotFoundError{Key: key}
}

func (m *mockRepository) Writer(ctx context.Context, key []string) (io.WriteCloser, error) {
	if m.writerFunc != nil {
		return m.writerFunc(ctx, key)
	}
	return nil, &repository.InvalidKeyError{Key: key}
}

func (m *mockRepository) Exists(ctx context.Context, key []string) bool {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, key)
	}
	return false
}

func (m *mockRepository) List(ctx context.Context, key []string) ([]string, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, key)
	}
	return nil, &repository.NotFoundError{Key: key}
}

// writeDoc はリポジトリのkeyへdataを書き込むテストヘルパー。
func writeDoc(t *testing.T, repo repository.Repository, key []string, data string) {
	t.Helper()
	w, err := repo.Writer(context.Background(), key)
	if err != nil {
		t.Fatalf("Writer取得に失敗: %v", err)
	}
	if _, err := io.WriteString(w, data); err != nil {
		t.Fatalf("書き込みに失敗: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Closeに失敗: %v", err)
	}
}

// readDoc はリポジトリのkeyから内容を読み出すテストヘルパー。
func readDoc(t *testing.T, repo repository.Repository, key []string) string {
	t.Helper()
	r, err := repo.Reader(context.Background(), key)
	if err != nil {
		t.Fatalf("Reader取得に失敗: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("読み出しに失敗: %v", err)
	}
	return string(data)
}

func TestDirtyBuffer_ReadThroughToInner(t *testing.T) {
	inner := repository.NewMemory()
	writeDoc(t, inner, []string{"doc.xml"}, "stored")

	buffer := NewDirtyBuffer(inner, nil)
	if got := readDoc(t, buffer, []string{"doc.xml"}); got != "stored" {
		t.Errorf("読み出した内容が不正: got %q, want %q", got, "stored")
	}
}

func TestDirtyBuffer_PendingWriteShadowsInner(t *testing.T) {
	inner := repository.NewMemory()
	writeDoc(t, inner, []string{"doc.xml"}, "stored")

	buffer := NewDirtyBuffer(inner, nil)
	writeDoc(t, buffer, []string{"doc.xml"}, "pending")

	if got := readDoc(t, buffer, []string{"doc.xml"}); got != "pending" {
		t.Errorf("バッファ経由の読み出しが不正: got %q, want %q", got, "pending")
	}
	// Flushされるまでinnerは変わらない
	if got := readDoc(t, inner, []string{"doc.xml"}); got != "stored" {
		t.Errorf("Flush前にinnerが変更されました: got %q, want %q", got, "stored")
	}
}

func TestDirtyBuffer_Flush(t *testing.T) {
	inner := repository.NewMemory()
	buffer := NewDirtyBuffer(inner, nil)
	writeDoc(t, buffer, []string{"feeds", "ab12", "s1.xml"}, "one")
	writeDoc(t, buffer, []string{"feeds", "cd34", "s1.xml"}, "two")

	written, err := buffer.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flushに失敗: %v", err)
	}
	if written != 2 {
		t.Errorf("書き出した件数が不正: got %d, want 2", written)
	}
	if buffer.Pending() != 0 {
		t.Errorf("Flush後の未書き出し件数が不正: got %d, want 0", buffer.Pending())
	}
	if got := readDoc(t, inner, []string{"feeds", "ab12", "s1.xml"}); got != "one" {
		t.Errorf("innerの内容が不正: got %q, want %q", got, "one")
	}

	// 2回目のFlushは何も書き出さない
	written, err = buffer.Flush(context.Background())
	if err != nil {
		t.Fatalf("2回目のFlushに失敗: %v", err)
	}
	if written != 0 {
		t.Errorf("2回目のFlushの件数が不正: got %d, want 0", written)
	}
}

func TestDirtyBuffer_List(t *testing.T) {
	inner := repository.NewMemory()
	writeDoc(t, inner, []string{"feeds", "ab12", "old.xml"}, "o")

	buffer := NewDirtyBuffer(inner, nil)
	writeDoc(t, buffer, []string{"feeds", "ab12", "new.xml"}, "n")
	writeDoc(t, buffer, []string{"feeds", "ef56", "new.xml"}, "n")

	t.Run("バッファとinnerの子キーを合わせて返す", func(t *testing.T) {
		names, err := buffer.List(context.Background(), []string{"feeds", "ab12"})
		if err != nil {
			t.Fatalf("Listに失敗: %v", err)
		}
		want := []string{"new.xml", "old.xml"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("子キーの一覧が不正: got %v, want %v", names, want)
		}
	})

	t.Run("innerに無いキーでもバッファの子キーを返す", func(t *testing.T) {
		names, err := buffer.List(context.Background(), []string{"feeds", "ef56"})
		if err != nil {
			t.Fatalf("Listに失敗: %v", err)
		}
		want := []string{"new.xml"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("子キーの一覧が不正: got %v, want %v", names, want)
		}
	})

	t.Run("どちらにも無いキーはNotFoundError", func(t *testing.T) {
		_, err := buffer.List(context.Background(), []string{"missing"})
		var notFound *repository.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("NotFoundErrorではありません: %v", err)
		}
	})

	t.Run("未確定の末端キーに対するListはNotADirectoryError", func(t *testing.T) {
		_, err := buffer.List(context.Background(), []string{"feeds", "ab12", "new.xml"})
		var notDir *repository.NotADirectoryError
		if !errors.As(err, &notDir) {
			t.Errorf("NotADirectoryErrorではありません: %v", err)
		}
	})
}

func TestDirtyBuffer_Exists(t *testing.T) {
	inner := repository.NewMemory()
	writeDoc(t, inner, []string{"stored.xml"}, "s")

	buffer := NewDirtyBuffer(inner, nil)
	writeDoc(t, buffer, []string{"feeds", "ab12", "pending.xml"}, "p")

	tests := []struct {
		name string
		key  []string
		want bool
	}{
		{"innerに確定済みのキー", []string{"stored.xml"}, true},
		{"バッファ上の未確定キー", []string{"feeds", "ab12", "pending.xml"}, true},
		{"未確定キーの中間区画", []string{"feeds"}, true},
		{"存在しないキー", []string{"missing.xml"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buffer.Exists(context.Background(), tt.key); got != tt.want {
				t.Errorf("Exists(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestDirtyBuffer_KeyConflicts(t *testing.T) {
	buffer := NewDirtyBuffer(repository.NewMemory(), nil)
	writeDoc(t, buffer, []string{"leaf.xml"}, "x")
	writeDoc(t, buffer, []string{"dir", "child.xml"}, "y")

	t.Run("末端キーの配下への書き込みはInvalidKeyError", func(t *testing.T) {
		_, err := buffer.Writer(context.Background(), []string{"leaf.xml", "child.xml"})
		var invalid *repository.InvalidKeyError
		if !errors.As(err, &invalid) {
			t.Errorf("InvalidKeyErrorではありません: %v", err)
		}
	})

	t.Run("子キーを持つキーへの書き込みはInvalidKeyError", func(t *testing.T) {
		_, err := buffer.Writer(context.Background(), []string{"dir"})
		var invalid *repository.InvalidKeyError
		if !errors.As(err, &invalid) {
			t.Errorf("InvalidKeyErrorではありません: %v", err)
		}
	})

	t.Run("子キーを持つキーの読み出しはInvalidKeyError", func(t *testing.T) {
		_, err := buffer.Reader(context.Background(), []string{"dir"})
		var invalid *repository.InvalidKeyError
		if !errors.As(err, &invalid) {
			t.Errorf("InvalidKeyErrorではありません: %v", err)
		}
	})
}

func TestDirtyBuffer_FlushFailureKeepsPending(t *testing.T) {
	inner := repository.NewMemory()
	failing := &mockRepository{
		writerFunc: func(ctx context.Context, key []string) (io.WriteCloser, error) {
			if repository.JoinKey(key) == "b.xml" {
				return nil, errors.New("disk full")
			}
			return inner.Writer(ctx, key)
		},
	}

	buffer := NewDirtyBuffer(failing, nil)
	writeDoc(t, buffer, []string{"a.xml"}, "a")
	writeDoc(t, buffer, []string{"b.xml"}, "b")

	written, err := buffer.Flush(context.Background())
	if err == nil {
		t.Fatal("Flushがエラーを返しませんでした")
	}
	if written != 1 {
		t.Errorf("書き出した件数が不正: got %d, want 1", written)
	}
	// 失敗した文書はバッファに残り、次のFlushで再試行できる
	if buffer.Pending() != 1 {
		t.Errorf("未書き出し件数が不正: got %d, want 1", buffer.Pending())
	}
	if got := readDoc(t, inner, []string{"a.xml"}); got != "a" {
		t.Errorf("成功した書き出しが反映されていません: got %q, want %q", got, "a")
	}
}

func TestDirtyBuffer_FlushHonorsContextWithRateLimit(t *testing.T) {
	inner := repository.NewMemory()
	// 1時間に1回のレートでは2件目の書き込みが期限内に終わらない
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	buffer := NewDirtyBuffer(inner, limiter)
	writeDoc(t, buffer, []string{"a.xml"}, "a")
	writeDoc(t, buffer, []string{"b.xml"}, "b")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	written, err := buffer.Flush(ctx)
	if err == nil {
		t.Fatal("Flushがエラーを返しませんでした")
	}
	if written != 1 {
		t.Errorf("書き出した件数が不正: got %d, want 1", written)
	}
	if buffer.Pending() != 1 {
		t.Errorf("未書き出し件数が不正: got %d, want 1", buffer.Pending())
	}
}
