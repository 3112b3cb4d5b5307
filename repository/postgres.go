package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/lib/pq"
)

// Postgres はPostgreSQLのvault_blobsテーブルを保管先とするリポジトリ。
// 階層キーは/区切りの文字列として1行に格納する。
type Postgres struct {
	db *sql.DB
}

// NewPostgres は接続済みのデータベースを使うリポジトリを生成する。
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres は接続文字列からデータベースを開いてリポジトリを生成する。
func OpenPostgres(databaseURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続を開けません: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("データベースに疎通できません: %w", err)
	}
	return NewPostgres(db), nil
}

// DB は下層のデータベース接続を返す。マイグレーションの実行に使う。
func (r *Postgres) DB() *sql.DB {
	return r.db
}

// Reader はkeyの内容を読み出すリーダーを返す。
func (r *Postgres) Reader(ctx context.Context, key []string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	query := `SELECT data FROM vault_blobs WHERE key = $1`
	var data []byte
	err := r.db.QueryRowContext(ctx, query, JoinKey(key)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("内容の読み出しに失敗しました: %w", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Writer はkeyへ書き込むライターを返す。内容はCloseで確定する。
func (r *Postgres) Writer(ctx context.Context, key []string) (io.WriteCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return &postgresWriter{ctx: ctx, db: r.db, key: JoinKey(key)}, nil
}

// Exists はkeyの内容または下位キーが存在するかどうかを返す。
func (r *Postgres) Exists(ctx context.Context, key []string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	joined := JoinKey(key)
	query := `SELECT EXISTS(SELECT 1 FROM vault_blobs WHERE key = $1 OR key LIKE $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, joined, escapeLike(joined)+"/%").Scan(&exists); err != nil {
		return false
	}
	return exists
}

// List はkey直下の子キー名を辞書順で返す。
func (r *Postgres) List(ctx context.Context, key []string) ([]string, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	joined := JoinKey(key)
	query := `SELECT DISTINCT split_part(key, '/', $1) FROM vault_blobs WHERE key LIKE $2 ORDER BY 1`
	rows, err := r.db.QueryContext(ctx, query, len(key)+1, escapeLike(joined)+"/%")
	if err != nil {
		return nil, fmt.Errorf("子キーの列挙に失敗しました: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("子キーの読み取りに失敗しました: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("子キーの走査に失敗しました: %w", err)
	}
	if len(names) == 0 {
		if r.Exists(ctx, key) {
			return nil, &NotADirectoryError{Path: joined}
		}
		return nil, &NotFoundError{Key: key}
	}
	return names, nil
}

// postgresWriter はCloseされるまで書き込みをバッファに溜め、
// Closeで1行のUPSERTとして確定する。
type postgresWriter struct {
	ctx context.Context
	db  *sql.DB
	key string
	buf bytes.Buffer
}

func (w *postgresWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *postgresWriter) Close() error {
	query := `
		INSERT INTO vault_blobs (key, data) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	if _, err := w.db.ExecContext(w.ctx, query, w.key, w.buf.Bytes()); err != nil {
		return fmt.Errorf("内容の書き込みに失敗しました: %w", err)
	}
	return nil
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// compile-time interface check
var _ Repository = (*Postgres)(nil)
