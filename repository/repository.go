// Package repository はフィード文書の保管先を抽象化する。
//
// リポジトリの内容はすべて階層的なキーで参照する。キーはファイルパスと
// 同じ発想の文字列の列（例: ["feeds", "ab12", "session.xml"]）で、
// 下位のキー名をList()で列挙できる。ファイルシステムのほか、PostgreSQLや
// テスト用のメモリ実装を同じインターフェースで扱う。
package repository

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Repository はストレージ実装に依存しない保管先のインターフェースを定義する。
type Repository interface {
	// Reader はkeyの内容を読み出すリーダーを返す。
	// 内容が存在しない場合は*NotFoundErrorを返す。
	Reader(ctx context.Context, key []string) (io.ReadCloser, error)

	// Writer はkeyへ書き込むライターを返す。内容はCloseで確定する。
	Writer(ctx context.Context, key []string) (io.WriteCloser, error)

	// Exists はkeyの内容または下位キーが存在するかどうかを返す。
	Exists(ctx context.Context, key []string) bool

	// List はkey直下の子キー名を辞書順で返す。
	List(ctx context.Context, key []string) ([]string, error)
}

// ValidateKey はキーの形式を検証する。
// 空のキー、空の区画、パス区切りやドット区画を含むキーは不正になる。
func ValidateKey(key []string) error {
	if len(key) == 0 {
		return &InvalidKeyError{Key: key}
	}
	for _, segment := range key {
		switch {
		case segment == "", segment == ".", segment == "..":
			return &InvalidKeyError{Key: key}
		case strings.ContainsAny(segment, `/\`):
			return &InvalidKeyError{Key: key}
		}
	}
	return nil
}

// JoinKey はキーの区切り表現を返す。
func JoinKey(key []string) string {
	return strings.Join(key, "/")
}

// FromURL はURLの指す保管先を開く。
// file:// はファイルシステム、postgres:// はPostgreSQLに対応する。
func FromURL(rawURL string) (Repository, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Reason: err.Error()}
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return nil, &InvalidURLError{URL: rawURL, Reason: "パスがありません"}
		}
		return NewFileSystem(u.Path, true)
	case "postgres", "postgresql":
		return OpenPostgres(rawURL)
	default:
		return nil, &InvalidURLError{URL: rawURL, Reason: "未対応のスキームです"}
	}
}
