// Package mimetype はフィードコンテンツのメディアタイプ分類を提供する。
//
// Atomのcontent要素が取り得る text/plain・text/html・application/xhtml+xml を
// 特別扱いし、それ以外の構文的に正しいメディアタイプはOtherとして保持する。
package mimetype

import "regexp"

// kind は分類の内部キー。
type kind int

const (
	kindText kind = iota + 1
	kindHTML
	kindXHTML
	kindOther
)

// MimeType は分類済みのメディアタイプを表す。==で比較できる。
// ゼロ値は「分類なし」を表し、IsTextはfalseを返す。
type MimeType struct {
	kind kind
	name string
}

// 定義済みの分類。
var (
	// Text は text/plain。
	Text = MimeType{kind: kindText}
	// HTML は text/html。
	HTML = MimeType{kind: kindHTML}
	// XHTML は application/xhtml+xml。
	XHTML = MimeType{kind: kindXHTML}
)

// type/subtype の両側とも RFC 6838 のトークン文字で1〜127文字。
var mimePattern = regexp.MustCompile(
	`^[A-Za-z0-9!#$&.+^_-]{1,127}/[A-Za-z0-9!#$&.+^_-]{1,127}$`)

// Parse はメディアタイプ文字列を分類する。
// type/subtype の形に一致しない場合は分類なし（ok=false）を返し、
// フォールバックの選択は呼び出し側に委ねる。
func Parse(s string) (MimeType, bool) {
	if !mimePattern.MatchString(s) {
		return MimeType{}, false
	}
	switch s {
	case "text/plain":
		return Text, true
	case "text/html":
		return HTML, true
	case "application/xhtml+xml":
		return XHTML, true
	}
	return MimeType{kind: kindOther, name: s}, true
}

// IsText は内容をテキストとして扱えるかを返す。
// Otherと分類なしのみfalseを返す。
func (m MimeType) IsText() bool {
	switch m.kind {
	case kindText, kindHTML, kindXHTML:
		return true
	}
	return false
}

// String は正規のメディアタイプ表記を返す。
func (m MimeType) String() string {
	switch m.kind {
	case kindText:
		return "text/plain"
	case kindHTML:
		return "text/html"
	case kindXHTML:
		return "application/xhtml+xml"
	case kindOther:
		return m.name
	}
	return ""
}
