package feed

import (
	"strconv"

	"github.com/hitoshi/feedvault/xmltree"
)

// Link は関連リソースへの参照を表す。
type Link struct {
	// URI は参照先（href属性）。必須。
	URI string
	// Relation はリンク種別（rel属性）。省略時は "alternate"。
	Relation string
	// MimeType は参照先のメディアタイプ（type属性）。省略可能。
	MimeType string
	// Language は参照先の言語（hreflang属性）。省略可能。
	Language string
	// Title は人間可読のラベル（title属性）。省略可能。
	Title string
	// ByteSize は参照先のバイト数（length属性）。0は未指定を表す。
	ByteSize uint64
}

// ReadFrom は属性からリンクを読み込む。href属性は必須。
// length属性が非負整数として解釈できない場合は黙って未指定として扱う。
func (l *Link) ReadFrom(el *xmltree.Element) error {
	href, err := el.RequireAttr("href")
	if err != nil {
		return err
	}
	l.URI = href
	l.Relation = "alternate"
	if rel, ok := el.Attr("rel"); ok {
		l.Relation = rel
	}
	l.MimeType, _ = el.Attr("type")
	l.Language, _ = el.Attr("hreflang")
	l.Title, _ = el.Attr("title")
	if length, ok := el.Attr("length"); ok {
		if n, err := strconv.ParseUint(length, 10, 64); err == nil {
			l.ByteSize = n
		}
	}
	return nil
}

// IsHTML は参照先がHTML文書とみなせるかを返す。
func (l Link) IsHTML() bool {
	return l.MimeType == "text/html" || l.MimeType == "application/xhtml+xml"
}

// String は参照先URIを返す。
func (l Link) String() string { return l.URI }
