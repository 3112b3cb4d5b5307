package feed

import (
	"github.com/hitoshi/feedvault/mimetype"
	"github.com/hitoshi/feedvault/xmltree"
)

// Content はエントリ本文を表す。
// 本文そのものか、src属性による外部参照のいずれかを持つ。
type Content struct {
	// Type は本文のメディアタイプ。省略時はプレーンテキスト。
	Type mimetype.MimeType
	// Value は本文。テキスト型の場合はUTF-8文字列。
	Value string
	// SourceURI は本文の外部参照先（src属性）。省略可能。
	SourceURI string
}

// ReadFrom はcontent要素から本文を読み込む。
// type属性は "text"/"html"/"xhtml" のキーワード、またはメディアタイプとして
// 解釈され、どちらでもない値はプレーンテキストへフォールバックする。
func (c *Content) ReadFrom(el *xmltree.Element) error {
	c.SourceURI, _ = el.Attr("src")
	c.Type = mimetype.Text
	if v, ok := el.Attr("type"); ok {
		switch v {
		case "text":
			c.Type = mimetype.Text
		case "html":
			c.Type = mimetype.HTML
		case "xhtml":
			c.Type = mimetype.XHTML
		default:
			if mt, ok := mimetype.Parse(v); ok {
				c.Type = mt
			}
		}
	}
	// TODO: 非テキストメディアタイプのbase64本文の復号
	text, err := el.ReadWholeText()
	if err != nil {
		return err
	}
	c.Value = text
	return nil
}

// IsText は本文をテキストとして扱えるかを返す。
func (c Content) IsText() bool { return c.Type.IsText() }

// Equal は本文の同一性を判定する。
// 両方に外部参照があれば（メディアタイプ, 参照先）で比較し、
// 両方とも本文を持てば本文同士を比較する。片方だけ外部参照の場合は等しくない。
func (c Content) Equal(other Content) bool {
	switch {
	case c.SourceURI != "" && other.SourceURI != "":
		return c.Type == other.Type && c.SourceURI == other.SourceURI
	case c.SourceURI == "" && other.SourceURI == "":
		return c.Value == other.Value
	}
	return false
}

// Merge は固有のマージ動作を持たない。新しい側の値がそのまま保持される。
func (c *Content) Merge(other Content) {}

// String は本文を返す。
func (c Content) String() string { return c.Value }
