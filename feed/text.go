package feed

import "github.com/hitoshi/feedvault/xmltree"

// TextType はテキスト構造の種別を表す。
type TextType int

const (
	// TextPlain はプレーンテキスト。表示時はエスケープが必要。
	TextPlain TextType = iota
	// TextHTML はHTMLテキスト。表示時はサニタイズが必要。
	TextHTML
)

// Text はAtomのテキスト構造（title・subtitle・rights・summary）を表す。
type Text struct {
	// Type は本文の種別。
	Type TextType
	// Value は本文。
	Value string
}

// ReadFrom はtype属性で種別を判定し、本文を読み込む。
// type属性の欠落および認識できない値はプレーンテキストとして扱う。
func (t *Text) ReadFrom(el *xmltree.Element) error {
	switch v, _ := el.Attr("type"); v {
	case "html":
		t.Type = TextHTML
	default:
		t.Type = TextPlain
	}
	text, err := el.ReadWholeText()
	if err != nil {
		return err
	}
	t.Value = text
	return nil
}

// Merge は固有のマージ動作を持たない。新しい側の値がそのまま保持される。
func (t *Text) Merge(other Text) {}

// String は本文をそのまま返す。
func (t Text) String() string { return t.Value }
