package schema

import (
	"io"
	"slices"
)

// Boolean は真偽値コーデック。受理するトークン集合と空入力時の既定値を設定できる。
// トークンは大文字小文字を区別した完全一致で判定する。
type Boolean struct {
	// TrueTexts は真として受理するトークン。
	TrueTexts []string
	// FalseTexts は偽として受理するトークン。
	FalseTexts []string
	// Default は空文字列を復号したときの値。
	Default bool
}

// DefaultBoolean は "true"/"false" のみを受理し、空入力を偽とするコーデックを返す。
func DefaultBoolean() Boolean {
	return Boolean{
		TrueTexts:  []string{"true"},
		FalseTexts: []string{"false"},
	}
}

// Decode は文字列から真偽値を復元する。
// 空文字列はDefaultを返し、どちらのトークン集合にも属さない文字列は
// *DecodeErrorを返す。
func (c Boolean) Decode(text string) (bool, error) {
	if text == "" {
		return c.Default, nil
	}
	if slices.Contains(c.TrueTexts, text) {
		return true, nil
	}
	if slices.Contains(c.FalseTexts, text) {
		return false, nil
	}
	return false, &DecodeError{Value: text, Reason: "真偽値トークンとして認識できません"}
}

// Encode は値に対応するトークン集合の先頭要素をwへ書き出す。
// 集合が空の場合は "true"/"false" を書き出す。
func (c Boolean) Encode(w io.Writer, value bool) error {
	texts := c.FalseTexts
	fallback := "false"
	if value {
		texts = c.TrueTexts
		fallback = "true"
	}
	text := fallback
	if len(texts) > 0 {
		text = texts[0]
	}
	_, err := io.WriteString(w, text)
	return err
}

var _ Codec[bool] = Boolean{}
