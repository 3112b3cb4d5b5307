// Package schema はフィード文書の復号・書き出し・マージを支える共通の仕組みを提供する。
//
// XML要素からモデル型を組み立てるディスパッチ（ElementReader / ChildMatcher）、
// 文字列と値を相互変換するコーデック（RFC3339 / Boolean）、
// セッション間でエンティティを突き合わせるマージ演算を含む。
package schema

import (
	"fmt"
	"io"
)

// Codec は文字列表現と型付き値の相互変換を表す。
type Codec[T any] interface {
	// Encode は値の文字列表現をwへ書き出す。
	Encode(w io.Writer, value T) error
	// Decode は文字列表現から値を復元する。
	// 解釈できない場合は*DecodeErrorを返す。
	Decode(text string) (T, error)
}

// DecodeError は値の復号失敗を表す。元の文字列と理由を保持する。
type DecodeError struct {
	Value  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("値 %q を復号できません: %s", e.Value, e.Reason)
}
