package feed

import (
	"io"

	"github.com/hitoshi/feedvault/schema"
)

// Decode はAtom文書を読み込みフィードを返す。
// ルート要素が（Atom名前空間の）feedでない場合はエラーを返す。
func Decode(r io.Reader) (*Feed, error) {
	var f Feed
	if err := schema.DecodeDocument(r, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DecodeEntry は単独のentry文書を読み込みエントリを返す。
func DecodeEntry(r io.Reader) (*Entry, error) {
	var e Entry
	if err := schema.DecodeDocument(r, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
