package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/hitoshi/feedvault/xmltree"
)

// ElementReader はXML要素1つから自身を組み立てられる型を表す。
type ElementReader interface {
	// ReadFrom は要素の属性・本文・子要素を読み取り自身へ反映する。
	ReadFrom(el *xmltree.Element) error
}

// ChildMatcher は子要素を自身のフィールドへ振り分ける型を表す。
type ChildMatcher interface {
	// MatchChild は子要素を（名前空間, ローカル名）で識別してフィールドへ反映する。
	// 認識しない子要素は前方互換のため無視してnilを返す。
	MatchChild(name xml.Name, child *xmltree.Element) error
}

// ReadChildren は要素の内容を順に辿り、子要素をm.MatchChildへ振り分ける。
// テキストやコメントなど子要素以外のイベントは読み飛ばし、
// 最初のエラーで即座に中断する。
func ReadChildren(m ChildMatcher, el *xmltree.Element) error {
	children := el.Children()
	for {
		ev, err := children.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ev.Kind != xmltree.EventChild {
			continue
		}
		if err := m.MatchChild(ev.Element.Name, ev.Element); err != nil {
			return err
		}
	}
}

// Build はTをゼロ値から生成し、要素を読み込んで返す。
func Build[T any, PT interface {
	*T
	ElementReader
}](el *xmltree.Element) (*T, error) {
	v := PT(new(T))
	if err := v.ReadFrom(el); err != nil {
		return nil, err
	}
	return (*T)(v), nil
}

// DocumentElement は文書ルートとして読み込める型を表す。
type DocumentElement interface {
	ElementReader
	// DocumentName は期待するルート要素の（名前空間, ローカル名）を返す。
	DocumentName() xml.Name
}

// DecodeDocument はrの文書ルート要素をdocへ読み込む。
// ルート要素の名前がdocの期待と一致しない場合は*DecodeErrorを返す。
func DecodeDocument(r io.Reader, doc DocumentElement) error {
	reader := xmltree.NewReader(r)
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return &DecodeError{Reason: "ルート要素が見つかりません"}
		}
		if err != nil {
			return err
		}
		if ev.Kind != xmltree.EventChild {
			continue
		}
		want := doc.DocumentName()
		if ev.Element.Name != want {
			return &DecodeError{
				Value:  ev.Element.Name.Local,
				Reason: fmt.Sprintf("ルート要素が %s ではありません", want.Local),
			}
		}
		return doc.ReadFrom(ev.Element)
	}
}
