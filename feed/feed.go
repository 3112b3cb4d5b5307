// Package feed はAtom 1.0のフィードモデルと、その復号・書き出し・マージを提供する。
//
// モデルはRFC 4287のfeed・entry・source階層に、エントリごとの既読・スター印
// （mark名前空間の拡張）を加えたもの。復号はxmltreeのカーソルの上で動き、
// 認識しない子要素は読み飛ばす。マージはセッション間で分岐した同じフィードの
// 写しを1つへ還元するための演算で、新しい側（self）を優先しつつ
// 欠けた情報をother側から補う。
package feed

import (
	"encoding/xml"
	"time"

	"github.com/hitoshi/feedvault/schema"
	"github.com/hitoshi/feedvault/xmltree"
)

// XMLNS はAtom 1.0の名前空間URI。
const XMLNS = "http://www.w3.org/2005/Atom"

// MarkXMLNS は既読・スター印の拡張名前空間URI。
const MarkXMLNS = "http://earthreader.org/mark/"

// epoch はupdated要素が欠落していた場合の既定値。
var epoch = time.Unix(0, 0).UTC()

// Feed はAtomのフィード文書全体を表す。
type Feed struct {
	Source

	// Entries はフィードに含まれるエントリの列。
	Entries []Entry
}

// DocumentName はフィード文書のルート要素名を返す。
func (f *Feed) DocumentName() xml.Name {
	return xml.Name{Space: XMLNS, Local: "feed"}
}

// ReadFrom はfeed要素からフィード全体を読み込む。
func (f *Feed) ReadFrom(el *xmltree.Element) error {
	if err := schema.ReadChildren(f, el); err != nil {
		return err
	}
	f.applyDefaults()
	return nil
}

// MatchChild はentry子要素を読み込み、それ以外はSourceへ委譲する。
func (f *Feed) MatchChild(name xml.Name, child *xmltree.Element) error {
	if name.Space == XMLNS && name.Local == "entry" {
		e, err := schema.Build[Entry](child)
		if err != nil {
			return err
		}
		f.Entries = append(f.Entries, *e)
		return nil
	}
	return f.Source.MatchChild(name, child)
}

// EntityID はフィードのマージキー（id要素）を返す。
func (f *Feed) EntityID() string { return f.ID }

// Merge は同じフィードの古い写しotherを自身へ突き合わせる。
// エントリはidをキーに和集合を取り、同じエントリ同士は再帰的にマージされる。
func (f *Feed) Merge(other Feed) {
	f.Source.Merge(other.Source)
	f.Entries = schema.MergeEntitySlice(f.Entries, other.Entries)
}
