package feed

import (
	"encoding/xml"
	"time"

	"github.com/hitoshi/feedvault/schema"
	"github.com/hitoshi/feedvault/xmltree"
)

// Entry はフィード内の1つのエントリを表す。
type Entry struct {
	Metadata

	// PublishedAt は初公開時刻。ゼロ値は未指定を表す。
	PublishedAt time.Time
	// Summary は要約。省略可能。
	Summary *Text
	// Content は本文。省略可能。
	Content *Content
	// Source はエントリの転載元フィードのメタデータ。省略可能。
	Source *Source
	// Read は既読の印。
	Read Mark
	// Starred はスターの印。
	Starred Mark
}

// DocumentName は単独のentry文書のルート要素名を返す。
func (e *Entry) DocumentName() xml.Name {
	return xml.Name{Space: XMLNS, Local: "entry"}
}

// ReadFrom はentry要素からエントリを読み込む。
func (e *Entry) ReadFrom(el *xmltree.Element) error {
	if err := schema.ReadChildren(e, el); err != nil {
		return err
	}
	e.applyDefaults()
	return nil
}

// MatchChild はエントリ固有の子要素とmark拡張を読み込み、残りはMetadataへ委譲する。
func (e *Entry) MatchChild(name xml.Name, child *xmltree.Element) error {
	if name.Space == MarkXMLNS {
		switch name.Local {
		case "read":
			return e.Read.ReadFrom(child)
		case "starred":
			return e.Starred.ReadFrom(child)
		}
		return nil
	}
	if name.Space != XMLNS {
		return nil
	}
	switch name.Local {
	case "published":
		text, err := child.ReadWholeText()
		if err != nil {
			return err
		}
		t, err := schema.RFC3339{}.Decode(text)
		if err != nil {
			return err
		}
		e.PublishedAt = t
		return nil
	case "summary":
		if e.Summary == nil {
			e.Summary = &Text{}
		}
		return e.Summary.ReadFrom(child)
	case "content":
		if e.Content == nil {
			e.Content = &Content{}
		}
		return e.Content.ReadFrom(child)
	case "source":
		if e.Source == nil {
			e.Source = &Source{}
		}
		return e.Source.ReadFrom(child)
	}
	return e.Metadata.MatchChild(name, child)
}

// EntityID はエントリのマージキー（id要素）を返す。
func (e *Entry) EntityID() string { return e.ID }

// Merge は同じエントリの古い写しotherを自身へ突き合わせる。
// 既読・スターの印は変更時刻が新しい側が勝ち、sourceは再帰的にマージされる。
// published・summary・contentは自身に無い場合のみ相手から取り込む。
func (e *Entry) Merge(other Entry) {
	e.Metadata.Merge(other.Metadata)
	if e.PublishedAt.IsZero() {
		e.PublishedAt = other.PublishedAt
	}
	e.Summary = schema.MergeOptional(e.Summary, other.Summary)
	e.Content = schema.MergeOptional(e.Content, other.Content)
	e.Source = schema.MergeOptional(e.Source, other.Source)
	e.Read.Merge(other.Read)
	e.Starred.Merge(other.Starred)
}
