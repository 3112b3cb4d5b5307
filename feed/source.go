package feed

import (
	"encoding/xml"

	"github.com/hitoshi/feedvault/schema"
	"github.com/hitoshi/feedvault/xmltree"
)

// Source はフィードレベルのメタデータを表す。
// フィード自身のほか、他のフィードから転載されたエントリのsource要素にも使う。
type Source struct {
	Metadata

	// Subtitle はフィードの説明。省略可能。
	Subtitle *Text
	// Generator はフィードを生成したソフトウェアの情報。省略可能。
	Generator *Generator
	// Logo はロゴ画像のIRI。省略可能。
	Logo string
	// Icon はアイコン画像のIRI。省略可能。
	Icon string
}

// ReadFrom はsource要素（またはfeed要素のフィードレベル部分）を読み込む。
func (s *Source) ReadFrom(el *xmltree.Element) error {
	if err := schema.ReadChildren(s, el); err != nil {
		return err
	}
	s.applyDefaults()
	return nil
}

// MatchChild はフィードレベル固有の子要素を読み込み、残りはMetadataへ委譲する。
func (s *Source) MatchChild(name xml.Name, child *xmltree.Element) error {
	if name.Space == XMLNS {
		switch name.Local {
		case "subtitle":
			if s.Subtitle == nil {
				s.Subtitle = &Text{}
			}
			return s.Subtitle.ReadFrom(child)
		case "generator":
			if s.Generator == nil {
				s.Generator = &Generator{}
			}
			return s.Generator.ReadFrom(child)
		case "logo":
			text, err := child.ReadWholeText()
			if err != nil {
				return err
			}
			s.Logo = text
			return nil
		case "icon":
			text, err := child.ReadWholeText()
			if err != nil {
				return err
			}
			s.Icon = text
			return nil
		}
	}
	return s.Metadata.MatchChild(name, child)
}

// Merge はフィードレベルのメタデータを突き合わせる。
// subtitle・generator・logo・iconはいずれも省略可能フィールドで、
// 自身に無い場合のみ相手から取り込む。
func (s *Source) Merge(other Source) {
	s.Metadata.Merge(other.Metadata)
	s.Subtitle = schema.MergeOptional(s.Subtitle, other.Subtitle)
	s.Generator = schema.MergeOptional(s.Generator, other.Generator)
	if s.Logo == "" {
		s.Logo = other.Logo
	}
	if s.Icon == "" {
		s.Icon = other.Icon
	}
}
