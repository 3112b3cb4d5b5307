package feed

import (
	"encoding/xml"
	"time"

	"github.com/hitoshi/feedvault/schema"
	"github.com/hitoshi/feedvault/xmltree"
)

// Metadata はFeed・Entry・Sourceが共有する共通メタデータ。
type Metadata struct {
	// ID は恒久的な一意識別子（URI）。マージ時の同一性キーとなる。
	ID string
	// Title は人間可読のタイトル。
	Title Text
	// Links は関連リソースへの参照の列。
	Links []Link
	// UpdatedAt は最終更新時刻。復号時に欠落していた場合はUnixエポック（UTC）。
	UpdatedAt time.Time
	// Authors は著者の列。
	Authors []Person
	// Contributors は寄与者の列。
	Contributors []Person
	// Categories は分類の列。
	Categories []Category
	// Rights は権利表記。省略可能。
	Rights *Text
}

// MatchChild はAtom名前空間の共通子要素を対応するフィールドへ振り分ける。
// 認識しない子要素と他の名前空間の子要素は無視する。
func (m *Metadata) MatchChild(name xml.Name, child *xmltree.Element) error {
	if name.Space != XMLNS {
		return nil
	}
	switch name.Local {
	case "id":
		text, err := child.ReadWholeText()
		if err != nil {
			return err
		}
		m.ID = text
	case "title":
		return m.Title.ReadFrom(child)
	case "link":
		l, err := schema.Build[Link](child)
		if err != nil {
			return err
		}
		m.Links = append(m.Links, *l)
	case "updated", "modified":
		// modifiedはAtom 0.3時代の別名。updatedと同様に扱う。
		text, err := child.ReadWholeText()
		if err != nil {
			return err
		}
		t, err := schema.RFC3339{}.Decode(text)
		if err != nil {
			return err
		}
		m.UpdatedAt = t
	case "author":
		p, err := decodePerson(child)
		if err != nil {
			return err
		}
		if p != nil {
			m.Authors = append(m.Authors, *p)
		}
	case "contributor":
		p, err := decodePerson(child)
		if err != nil {
			return err
		}
		if p != nil {
			m.Contributors = append(m.Contributors, *p)
		}
	case "category":
		c, err := schema.Build[Category](child)
		if err != nil {
			return err
		}
		m.Categories = append(m.Categories, *c)
	case "rights":
		if m.Rights == nil {
			m.Rights = &Text{}
		}
		return m.Rights.ReadFrom(child)
	}
	return nil
}

// applyDefaults は欠落したままのフィールドへ既定値を入れる。
func (m *Metadata) applyDefaults() {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = epoch
	}
}

// Merge は共通メタデータを突き合わせる。
// id・title・updatedなどの単一値フィールドは自身を保持する。
// rightsは片方だけ存在する場合に採用し、categoryはtermをキーに和集合を取る。
// links・authors・contributorsは同一性のキーを持たないため自身の列を保持する。
func (m *Metadata) Merge(other Metadata) {
	m.Rights = schema.MergeOptional(m.Rights, other.Rights)
	m.Categories = schema.MergeEntitySlice(m.Categories, other.Categories)
}
