package feed

import (
	"time"

	"github.com/hitoshi/feedvault/schema"
	"github.com/hitoshi/feedvault/xmltree"
)

// Mark はエントリに付く既読・スターの印を表す。
// 印の変更は常に時刻付きで記録され、セッション間のマージでは
// より新しく変更された側が丸ごと採用される。
type Mark struct {
	// Marked は印が付いているかどうか。
	Marked bool
	// UpdatedAt は印が最後に変更された時刻。ゼロ値は未記録を表す。
	UpdatedAt time.Time
}

// ReadFrom はmark拡張要素（mark:read / mark:starred）から印を読み込む。
// updated属性は必須。本文は "true"/"false" で、空の場合は偽として扱う。
func (m *Mark) ReadFrom(el *xmltree.Element) error {
	updated, err := el.RequireAttr("updated")
	if err != nil {
		return err
	}
	t, err := schema.RFC3339{}.Decode(updated)
	if err != nil {
		return err
	}
	text, err := el.ReadWholeText()
	if err != nil {
		return err
	}
	marked, err := schema.DefaultBoolean().Decode(text)
	if err != nil {
		return err
	}
	m.Marked = marked
	m.UpdatedAt = t
	return nil
}

// IsZero は印が一度も記録されていないことを返す。
func (m Mark) IsZero() bool { return !m.Marked && m.UpdatedAt.IsZero() }

// Merge は同じ印の2つの版を突き合わせる。変更時刻が真に新しい側が
// 値・時刻とも丸ごと勝つ。時刻を持たない側は最も古いものとして扱う。
func (m *Mark) Merge(other Mark) {
	if m.UpdatedAt.Before(other.UpdatedAt) {
		*m = other
	}
}
