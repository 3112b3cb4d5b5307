package feed

import "github.com/hitoshi/feedvault/xmltree"

// Category はフィードやエントリの分類を表す。
type Category struct {
	// Term は分類語（term属性）。必須で、マージ時の同一性キーとなる。
	Term string
	// Scheme は分類体系のIRI（scheme属性）。省略可能。
	Scheme string
	// Label は人間可読のラベル（label属性）。省略可能。
	Label string
}

// ReadFrom は属性から分類を読み込む。term属性は必須。
func (c *Category) ReadFrom(el *xmltree.Element) error {
	term, err := el.RequireAttr("term")
	if err != nil {
		return err
	}
	c.Term = term
	c.Scheme, _ = el.Attr("scheme")
	c.Label, _ = el.Attr("label")
	return nil
}

// EntityID はマージキー（term属性）を返す。
func (c *Category) EntityID() string { return c.Term }

// Merge は同じtermの分類を突き合わせる。
// labelは自身に無い場合のみ相手から取り込み、schemeは自身の値を保持する。
func (c *Category) Merge(other Category) {
	if c.Label == "" {
		c.Label = other.Label
	}
}

// String はラベルがあればラベルを、なければtermを返す。
func (c Category) String() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Term
}
