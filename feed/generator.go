package feed

import "github.com/hitoshi/feedvault/xmltree"

// Generator はフィードを生成したソフトウェアの情報を表す。
type Generator struct {
	// Value は生成ソフトウェア名（要素本文）。
	Value string
	// URI は生成ソフトウェアのIRI（uri属性）。省略可能。
	URI string
	// Version は生成ソフトウェアの版（version属性）。省略可能。
	Version string
}

// ReadFrom はgenerator要素から属性と本文を読み込む。
func (g *Generator) ReadFrom(el *xmltree.Element) error {
	g.URI, _ = el.Attr("uri")
	g.Version, _ = el.Attr("version")
	text, err := el.ReadWholeText()
	if err != nil {
		return err
	}
	g.Value = text
	return nil
}

// Merge は固有のマージ動作を持たない。新しい側の値がそのまま保持される。
func (g *Generator) Merge(other Generator) {}

// String は生成ソフトウェア名を返す。
func (g Generator) String() string { return g.Value }
