package feed

import (
	"encoding/xml"

	"github.com/hitoshi/feedvault/schema"
	"github.com/hitoshi/feedvault/xmltree"
)

// Person は著者または寄与者を表す。
type Person struct {
	// Name は表示名。
	Name string
	// URI は人物に関連するIRI。省略可能。
	URI string
	// Email はメールアドレス。省略可能。
	Email string
}

// personReader はauthor/contributor要素の読み取り状態。
// Atomのperson構造は子要素に厳格で、name・uri・email以外は復号エラーとする。
type personReader struct {
	person Person
}

func (r *personReader) MatchChild(name xml.Name, child *xmltree.Element) error {
	if name.Space == XMLNS {
		switch name.Local {
		case "name":
			text, err := child.ReadWholeText()
			if err != nil {
				return err
			}
			r.person.Name = text
			return nil
		case "uri":
			text, err := child.ReadWholeText()
			if err != nil {
				return err
			}
			r.person.URI = text
			return nil
		case "email":
			text, err := child.ReadWholeText()
			if err != nil {
				return err
			}
			r.person.Email = text
			return nil
		}
	}
	return &schema.DecodeError{Value: name.Local, Reason: "personの子要素として認識できません"}
}

// decodePerson はauthor/contributor要素から人物を読み込む。
// name子要素が得られなかった場合、uriやemailがあっても人物全体を
// 不在（nil）として返す。
func decodePerson(el *xmltree.Element) (*Person, error) {
	var r personReader
	if err := schema.ReadChildren(&r, el); err != nil {
		return nil, err
	}
	if r.person.Name == "" {
		return nil, nil
	}
	return &r.person, nil
}

// String は表示名を返す。
func (p Person) String() string { return p.Name }
