package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/hitoshi/feedvault/mimetype"
	"github.com/hitoshi/feedvault/schema"
)

// Encode はフィードをAtom 1.0のXML文書としてwへ書き出す。
// ルート要素にはAtomとmark拡張の両名前空間を宣言する。
// 書き出した文書はDecodeで同じモデルへ復元できる。
func Encode(w io.Writer, f *Feed) error {
	doc := feedToXML(f)
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("フィードの書き出しに失敗しました: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("フィードの書き出しに失敗しました: %w", err)
	}
	return nil
}

// EncodeEntry はエントリを単独のentry文書としてwへ書き出す。
func EncodeEntry(w io.Writer, e *Entry) error {
	doc := entryToXML(e)
	doc.XMLNS = XMLNS
	doc.XMLNSMark = MarkXMLNS
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("エントリの書き出しに失敗しました: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("エントリの書き出しに失敗しました: %w", err)
	}
	return nil
}

// 以下はencoding/xmlのマーシャリングに合わせた書き出し専用のミラー構造体。
// mark拡張の要素名は接頭辞付きのリテラルで書き、ルートのxmlns:mark宣言と対にする。

type xmlFeed struct {
	XMLName      xml.Name      `xml:"feed"`
	XMLNS        string        `xml:"xmlns,attr"`
	XMLNSMark    string        `xml:"xmlns:mark,attr"`
	ID           string        `xml:"id"`
	Title        xmlText       `xml:"title"`
	Subtitle     *xmlText      `xml:"subtitle"`
	Links        []xmlLink     `xml:"link"`
	Updated      string        `xml:"updated"`
	Authors      []xmlPerson   `xml:"author"`
	Contributors []xmlPerson   `xml:"contributor"`
	Categories   []xmlCategory `xml:"category"`
	Rights       *xmlText      `xml:"rights"`
	Generator    *xmlGenerator `xml:"generator"`
	Logo         string        `xml:"logo,omitempty"`
	Icon         string        `xml:"icon,omitempty"`
	Entries      []xmlEntry    `xml:"entry"`
}

type xmlEntry struct {
	XMLName      xml.Name      `xml:"entry"`
	XMLNS        string        `xml:"xmlns,attr,omitempty"`
	XMLNSMark    string        `xml:"xmlns:mark,attr,omitempty"`
	ID           string        `xml:"id"`
	Title        xmlText       `xml:"title"`
	Links        []xmlLink     `xml:"link"`
	Updated      string        `xml:"updated"`
	Published    string        `xml:"published,omitempty"`
	Authors      []xmlPerson   `xml:"author"`
	Contributors []xmlPerson   `xml:"contributor"`
	Categories   []xmlCategory `xml:"category"`
	Rights       *xmlText      `xml:"rights"`
	Summary      *xmlText      `xml:"summary"`
	Content      *xmlContent   `xml:"content"`
	Source       *xmlSource    `xml:"source"`
	Read         *xmlMark      `xml:"mark:read"`
	Starred      *xmlMark      `xml:"mark:starred"`
}

type xmlSource struct {
	ID           string        `xml:"id"`
	Title        xmlText       `xml:"title"`
	Subtitle     *xmlText      `xml:"subtitle"`
	Links        []xmlLink     `xml:"link"`
	Updated      string        `xml:"updated"`
	Authors      []xmlPerson   `xml:"author"`
	Contributors []xmlPerson   `xml:"contributor"`
	Categories   []xmlCategory `xml:"category"`
	Rights       *xmlText      `xml:"rights"`
	Generator    *xmlGenerator `xml:"generator"`
	Logo         string        `xml:"logo,omitempty"`
	Icon         string        `xml:"icon,omitempty"`
}

type xmlText struct {
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlPerson struct {
	Name  string `xml:"name"`
	URI   string `xml:"uri,omitempty"`
	Email string `xml:"email,omitempty"`
}

type xmlLink struct {
	Href     string `xml:"href,attr"`
	Rel      string `xml:"rel,attr,omitempty"`
	Type     string `xml:"type,attr,omitempty"`
	Hreflang string `xml:"hreflang,attr,omitempty"`
	Title    string `xml:"title,attr,omitempty"`
	Length   string `xml:"length,attr,omitempty"`
}

type xmlCategory struct {
	Term   string `xml:"term,attr"`
	Scheme string `xml:"scheme,attr,omitempty"`
	Label  string `xml:"label,attr,omitempty"`
}

type xmlGenerator struct {
	URI     string `xml:"uri,attr,omitempty"`
	Version string `xml:"version,attr,omitempty"`
	Value   string `xml:",chardata"`
}

type xmlContent struct {
	Type  string `xml:"type,attr,omitempty"`
	Src   string `xml:"src,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlMark struct {
	Updated string `xml:"updated,attr"`
	Value   string `xml:",chardata"`
}

func feedToXML(f *Feed) *xmlFeed {
	doc := &xmlFeed{
		XMLNS:        XMLNS,
		XMLNSMark:    MarkXMLNS,
		ID:           f.ID,
		Title:        textToXML(f.Title),
		Subtitle:     textPtrToXML(f.Subtitle),
		Links:        linksToXML(f.Links),
		Updated:      schema.RFC3339{}.EncodeString(f.UpdatedAt),
		Authors:      personsToXML(f.Authors),
		Contributors: personsToXML(f.Contributors),
		Categories:   categoriesToXML(f.Categories),
		Rights:       textPtrToXML(f.Rights),
		Generator:    generatorToXML(f.Generator),
		Logo:         f.Logo,
		Icon:         f.Icon,
	}
	for i := range f.Entries {
		doc.Entries = append(doc.Entries, entryToXML(&f.Entries[i]))
	}
	return doc
}

func entryToXML(e *Entry) xmlEntry {
	doc := xmlEntry{
		ID:           e.ID,
		Title:        textToXML(e.Title),
		Links:        linksToXML(e.Links),
		Updated:      schema.RFC3339{}.EncodeString(e.UpdatedAt),
		Authors:      personsToXML(e.Authors),
		Contributors: personsToXML(e.Contributors),
		Categories:   categoriesToXML(e.Categories),
		Rights:       textPtrToXML(e.Rights),
		Summary:      textPtrToXML(e.Summary),
		Content:      contentToXML(e.Content),
		Source:       sourceToXML(e.Source),
		Read:         markToXML(e.Read),
		Starred:      markToXML(e.Starred),
	}
	if !e.PublishedAt.IsZero() {
		doc.Published = schema.RFC3339{}.EncodeString(e.PublishedAt)
	}
	return doc
}

func sourceToXML(s *Source) *xmlSource {
	if s == nil {
		return nil
	}
	return &xmlSource{
		ID:           s.ID,
		Title:        textToXML(s.Title),
		Subtitle:     textPtrToXML(s.Subtitle),
		Links:        linksToXML(s.Links),
		Updated:      schema.RFC3339{}.EncodeString(s.UpdatedAt),
		Authors:      personsToXML(s.Authors),
		Contributors: personsToXML(s.Contributors),
		Categories:   categoriesToXML(s.Categories),
		Rights:       textPtrToXML(s.Rights),
		Generator:    generatorToXML(s.Generator),
		Logo:         s.Logo,
		Icon:         s.Icon,
	}
}

func textToXML(t Text) xmlText {
	doc := xmlText{Value: t.Value}
	if t.Type == TextHTML {
		doc.Type = "html"
	}
	return doc
}

func textPtrToXML(t *Text) *xmlText {
	if t == nil {
		return nil
	}
	doc := textToXML(*t)
	return &doc
}

func personsToXML(persons []Person) []xmlPerson {
	var docs []xmlPerson
	for _, p := range persons {
		docs = append(docs, xmlPerson{Name: p.Name, URI: p.URI, Email: p.Email})
	}
	return docs
}

func linksToXML(links []Link) []xmlLink {
	var docs []xmlLink
	for _, l := range links {
		doc := xmlLink{
			Href:     l.URI,
			Rel:      l.Relation,
			Type:     l.MimeType,
			Hreflang: l.Language,
			Title:    l.Title,
		}
		if l.ByteSize != 0 {
			doc.Length = strconv.FormatUint(l.ByteSize, 10)
		}
		docs = append(docs, doc)
	}
	return docs
}

func categoriesToXML(categories []Category) []xmlCategory {
	var docs []xmlCategory
	for _, c := range categories {
		docs = append(docs, xmlCategory{Term: c.Term, Scheme: c.Scheme, Label: c.Label})
	}
	return docs
}

func generatorToXML(g *Generator) *xmlGenerator {
	if g == nil {
		return nil
	}
	return &xmlGenerator{URI: g.URI, Version: g.Version, Value: g.Value}
}

func contentToXML(c *Content) *xmlContent {
	if c == nil {
		return nil
	}
	doc := &xmlContent{Src: c.SourceURI, Value: c.Value}
	switch c.Type {
	case mimetype.Text:
		// type属性の省略はtextを意味する
	case mimetype.HTML:
		doc.Type = "html"
	case mimetype.XHTML:
		doc.Type = "xhtml"
	default:
		doc.Type = c.Type.String()
	}
	return doc
}

func markToXML(m Mark) *xmlMark {
	if m.IsZero() {
		return nil
	}
	value := "false"
	if m.Marked {
		value = "true"
	}
	return &xmlMark{
		Updated: schema.RFC3339{}.EncodeString(m.UpdatedAt),
		Value:   value,
	}
}
