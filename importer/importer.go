// Package importer は外部から取得したRSS・Atom・JSON Feed文書を寛容に
// 解釈し、保管モデルのフィードへ変換する。
//
// 厳格なfeed.Decodeと違い、形式の揺れた文書もgofeedの解釈に任せて
// 取り込む。取り込んだフィードはそのままステージへ保管できる。
package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/hitoshi/feedvault/feed"
	"github.com/hitoshi/feedvault/mimetype"
	"github.com/hitoshi/feedvault/sanitizer"
)

// Options は取り込みの動作設定を保持する。
type Options struct {
	// FeedURI は文書からフィードIDを導出できない場合に採用するID。
	FeedURI string
	// Sanitizer がnilでなければHTML本文を無害化して取り込む。
	Sanitizer sanitizer.Sanitizer
}

// Parse はrのフィード文書を既定の設定で取り込む。
func Parse(r io.Reader) (*feed.Feed, error) {
	return ParseWith(r, Options{})
}

// ParseWith はrのフィード文書をoptsの設定で取り込む。
// フィードIDは opts.FeedURI、自己参照リンク、代替リンクの順で導出し、
// どれも無ければエラーを返す。
func ParseWith(r io.Reader, opts Options) (*feed.Feed, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("フィードの解釈に失敗しました: %w", err)
	}

	id := opts.FeedURI
	if id == "" {
		id = parsed.FeedLink
	}
	if id == "" {
		id = parsed.Link
	}
	if id == "" {
		return nil, fmt.Errorf("フィードのIDを導出できません: FeedURIを指定してください")
	}

	f := &feed.Feed{
		Source: feed.Source{
			Metadata: feed.Metadata{
				ID:         id,
				Title:      feed.Text{Value: parsed.Title},
				UpdatedAt:  pickTime(parsed.UpdatedParsed, parsed.PublishedParsed),
				Authors:    feedAuthors(parsed),
				Categories: convertCategories(parsed.Categories),
			},
		},
	}
	if parsed.Link != "" {
		f.Links = append(f.Links, feed.Link{URI: parsed.Link, Relation: "alternate"})
	}
	if parsed.FeedLink != "" {
		f.Links = append(f.Links, feed.Link{URI: parsed.FeedLink, Relation: "self"})
	}
	if parsed.Description != "" {
		f.Subtitle = &feed.Text{Value: parsed.Description}
	}
	if parsed.Copyright != "" {
		f.Rights = &feed.Text{Value: parsed.Copyright}
	}
	if parsed.Generator != "" {
		f.Generator = &feed.Generator{Value: parsed.Generator}
	}
	if parsed.Image != nil {
		f.Logo = parsed.Image.URL
	}
	f.Entries = lo.FilterMap(parsed.Items, func(item *gofeed.Item, _ int) (feed.Entry, bool) {
		if item == nil {
			return feed.Entry{}, false
		}
		return convertItem(item, opts), true
	})
	return f, nil
}

// convertItem はgofeedの記事をエントリへ変換する。
// IDはGUID、無ければリンク。リンクが無くGUIDがURL形式なら
// GUIDをリンクとして使う。
func convertItem(item *gofeed.Item, opts Options) feed.Entry {
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	link := item.Link
	if link == "" && isHTTPURI(item.GUID) {
		link = item.GUID
	}

	e := feed.Entry{
		Metadata: feed.Metadata{
			ID:         id,
			Title:      feed.Text{Value: item.Title},
			UpdatedAt:  pickTime(item.UpdatedParsed, item.PublishedParsed),
			Authors:    itemAuthors(item),
			Categories: convertCategories(item.Categories),
		},
	}
	if link != "" {
		e.Links = append(e.Links, feed.Link{URI: link, Relation: "alternate"})
	}
	if item.PublishedParsed != nil {
		e.PublishedAt = item.PublishedParsed.UTC()
	}
	if item.Description != "" {
		e.Summary = &feed.Text{Type: feed.TextHTML, Value: sanitizeHTML(item.Description, opts)}
	}
	if item.Content != "" {
		e.Content = &feed.Content{Type: mimetype.HTML, Value: sanitizeHTML(item.Content, opts)}
	}
	return e
}

// feedAuthors はフィード単位の著者の列を変換する。
func feedAuthors(parsed *gofeed.Feed) []feed.Person {
	if authors := convertPersons(parsed.Authors); len(authors) > 0 {
		return authors
	}
	return convertPersons([]*gofeed.Person{parsed.Author})
}

// itemAuthors は記事単位の著者の列を変換する。
func itemAuthors(item *gofeed.Item) []feed.Person {
	if authors := convertPersons(item.Authors); len(authors) > 0 {
		return authors
	}
	return convertPersons([]*gofeed.Person{item.Author})
}

// convertPersons は著者の列を変換する。名前の無い著者は取り込まない。
func convertPersons(persons []*gofeed.Person) []feed.Person {
	return lo.FilterMap(persons, func(p *gofeed.Person, _ int) (feed.Person, bool) {
		if p == nil || p.Name == "" {
			return feed.Person{}, false
		}
		return feed.Person{Name: p.Name, Email: p.Email}, true
	})
}

// convertCategories は分類語の列を変換する。
func convertCategories(terms []string) []feed.Category {
	return lo.Map(terms, func(term string, _ int) feed.Category {
		return feed.Category{Term: term}
	})
}

// pickTime は最初に見つかった時刻をUTCで返す。どれも無ければUnixエポック。
func pickTime(candidates ...*time.Time) time.Time {
	for _, t := range candidates {
		if t != nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}

// sanitizeHTML はSanitizerが設定されていればHTML本文を無害化する。
func sanitizeHTML(value string, opts Options) string {
	if opts.Sanitizer == nil {
		return value
	}
	return opts.Sanitizer.Sanitize(value)
}

// isHTTPURI はsがHTTPのURLかどうかを返す。
func isHTTPURI(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
