// Package sanitizer はフィード本文のHTMLコンテンツを無害化する機能を提供する。
//
// Sanitizer はフィード記事のHTMLをサニタイズし、
// XSS攻撃などのセキュリティリスクから閲覧者を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
// あわせて、抜粋表示のためのプレーンテキスト化と、
// 相対リンクの基底URIによる解決を提供する。
package sanitizer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hitoshi/feedvault/feed"
	"github.com/hitoshi/feedvault/mimetype"
)

// Sanitizer はHTMLコンテンツの無害化機能のインターフェースを定義する。
// フィード本文の保管前および表示用の変換時に使用される。
type Sanitizer interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// imgタグのsrc属性はhttpsスキームのみ許可される。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string

	// PlainText はHTMLから全てのタグを取り除いたプレーンテキストを返す。
	// scriptとstyle要素は中身ごと取り除かれ、文字参照は展開される。
	PlainText(rawHTML string) string

	// ResolveLinks はHTML中の相対リンクを基底URIで絶対URIに解決する。
	// aタグのhref属性とimgタグのsrc属性が対象になる。
	ResolveLinks(rawHTML string, baseURI string) (string, error)

	// RenderText はテキスト構成体を表示用の安全なHTMLに変換する。
	// プレーンテキストは文字参照にエスケープし、HTMLテキストはサニタイズする。
	RenderText(t feed.Text) string

	// RenderContent は本文を表示用の安全なHTMLに変換する。
	// baseURIが空でなければ、サニタイズの前に相対リンクを解決する。
	// テキスト系でないメディアタイプの本文はエラーになる。
	RenderContent(c feed.Content, baseURI string) (string, error)
}

// contentSanitizer はSanitizerの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はSanitizerの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - imgのsrc属性: httpsスキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 属性を持たない許可タグ。
	// script, iframe, style等は許可リストに含めないことで自動的に除去される。
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される。
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// aタグの設定:
	// - href属性を許可
	// - 相対URLは不許可（解決済みの絶対URIのみを保管する）
	// - target="_blank"を全リンクに強制付与
	// - rel="noreferrer noopener"を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// imgタグの設定:
	// - src属性はhttpsスキームのみ許可（http, javascript, data等は拒否）
	// - alt属性を許可
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// PlainText はHTMLから全てのタグを取り除いたプレーンテキストを返す。
// 閉じタグの欠けた文書でも、読み取れたところまでの本文を返す。
func (s *contentSanitizer) PlainText(rawHTML string) string {
	tok := html.NewTokenizer(strings.NewReader(rawHTML))
	var b strings.Builder
	hidden := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			// 入力の終端（またはトークン化の失敗）。
			return b.String()
		case html.TextToken:
			if hidden == 0 {
				b.Write(tok.Text())
			}
		case html.StartTagToken:
			if name, _ := tok.TagName(); isInvisibleElement(string(name)) {
				hidden++
			}
		case html.EndTagToken:
			if name, _ := tok.TagName(); isInvisibleElement(string(name)) && hidden > 0 {
				hidden--
			}
		}
	}
}

// isInvisibleElement は本文として表示されない要素かどうかを判定する。
func isInvisibleElement(name string) bool {
	return name == "script" || name == "style"
}

// ResolveLinks はHTML中の相対リンクを基底URIで絶対URIに解決する。
// 解釈できないURLを持つ属性はそのまま残す。
func (s *contentSanitizer) ResolveLinks(rawHTML string, baseURI string) (string, error) {
	base, err := url.Parse(baseURI)
	if err != nil {
		return "", fmt.Errorf("基底URIを解釈できません: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("HTML断片を解釈できません: %w", err)
	}

	rebase := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, sel *goquery.Selection) {
			value, ok := sel.Attr(attr)
			if !ok {
				return
			}
			ref, err := url.Parse(value)
			if err != nil {
				return
			}
			sel.SetAttr(attr, base.ResolveReference(ref).String())
		}
	}
	doc.Find("a[href]").Each(rebase("href"))
	doc.Find("img[src]").Each(rebase("src"))

	resolved, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("HTML断片を書き出せません: %w", err)
	}
	return resolved, nil
}

// RenderText はテキスト構成体を表示用の安全なHTMLに変換する。
func (s *contentSanitizer) RenderText(t feed.Text) string {
	if t.Type == feed.TextHTML {
		return s.Sanitize(t.Value)
	}
	return html.EscapeString(t.Value)
}

// RenderContent は本文を表示用の安全なHTMLに変換する。
func (s *contentSanitizer) RenderContent(c feed.Content, baseURI string) (string, error) {
	if !c.IsText() {
		return "", fmt.Errorf("メディアタイプ %s の本文は表示用に変換できません", c.Type)
	}
	if c.Type == mimetype.Text {
		return html.EscapeString(c.Value), nil
	}
	body := c.Value
	if baseURI != "" {
		resolved, err := s.ResolveLinks(body, baseURI)
		if err != nil {
			return "", err
		}
		body = resolved
	}
	return s.Sanitize(body), nil
}
