package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/feedvault/feed"
	"github.com/hitoshi/feedvault/mimetype"
	"github.com/hitoshi/feedvault/sanitizer"
)

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>技術ブログ</title>
    <link>https://blog.example.com/</link>
    <description>日々の開発記録</description>
    <copyright>© Example</copyright>
    <item>
      <title>最初の記事</title>
      <link>https://blog.example.com/posts/1</link>
      <guid isPermaLink="false">urn:example:post/1</guid>
      <description>&lt;p&gt;こんにちは&lt;/p&gt;</description>
      <pubDate>Sat, 01 Feb 2025 12:00:00 GMT</pubDate>
      <category>go</category>
    </item>
    <item>
      <title>日付のない記事</title>
      <link>https://blog.example.com/posts/2</link>
    </item>
  </channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>開発日誌</title>
  <id>urn:example:devlog</id>
  <link rel="self" href="https://devlog.example.com/atom.xml"/>
  <link rel="alternate" href="https://devlog.example.com/"/>
  <updated>2025-02-01T12:00:00Z</updated>
  <author><name>市川仁</name></author>
  <entry>
    <title>進捗</title>
    <id>urn:example:devlog/1</id>
    <link href="https://devlog.example.com/1"/>
    <updated>2025-02-01T12:00:00Z</updated>
    <content type="html">&lt;p&gt;書いた&lt;/p&gt;</content>
  </entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	f, err := Parse(strings.NewReader(rssDoc))
	if err != nil {
		t.Fatalf("Parseに失敗: %v", err)
	}

	if f.ID != "https://blog.example.com/" {
		t.Errorf("フィードIDが不正: got %q", f.ID)
	}
	if f.Title.Value != "技術ブログ" {
		t.Errorf("タイトルが不正: got %q", f.Title.Value)
	}
	if f.Subtitle == nil || f.Subtitle.Value != "日々の開発記録" {
		t.Errorf("サブタイトルが不正: got %v", f.Subtitle)
	}
	if f.Rights == nil || f.Rights.Value != "© Example" {
		t.Errorf("権利表記が不正: got %v", f.Rights)
	}
	if len(f.Entries) != 2 {
		t.Fatalf("エントリ数が不正: got %d, want 2", len(f.Entries))
	}

	first := f.Entries[0]
	if first.ID != "urn:example:post/1" {
		t.Errorf("エントリIDが不正: got %q", first.ID)
	}
	published := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(published) {
		t.Errorf("公開時刻が不正: got %v, want %v", first.PublishedAt, published)
	}
	// updatedが無い場合はpublishedへフォールバックする
	if !first.UpdatedAt.Equal(published) {
		t.Errorf("更新時刻が不正: got %v, want %v", first.UpdatedAt, published)
	}
	if first.Summary == nil || first.Summary.Type != feed.TextHTML {
		t.Errorf("要約が不正: got %v", first.Summary)
	}
	if len(first.Links) != 1 || first.Links[0].URI != "https://blog.example.com/posts/1" {
		t.Errorf("リンクが不正: got %v", first.Links)
	}
	if len(first.Categories) != 1 || first.Categories[0].Term != "go" {
		t.Errorf("分類が不正: got %v", first.Categories)
	}

	second := f.Entries[1]
	// GUIDが無ければリンクをIDとして使う
	if second.ID != "https://blog.example.com/posts/2" {
		t.Errorf("エントリIDが不正: got %q", second.ID)
	}
	// 日付がまったく無ければUnixエポック
	if !second.UpdatedAt.Equal(time.Unix(0, 0).UTC()) {
		t.Errorf("更新時刻が不正: got %v", second.UpdatedAt)
	}
	if !second.PublishedAt.IsZero() {
		t.Errorf("公開時刻が不正: got %v", second.PublishedAt)
	}
}

func TestParse_Atom(t *testing.T) {
	f, err := Parse(strings.NewReader(atomDoc))
	if err != nil {
		t.Fatalf("Parseに失敗: %v", err)
	}

	// 自己参照リンクがフィードIDになる
	if f.ID != "https://devlog.example.com/atom.xml" {
		t.Errorf("フィードIDが不正: got %q", f.ID)
	}
	if f.Title.Value != "開発日誌" {
		t.Errorf("タイトルが不正: got %q", f.Title.Value)
	}
	updated := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	if !f.UpdatedAt.Equal(updated) {
		t.Errorf("更新時刻が不正: got %v, want %v", f.UpdatedAt, updated)
	}
	if len(f.Authors) != 1 || f.Authors[0].Name != "市川仁" {
		t.Errorf("著者が不正: got %v", f.Authors)
	}
	if len(f.Entries) != 1 {
		t.Fatalf("エントリ数が不正: got %d, want 1", len(f.Entries))
	}

	entry := f.Entries[0]
	if entry.ID != "urn:example:devlog/1" {
		t.Errorf("エントリIDが不正: got %q", entry.ID)
	}
	if entry.Content == nil {
		t.Fatal("本文がありません")
	}
	if entry.Content.Type != mimetype.HTML {
		t.Errorf("本文のメディアタイプが不正: got %v", entry.Content.Type)
	}
	if entry.Content.Value != "<p>書いた</p>" {
		t.Errorf("本文が不正: got %q", entry.Content.Value)
	}
}

func TestParseWith_FeedURI(t *testing.T) {
	// リンクを持たない文書からはIDを導出できない
	doc := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>無名のフィード</title>
    <description>リンクが無い</description>
  </channel>
</rss>`

	if _, err := Parse(strings.NewReader(doc)); err == nil {
		t.Error("ID無しのフィードがエラーになりませんでした")
	}

	f, err := ParseWith(strings.NewReader(doc), Options{FeedURI: "urn:example:unnamed"})
	if err != nil {
		t.Fatalf("ParseWithに失敗: %v", err)
	}
	if f.ID != "urn:example:unnamed" {
		t.Errorf("フィードIDが不正: got %q", f.ID)
	}
}

func TestParseWith_SanitizesHTML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>危険なフィード</title>
    <link>https://evil.example.com/</link>
    <item>
      <guid>urn:example:evil/1</guid>
      <title>混入</title>
      <description>&lt;p&gt;本文&lt;/p&gt;&lt;script&gt;alert(1)&lt;/script&gt;</description>
    </item>
  </channel>
</rss>`

	t.Run("Sanitizer指定でスクリプトが除去される", func(t *testing.T) {
		f, err := ParseWith(strings.NewReader(doc), Options{Sanitizer: sanitizer.NewContentSanitizer()})
		if err != nil {
			t.Fatalf("ParseWithに失敗: %v", err)
		}
		summary := f.Entries[0].Summary
		if summary == nil {
			t.Fatal("要約がありません")
		}
		if strings.Contains(summary.Value, "script") {
			t.Errorf("スクリプトが残っています: %q", summary.Value)
		}
		if !strings.Contains(summary.Value, "本文") {
			t.Errorf("本文が失われました: %q", summary.Value)
		}
	})

	t.Run("Sanitizer無指定では原文のまま", func(t *testing.T) {
		f, err := Parse(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("Parseに失敗: %v", err)
		}
		summary := f.Entries[0].Summary
		if summary == nil {
			t.Fatal("要約がありません")
		}
		if !strings.Contains(summary.Value, "<script>") {
			t.Errorf("原文が変更されています: %q", summary.Value)
		}
	})
}

func TestParse_InvalidDocument(t *testing.T) {
	if _, err := Parse(strings.NewReader("これはフィード文書ではない")); err == nil {
		t.Error("不正な文書がエラーになりませんでした")
	}
}
