// Package xmltree はXMLイベントストリームを入れ子のカーソルとして辿るリーダーを提供する。
//
// encoding/xml のプルパーサーが返すフラットなイベント列を、要素ごとに
// スコープされた子カーソルとして公開する。子カーソルを途中で放棄しても、
// 親カーソルの次の前進時に残りのイベントが終了タグまで自動的に読み捨てられ、
// ストリームの位置は常に正しい兄弟要素へ同期される。
//
// 文書全体を木として構築することはなく、要素は辿った分だけ読み込まれる。
package xmltree

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// EventKind はイベントの種別を表す。
type EventKind int

const (
	// EventChild は子要素の開始。EventのElementに要素が入る。
	EventChild EventKind = iota + 1
	// EventText はテキスト（CDATA含む）。
	EventText
	// EventComment はコメント。
	EventComment
	// EventProcInst は処理命令。
	EventProcInst
	// EventDirective はディレクティブ（DOCTYPE等）。
	EventDirective
)

// Event は現在のスコープ内で発生した1つのイベントを表す。
type Event struct {
	Kind    EventKind
	Element *Element // Kind == EventChild のとき非nil
	Text    string   // テキスト・コメント・ディレクティブの内容
	Target  string   // Kind == EventProcInst のときの対象
}

// Element は開始タグ1つ分の要素を表す。
// 名前空間解決済みの名前と属性、および子イベントへのカーソルを保持する。
type Element struct {
	Name  xml.Name
	Attrs []xml.Attr

	children *Reader
}

// Children は要素の内容を辿るカーソルを返す。
// スコープの終端（この要素の終了タグ）でio.EOFを返すReaderである。
func (e *Element) Children() *Reader { return e.children }

// Attr はローカル名が一致する最初の属性値を返す。
func (e *Element) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// RequireAttr はローカル名が一致する属性値を返す。
// 属性が存在しない場合は*AttributeNotFoundErrorを返す。
func (e *Element) RequireAttr(local string) (string, error) {
	v, ok := e.Attr(local)
	if !ok {
		return "", &AttributeNotFoundError{Name: local}
	}
	return v, nil
}

// ReadWholeText は要素直下のテキストをすべて連結して返す。
// 入れ子の子要素には降りず、その内容は読み捨てられる。
// 呼び出し後、カーソルは要素の終端に達している。
func (e *Element) ReadWholeText() (string, error) {
	var sb strings.Builder
	for {
		ev, err := e.children.Next()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if ev.Kind == EventText {
			sb.WriteString(ev.Text)
		}
	}
}

// Skip は要素の残りの内容を終了タグまで読み捨てる。
func (e *Element) Skip() error { return e.children.drain() }

// Reader は1つのスコープ（文書全体、または1要素の内容）のイベントカーソル。
// 並行利用には対応しない。
type Reader struct {
	dec     *xml.Decoder
	root    bool
	done    bool
	pending *Reader // 直前に返した子要素の未消費カーソル
}

// NewReader は文書全体をスコープとするReaderを生成する。
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r), root: true}
}

// Next はスコープ内の次のイベントを返す。
// スコープの終端（要素の終了タグまたは文書末尾）に達した場合はio.EOFを返す。
//
// 直前に返した子要素のカーソルが消費されないまま残っている場合、
// まずその子要素を終了タグまで読み捨ててから前進する。したがって
// 子要素を途中まで読んで放棄しても、次のNextは正しい兄弟要素を返す。
func (r *Reader) Next() (Event, error) {
	if r.done {
		return Event{}, io.EOF
	}
	if r.pending != nil {
		if err := r.pending.drain(); err != nil {
			r.done = true
			return Event{}, err
		}
		r.pending = nil
	}
	for {
		tok, err := r.dec.Token()
		if err != nil {
			r.done = true
			return Event{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child := &Reader{dec: r.dec}
			el := &Element{
				Name:     t.Name,
				Attrs:    append([]xml.Attr(nil), t.Attr...),
				children: child,
			}
			r.pending = child
			return Event{Kind: EventChild, Element: el}, nil
		case xml.EndElement:
			r.done = true
			return Event{}, io.EOF
		case xml.CharData:
			return Event{Kind: EventText, Text: string(t)}, nil
		case xml.Comment:
			return Event{Kind: EventComment, Text: string(t)}, nil
		case xml.ProcInst:
			return Event{Kind: EventProcInst, Target: t.Target, Text: string(t.Inst)}, nil
		case xml.Directive:
			return Event{Kind: EventDirective, Text: string(t)}, nil
		}
	}
}

// drain はスコープの残りを終了タグまで読み捨てる。
// 深さは反復をまたいで数えるため、入れ子の子孫要素もまとめて消費される。
func (r *Reader) drain() error {
	if r.done {
		return nil
	}
	if r.pending != nil {
		if err := r.pending.drain(); err != nil {
			r.done = true
			return err
		}
		r.pending = nil
	}
	depth := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			r.done = true
			if r.root && errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				r.done = true
				return nil
			}
			depth--
		}
	}
}
