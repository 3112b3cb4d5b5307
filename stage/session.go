package stage

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// sessionIDPattern はセッションIDに使える文字の形式。
// 先頭のドットを禁止することでキー区画として安全に使える。
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// Session は1つの書き込み主体を識別する。同じフィードでも
// セッションごとに別の文書として保管され、読み出し時に統合される。
type Session struct {
	ID string
}

// NewSession は新しいセッションを生成する。
func NewSession() Session {
	return Session{ID: uuid.NewString()}
}

// ParseSession は既存のセッションIDを検証して受け取る。
func ParseSession(id string) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("セッションIDが空です")
	}
	if !sessionIDPattern.MatchString(id) {
		return Session{}, fmt.Errorf("セッションID %q に使用できない文字が含まれています", id)
	}
	return Session{ID: id}, nil
}

// filename はこのセッションの文書のキー区画名を返す。
func (s Session) filename() string {
	return s.ID + ".xml"
}
