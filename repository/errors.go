package repository

import "fmt"

// NotFoundError はキーに対応する内容が存在しないことを表す。
type NotFoundError struct {
	Key []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("キー %q に対応する内容がありません", JoinKey(e.Key))
}

// InvalidKeyError は形式が不正なキー、またはストレージが受け付けないキーを表す。
type InvalidKeyError struct {
	Key   []string
	Cause error
}

func (e *InvalidKeyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("キー %q が不正です: %s", JoinKey(e.Key), e.Cause)
	}
	return fmt.Sprintf("キー %q が不正です", JoinKey(e.Key))
}

func (e *InvalidKeyError) Unwrap() error {
	return e.Cause
}

// NotADirectoryError はディレクトリとして扱えないパスを表す。
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("%s はディレクトリではありません", e.Path)
}

// InvalidURLError は保管先として解釈できないURLを表す。
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("リポジトリURL %q を解釈できません: %s", e.URL, e.Reason)
}
