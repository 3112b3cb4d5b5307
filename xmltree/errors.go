package xmltree

import "fmt"

// AttributeNotFoundError は必須属性が要素に存在しないことを表す。
type AttributeNotFoundError struct {
	// Name は見つからなかった属性のローカル名。
	Name string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("必須属性 %q が見つかりません", e.Name)
}
