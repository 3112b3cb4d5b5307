package schema

// Entity はマージ時の同一性判定に使う識別子を持つ型を表す。
type Entity interface {
	// EntityID はマージのキーとなる識別子を返す。
	EntityID() string
}

// Mergeable は同じ論理エンティティの2つの版を1つへ突き合わせられる型を表す。
// レシーバが新しいセッションの値（self）、引数が古いセッションの値（other）。
// 単一値フィールドの既定はselfの保持で、otherからは欠けた情報だけを補う。
type Mergeable[T any] interface {
	Merge(other T)
}

// MergeOptional は省略可能フィールドを突き合わせる。
// 両方が存在すれば内側の値を再帰的にマージし、片方だけならそれを採用する。
func MergeOptional[T any, PT interface {
	*T
	Mergeable[T]
}](self, other *T) *T {
	switch {
	case self == nil:
		return other
	case other == nil:
		return self
	default:
		PT(self).Merge(*other)
		return self
	}
}

// MergeEntitySlice は識別子付きコレクションを和集合として突き合わせる。
// otherの各要素について、同じ識別子を持つ要素がselfにあれば既存要素へ
// マージし、なければ末尾へ追加する。結果の順序は初出順で安定している。
func MergeEntitySlice[T any, PT interface {
	*T
	Entity
	Mergeable[T]
}](self, other []T) []T {
	index := make(map[string]int, len(self))
	for i := range self {
		index[PT(&self[i]).EntityID()] = i
	}
	for i := range other {
		id := PT(&other[i]).EntityID()
		if j, ok := index[id]; ok {
			PT(&self[j]).Merge(other[i])
			continue
		}
		self = append(self, other[i])
		index[id] = len(self) - 1
	}
	return self
}
