package model

import (
	"bytes"
	"encoding/json"
)

// Optional はJSONでキーが明示的に指定されたかどうかを保持する値ラッパー。
// キーが存在しない場合はSet=false（変更しない）、
// nullが指定された場合はSet=true, Null=true（値をクリアする）となる。
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some は値が指定されたOptionalを返す。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Null は明示的にnullが指定されたOptionalを返す。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON はキーが存在したことを記録してから値をデコードする。
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Present は値付きで指定されている場合にtrueを返す。
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}
