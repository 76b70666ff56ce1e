// Copyright 2024 torrentox
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bencode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the shape of a bencoded value.
type Kind uint8

// Predefine the four kinds of the bencoded value.
const (
	Invalid Kind = iota
	Integer
	Bytes
	List
	Dict
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Bytes:
		return "byte string"
	case List:
		return "list"
	case Dict:
		return "dictionary"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a parsed bencoded value.
//
// A Value is immutable: the constructors copy their arguments and
// the accessors return copies, so it is safe to share between goroutines.
// The zero Value is Invalid.
type Value struct {
	kind Kind
	i    int64
	b    string // Bytes, the raw bytes are held in a string to stay immutable.
	list []Value
	dict map[string]Value
}

// NewInteger returns a new Integer value.
func NewInteger(i int64) Value { return Value{kind: Integer, i: i} }

// NewBytes returns a new Bytes value holding a copy of b.
func NewBytes(b []byte) Value { return Value{kind: Bytes, b: string(b)} }

// NewString returns a new Bytes value from the string s.
func NewString(s string) Value { return Value{kind: Bytes, b: s} }

// NewList returns a new List value holding a copy of vs.
func NewList(vs ...Value) Value {
	list := make([]Value, len(vs))
	copy(list, vs)
	return Value{kind: List, list: list}
}

// NewDict returns a new Dict value holding a copy of m.
func NewDict(m map[string]Value) Value {
	dict := make(map[string]Value, len(m))
	for k, v := range m {
		dict[k] = v
	}
	return Value{kind: Dict, dict: dict}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer if the value is an Integer.
func (v Value) Int() (i int64, ok bool) {
	if v.kind == Integer {
		return v.i, true
	}
	return
}

// Bytes returns a copy of the raw bytes if the value is a Bytes.
func (v Value) Bytes() (b []byte, ok bool) {
	if v.kind == Bytes {
		return []byte(v.b), true
	}
	return
}

// Str returns the raw bytes as a string if the value is a Bytes.
//
// The string is not validated as UTF-8.
func (v Value) Str() (s string, ok bool) {
	if v.kind == Bytes {
		return v.b, true
	}
	return
}

// List returns a copy of the elements if the value is a List.
func (v Value) List() (vs []Value, ok bool) {
	if v.kind == List {
		vs = make([]Value, len(v.list))
		copy(vs, v.list)
		return vs, true
	}
	return
}

// Len returns the number of the elements of a List or Dict,
// the number of the bytes of a Bytes, or 0 for others.
func (v Value) Len() int {
	switch v.kind {
	case Bytes:
		return len(v.b)
	case List:
		return len(v.list)
	case Dict:
		return len(v.dict)
	}
	return 0
}

// Lookup returns the value of the key if the value is a Dict.
func (v Value) Lookup(key string) (value Value, ok bool) {
	if v.kind == Dict {
		value, ok = v.dict[key]
	}
	return
}

// Keys returns the sorted keys if the value is a Dict.
func (v Value) Keys() []string {
	if v.kind != Dict {
		return nil
	}

	keys := make([]string, 0, len(v.dict))
	for k := range v.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether v and o have the same shape and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case Integer:
		return v.i == o.i
	case Bytes:
		return v.b == o.b
	case List:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case Dict:
		if len(v.dict) != len(o.dict) {
			return false
		}
		for k, ev := range v.dict {
			if ov, ok := o.dict[k]; !ok || !ev.Equal(ov) {
				return false
			}
		}
		return true
	}
	return true
}

// String returns a readable format of the value, which is used for debug.
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case Integer:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case Bytes:
		sb.WriteString(strconv.Quote(v.b))
	case List:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.format(sb)
		}
		sb.WriteByte(']')
	case Dict:
		sb.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteString(": ")
			v.dict[k].format(sb)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("<invalid>")
	}
}

// MarshalBinary implements the interface encoding.BinaryMarshaler,
// which returns the canonical encoding of the value.
func (v Value) MarshalBinary() ([]byte, error) {
	if v.kind == Invalid {
		return nil, errInvalidValue
	}
	return Serialize(v), nil
}

// UnmarshalBinary implements the interface encoding.BinaryUnmarshaler.
func (v *Value) UnmarshalBinary(data []byte) (err error) {
	*v, err = Parse(data)
	return
}
