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
	"errors"
	"fmt"
	"io"
	"strconv"
)

// MaxDepth is the maximum nesting depth of the lists and dictionaries.
const MaxDepth = 512

// ErrMalformed is the error kind of all the structural violations,
// which is matched by errors.Is for any *SyntaxError.
var ErrMalformed = errors.New("malformed bencode")

var errInvalidValue = errors.New("bencode: invalid value")

// SyntaxError is returned when the input is not a valid bencoding.
type SyntaxError struct {
	Offset int64 // The offset of the input where the violation was found.
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d", e.Msg, e.Offset)
}

// Unwrap returns ErrMalformed.
func (e *SyntaxError) Unwrap() error { return ErrMalformed }

// Parse parses the bencoded data, which must contain exactly one value.
func Parse(data []byte) (v Value, err error) {
	p := parser{data: data}
	if v, err = p.value(); err != nil {
		return Value{}, err
	} else if p.pos != len(p.data) {
		return Value{}, p.errorf(p.pos, "unexpected trailing data")
	}
	return
}

// ParseString is equal to Parse([]byte(s)).
func ParseString(s string) (Value, error) { return Parse([]byte(s)) }

// ParseReader reads all the data from r and parses it.
func ParseReader(r io.Reader) (v Value, err error) {
	data, err := io.ReadAll(r)
	if err == nil {
		v, err = Parse(data)
	}
	return
}

type parser struct {
	data  []byte
	pos   int
	depth int
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return &SyntaxError{Offset: int64(pos), Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) value() (v Value, err error) {
	if p.pos >= len(p.data) {
		return v, p.errorf(p.pos, "unexpected end of input")
	}

	switch c := p.data[p.pos]; {
	case c == 'i':
		return p.integer()
	case c == 'l':
		return p.list()
	case c == 'd':
		return p.dict()
	case c >= '0' && c <= '9':
		var s string
		if s, err = p.bytes(); err == nil {
			v = Value{kind: Bytes, b: s}
		}
		return
	default:
		return v, p.errorf(p.pos, "invalid value type %q", c)
	}
}

func (p *parser) integer() (v Value, err error) {
	start := p.pos
	p.pos++ // 'i'

	end := p.pos
	for end < len(p.data) && p.data[end] != 'e' {
		end++
	}
	if end >= len(p.data) {
		return v, p.errorf(start, "unterminated integer")
	}

	digits := p.data[p.pos:end]
	if err = checkInteger(digits); err != nil {
		return v, p.errorf(p.pos, "%s", err.Error())
	}

	i, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return v, p.errorf(p.pos, "integer %q out of range", digits)
	}

	p.pos = end + 1
	return NewInteger(i), nil
}

func checkInteger(digits []byte) error {
	neg := len(digits) > 0 && digits[0] == '-'
	if neg {
		digits = digits[1:]
	}

	switch _len := len(digits); {
	case _len == 0:
		return errors.New("empty integer")
	case digits[0] == '0' && _len > 1:
		return errors.New("integer has leading zeros")
	case neg && digits[0] == '0':
		return errors.New("negative zero")
	}

	for _, c := range digits {
		if c < '0' || c > '9' {
			return fmt.Errorf("non-numeric integer character %q", c)
		}
	}
	return nil
}

func (p *parser) bytes() (s string, err error) {
	start := p.pos
	colon := p.pos
	for colon < len(p.data) && p.data[colon] != ':' {
		c := p.data[colon]
		if c < '0' || c > '9' {
			return "", p.errorf(colon, "invalid byte string length character %q", c)
		}
		colon++
	}

	if colon >= len(p.data) {
		return "", p.errorf(start, "unterminated byte string length")
	} else if colon == start {
		return "", p.errorf(start, "missing byte string length")
	} else if p.data[start] == '0' && colon-start > 1 {
		return "", p.errorf(start, "byte string length has leading zeros")
	}

	n, err := strconv.ParseInt(string(p.data[start:colon]), 10, 64)
	if err != nil {
		return "", p.errorf(start, "byte string length out of range")
	}

	begin := colon + 1
	if n > int64(len(p.data)-begin) {
		return "", p.errorf(start, "byte string length %d exceeds the remaining %d bytes",
			n, len(p.data)-begin)
	}

	p.pos = begin + int(n)
	return string(p.data[begin:p.pos]), nil
}

func (p *parser) enter(start int) error {
	if p.depth++; p.depth > MaxDepth {
		return p.errorf(start, "nesting exceeds the maximum depth %d", MaxDepth)
	}
	return nil
}

func (p *parser) list() (v Value, err error) {
	start := p.pos
	if err = p.enter(start); err != nil {
		return
	}
	defer func() { p.depth-- }()

	p.pos++ // 'l'
	list := make([]Value, 0, 4)
	for {
		if p.pos >= len(p.data) {
			return v, p.errorf(start, "unterminated list")
		} else if p.data[p.pos] == 'e' {
			p.pos++
			return Value{kind: List, list: list}, nil
		}

		var e Value
		if e, err = p.value(); err != nil {
			return
		}
		list = append(list, e)
	}
}

func (p *parser) dict() (v Value, err error) {
	start := p.pos
	if err = p.enter(start); err != nil {
		return
	}
	defer func() { p.depth-- }()

	p.pos++ // 'd'
	dict := make(map[string]Value, 8)
	for {
		if p.pos >= len(p.data) {
			return v, p.errorf(start, "unterminated dictionary")
		}

		c := p.data[p.pos]
		if c == 'e' {
			p.pos++
			return Value{kind: Dict, dict: dict}, nil
		} else if c < '0' || c > '9' {
			return v, p.errorf(p.pos, "dictionary key is not a byte string")
		}

		keyPos := p.pos
		key, err := p.bytes()
		if err != nil {
			return v, err
		} else if _, ok := dict[key]; ok {
			return v, p.errorf(keyPos, "duplicate dictionary key %q", key)
		}

		if p.pos >= len(p.data) {
			return v, p.errorf(start, "missing value for dictionary key %q", key)
		}

		value, err := p.value()
		if err != nil {
			return v, err
		}
		dict[key] = value
	}
}
