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
	"bufio"
	"bytes"
	"io"
	"strconv"
)

type writer interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
}

// Serialize returns the canonical encoding of v.
//
// An Invalid value, which may only be a zero Value, is encoded as nothing.
func Serialize(v Value) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 64))
	encode(buf, v)
	return buf.Bytes()
}

// WriteTo writes the canonical encoding of v into w.
func (v Value) WriteTo(w io.Writer) (n int64, err error) {
	cw := &countWriter{w: w}
	bw := bufio.NewWriter(cw)
	encode(bw, v)
	err = bw.Flush()
	return cw.n, err
}

type countWriter struct {
	w io.Writer
	n int64
}

func (w *countWriter) Write(p []byte) (n int, err error) {
	n, err = w.w.Write(p)
	w.n += int64(n)
	return
}

func encode(w writer, v Value) {
	switch v.kind {
	case Integer:
		w.WriteByte('i')
		w.WriteString(strconv.FormatInt(v.i, 10))
		w.WriteByte('e')
	case Bytes:
		encodeString(w, v.b)
	case List:
		w.WriteByte('l')
		for _, e := range v.list {
			encode(w, e)
		}
		w.WriteByte('e')
	case Dict:
		w.WriteByte('d')
		for _, k := range v.Keys() {
			encodeString(w, k)
			encode(w, v.dict[k])
		}
		w.WriteByte('e')
	}
}

func encodeString(w writer, s string) {
	w.WriteString(strconv.Itoa(len(s)))
	w.WriteByte(':')
	w.WriteString(s)
}
