// Copyright 2020 xgfone, 2024 torrentox
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

package metainfo

import (
	"fmt"
	"path/filepath"

	"github.com/torrentox/bt/bencode"
)

// File represents a file in the multi-file case.
type File struct {
	// Length is the length of the file in bytes.
	Length uint64 // BEP 3

	// Paths is a list containing one or more string elements that together
	// represent the path and filename. Each element in the list corresponds
	// to either a directory name or (in the case of the final element) the
	// filename.
	//
	// For example, a the file "dir1/dir2/file.ext" would consist of three
	// string elements: "dir1", "dir2", and "file.ext". This is encoded as
	// a bencoded list of strings such as l4:dir14:dir28:file.exte.
	//
	// Notice: the elements are the raw bytes and not validated as UTF-8.
	Paths []string // BEP 3
}

func (f File) String() string {
	return filepath.Join(f.Paths...)
}

func decodeFile(index int, v bencode.Value) (f File, err error) {
	field := fmt.Sprintf("info.files[%d]", index)
	if v.Kind() != bencode.Dict {
		return f, typeMismatch(field, "expect a dictionary, but got a %s", v.Kind())
	}

	lv, ok := v.Lookup("length")
	if !ok {
		return f, missingField(field + ".length")
	}
	if f.Length, err = decodeLength(field+".length", lv); err != nil {
		return
	}

	pv, ok := v.Lookup("path")
	if !ok {
		return f, missingField(field + ".path")
	}

	segments, ok := pv.List()
	if !ok {
		return f, typeMismatch(field+".path", "expect a list, but got a %s", pv.Kind())
	}

	f.Paths = make([]string, len(segments))
	for i, seg := range segments {
		if f.Paths[i], ok = seg.Str(); !ok {
			return f, typeMismatch(fmt.Sprintf("%s.path[%d]", field, i),
				"expect a byte string, but got a %s", seg.Kind())
		}
	}

	return
}

func decodeLength(field string, v bencode.Value) (uint64, error) {
	i, ok := v.Int()
	if !ok {
		return 0, typeMismatch(field, "expect an integer, but got a %s", v.Kind())
	} else if i < 0 {
		return 0, typeMismatch(field, "negative length %d", i)
	}
	return uint64(i), nil
}
