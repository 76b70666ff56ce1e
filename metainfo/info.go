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
	"unicode/utf8"

	"github.com/torrentox/bt/bencode"
)

// Layout is the file layout of the torrent, which is either SingleFile
// or MultiFile.
type Layout interface {
	TotalLength() uint64
	isLayout()
}

// SingleFile is the layout of the single file case.
type SingleFile struct {
	Length uint64
}

// TotalLength returns the length of the file.
func (l SingleFile) TotalLength() uint64 { return l.Length }
func (SingleFile) isLayout()             {}

// MultiFile is the layout of the multi-file case.
//
// For the purposes of the other keys, the multi-file case is treated
// as only having a single file by concatenating the files in the order
// they appear in the files list.
type MultiFile struct {
	Files []File
}

// TotalLength returns the sum of the lengths of all the files.
func (l MultiFile) TotalLength() (ret uint64) {
	for _, f := range l.Files {
		ret += f.Length
	}
	return
}
func (MultiFile) isLayout() {}

// Info is the file inforatino.
type Info struct {
	// Name is the name of the file in the single file case.
	// Or, it is the name of the directory in the muliple file case.
	//
	// HasName reports whether the "name" key is present.
	Name    string // BEP 3
	HasName bool

	// PieceLength is the number of bytes in each piece, which is usually
	// a power of 2. It is always positive.
	PieceLength int64 // BEP 3

	// MetaVersion is the "meta version" key, which is optional.
	MetaVersion    int64 // BEP 52
	HasMetaVersion bool

	// Pieces is the concatenation of all 20-byte SHA1 hash values,
	// one per piece. It may be empty if the key is absent.
	Pieces Hashes // BEP 3

	// Layout is either SingleFile or MultiFile, never nil for a parsed Info.
	Layout Layout // BEP 3
}

// IsDir reports whether the name is a directory, that's, the file is not
// a single file.
func (info Info) IsDir() bool {
	_, ok := info.Layout.(MultiFile)
	return ok
}

// TotalLength returns the total length of the torrent file.
func (info Info) TotalLength() uint64 {
	if info.Layout == nil {
		return 0
	}
	return info.Layout.TotalLength()
}

// CountPieces returns the number of the pieces.
//
// If "pieces" is absent, it is calculated by the total length
// and the piece length.
func (info Info) CountPieces() int {
	if len(info.Pieces) > 0 {
		return len(info.Pieces)
	} else if info.PieceLength <= 0 {
		return 0
	}

	total := info.TotalLength()
	plen := uint64(info.PieceLength)
	return int((total + plen - 1) / plen)
}

// AllFiles returns all the files.
//
// Notice: for the single file, the Paths is the name.
func (info Info) AllFiles() []File {
	switch l := info.Layout.(type) {
	case MultiFile:
		return l.Files
	case SingleFile:
		return []File{{Length: l.Length, Paths: []string{info.Name}}}
	}
	return nil
}

func decodeInfo(v bencode.Value) (info Info, err error) {
	if nv, ok := v.Lookup("name"); ok {
		if info.Name, err = decodeText("info.name", nv); err != nil {
			return
		}
		info.HasName = true
	}

	plv, ok := v.Lookup("piece length")
	if !ok {
		return info, missingField("info.piece length")
	} else if info.PieceLength, ok = plv.Int(); !ok {
		return info, typeMismatch("info.piece length", "expect an integer, but got a %s", plv.Kind())
	} else if info.PieceLength <= 0 {
		return info, typeMismatch("info.piece length", "expect a positive integer, but got %d", info.PieceLength)
	}

	if mv, ok := v.Lookup("meta version"); ok {
		if info.MetaVersion, ok = mv.Int(); !ok {
			return info, typeMismatch("info.meta version", "expect an integer, but got a %s", mv.Kind())
		}
		info.HasMetaVersion = true
	}

	if pv, ok := v.Lookup("pieces"); ok {
		bs, ok := pv.Bytes()
		if !ok {
			return info, typeMismatch("info.pieces", "expect a byte string, but got a %s", pv.Kind())
		}
		if info.Pieces, err = NewHashes(bs); err != nil {
			return info, &ParseError{Kind: ErrTypeMismatch, Field: "info.pieces", Err: err}
		}
	}

	info.Layout, err = decodeLayout(v)
	return
}

func decodeLayout(v bencode.Value) (Layout, error) {
	lv, hasLength := v.Lookup("length")
	fv, hasFiles := v.Lookup("files")

	switch {
	case hasLength && hasFiles:
		return nil, &ParseError{Kind: ErrAmbiguousLayout, Field: "info"}
	case !hasLength && !hasFiles:
		return nil, &ParseError{Kind: ErrMissingLayout, Field: "info"}
	case hasLength:
		length, err := decodeLength("info.length", lv)
		if err != nil {
			return nil, err
		}
		return SingleFile{Length: length}, nil
	}

	entries, ok := fv.List()
	if !ok {
		return nil, typeMismatch("info.files", "expect a list, but got a %s", fv.Kind())
	}

	files := make([]File, len(entries))
	for i, entry := range entries {
		f, err := decodeFile(i, entry)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}
	return MultiFile{Files: files}, nil
}

func decodeText(field string, v bencode.Value) (string, error) {
	s, ok := v.Str()
	if !ok {
		return "", typeMismatch(field, "expect a byte string, but got a %s", v.Kind())
	} else if !utf8.ValidString(s) {
		return "", &ParseError{Kind: ErrInvalidUTF8, Field: field}
	}
	return s, nil
}
