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

// Package metainfo implements the .torrent file, that's, the metainfo
// with the content-addressed info hash.
package metainfo

import (
	"io"
	"os"

	"github.com/torrentox/bt/bencode"
)

// MetaInfo represents the .torrent file.
//
// It is immutable after being parsed, so it may be shared by the tracker
// and all the peer connections of the torrent.
type MetaInfo struct {
	// Announce is the tracker url. HasAnnounce reports whether it is present.
	Announce    string // BEP 3
	HasAnnounce bool

	// Info is the typed "info" dictionary.
	Info Info // BEP 3

	// InfoHash is the SHA1 hash of InfoBytes.
	InfoHash Hash

	// InfoBytes is the canonical encoding of the "info" dictionary
	// as found in the source document.
	InfoBytes []byte
}

// Parse parses the bencoded .torrent document.
//
// The info hash is computed over the canonical encoding of the raw "info"
// value, not over the typed Info, so the fields unknown by Info are also
// covered by the hash.
func Parse(data []byte) (mi MetaInfo, err error) {
	root, err := bencode.Parse(data)
	if err != nil {
		return mi, &ParseError{Kind: ErrMalformedEncoding, Err: err}
	} else if root.Kind() != bencode.Dict {
		return mi, typeMismatch("", "expect a dictionary, but got a %s", root.Kind())
	}

	infoValue, ok := root.Lookup("info")
	if !ok {
		return mi, missingField("info")
	} else if infoValue.Kind() != bencode.Dict {
		return mi, typeMismatch("info", "expect a dictionary, but got a %s", infoValue.Kind())
	}

	mi.InfoBytes = bencode.Serialize(infoValue)
	mi.InfoHash = NewHashFromBytes(mi.InfoBytes)

	if av, ok := root.Lookup("announce"); ok {
		if mi.Announce, err = decodeText("announce", av); err != nil {
			return MetaInfo{}, err
		}
		mi.HasAnnounce = true
	}

	if mi.Info, err = decodeInfo(infoValue); err != nil {
		return MetaInfo{}, err
	}

	return
}

// Load loads a MetaInfo from an io.Reader.
func Load(r io.Reader) (mi MetaInfo, err error) {
	data, err := io.ReadAll(r)
	if err == nil {
		mi, err = Parse(data)
	}
	return
}

// LoadFromFile loads a MetaInfo from a file.
func LoadFromFile(filename string) (mi MetaInfo, err error) {
	f, err := os.Open(filename)
	if err == nil {
		defer f.Close()
		mi, err = Load(f)
	}
	return
}

// TotalLength returns the total length of the torrent content.
func (mi MetaInfo) TotalLength() uint64 { return mi.Info.TotalLength() }

// Name returns the name of the info, or def if absent.
func (mi MetaInfo) Name(def string) string {
	if mi.Info.HasName && mi.Info.Name != "" {
		return mi.Info.Name
	}
	return def
}
