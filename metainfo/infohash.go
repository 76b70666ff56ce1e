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
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
)

// HashSize is the size of the SHA-1 hash.
const HashSize = sha1.Size

// Hash is a 20-byte SHA-1 digest, which identifies the info dictionary
// and the pieces of a torrent.
//
// The peer id has the same shape, so it is also represented by Hash.
type Hash [HashSize]byte

// NewRandomHash returns a hash filled by crypto/rand.
func NewRandomHash() (h Hash) {
	if _, err := rand.Read(h[:]); err != nil {
		panic(err)
	}
	return
}

// NewHash copies the first 20 bytes of b into a Hash.
//
// It panics if b is shorter than 20 bytes.
func NewHash(b []byte) Hash { return Hash(b[:HashSize]) }

// NewHashFromHexString parses the 40-char hex string, and panics if invalid.
func NewHashFromHexString(s string) (h Hash) {
	if err := h.FromHexString(s); err != nil {
		panic(err)
	}
	return
}

// NewHashFromBytes returns the SHA-1 digest of b.
func NewHashFromBytes(b []byte) Hash { return sha1.Sum(b) }

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// String is equal to HexString.
func (h Hash) String() string { return h.HexString() }

// BytesString returns the raw 20 bytes as a string.
func (h Hash) BytesString() string { return string(h[:]) }

// HexString returns the lowercase hex form.
func (h Hash) HexString() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether all the bytes are zero.
func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalBinary implements the interface encoding.BinaryMarshaler.
func (h Hash) MarshalBinary() ([]byte, error) { return h[:], nil }

// UnmarshalBinary implements the interface encoding.BinaryUnmarshaler.
func (h *Hash) UnmarshalBinary(b []byte) error {
	if len(b) != HashSize {
		return fmt.Errorf("invalid hash length: expect %d bytes, but got %d", HashSize, len(b))
	}
	*h = Hash(b)
	return nil
}

// FromHexString resets the hash from the 40-char hex string.
func (h *Hash) FromHexString(s string) error {
	if len(s) != hex.EncodedLen(HashSize) {
		return fmt.Errorf("invalid hash hex length %d", len(s))
	}
	_, err := hex.Decode(h[:], []byte(s))
	return err
}

var errHashesLength = errors.New("the length of 'pieces' is not a multiple of 20")

// Hashes is the list of the piece hashes, in the order of the pieces.
type Hashes []Hash

// NewHashes splits the concatenation of the 20-byte hashes.
func NewHashes(bs []byte) (Hashes, error) {
	if len(bs)%HashSize != 0 {
		return nil, errHashesLength
	}

	hs := make(Hashes, len(bs)/HashSize)
	for i := range hs {
		hs[i] = NewHash(bs[i*HashSize:])
	}
	return hs, nil
}

// Contains reports whether h is one of the hashes.
func (hs Hashes) Contains(h Hash) bool { return slices.Contains(hs, h) }

// Bytes returns the concatenation of the hashes, which is the form
// of the "pieces" key.
func (hs Hashes) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(len(hs) * HashSize)
	for i := range hs {
		buf.Write(hs[i][:])
	}
	return buf.Bytes()
}
