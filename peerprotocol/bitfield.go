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

package peerprotocol

import "math/bits"

// BitField is the availability of the pieces, one bit per piece,
// where the high bit of the first byte is the piece 0.
type BitField []uint8

// NewBitField returns a new cleared BitField to hold pieceNum pieces.
func NewBitField(pieceNum int) BitField {
	return make(BitField, (pieceNum+7)/8)
}

// NewBitFieldFromBools returns a new BitField, the bit i of which is set
// if bs[i] is true.
func NewBitFieldFromBools(bs []bool) BitField {
	bf := NewBitField(len(bs))
	for i := range bs {
		if bs[i] {
			bf.Set(uint32(i))
		}
	}
	return bf
}

func bitMask(index uint32) uint8 { return 0x80 >> (index & 7) }

// Bools returns the bits as a bool list, whose length is a multiple of 8.
func (bf BitField) Bools() []bool {
	bs := make([]bool, len(bf)*8)
	for i := range bs {
		bs[i] = bf.IsSet(uint32(i))
	}
	return bs
}

// Set sets the bit of the piece index.
func (bf BitField) Set(index uint32) { bf[index>>3] |= bitMask(index) }

// Unset clears the bit of the piece index.
func (bf BitField) Unset(index uint32) { bf[index>>3] &^= bitMask(index) }

// IsSet reports whether the bit of the piece index is set.
func (bf BitField) IsSet(index uint32) bool { return bf[index>>3]&bitMask(index) != 0 }

// Count returns the number of the set bits.
func (bf BitField) Count() (n int) {
	for _, b := range bf {
		n += bits.OnesCount8(b)
	}
	return
}
