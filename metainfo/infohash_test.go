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

import "testing"

func TestHash(t *testing.T) {
	hexHash := "0001020304050607080909080706050403020100"

	b, err := NewHashFromHexString(hexHash).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	var h Hash
	if err = h.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	} else if hexs := h.String(); hexs != hexHash {
		t.Errorf("expect '%s', but got '%s'", hexHash, hexs)
	}

	if err = h.UnmarshalBinary(b[:19]); err == nil {
		t.Errorf("expect an error for 19 bytes, but got nil")
	}
	if err = h.FromHexString("0001"); err == nil {
		t.Errorf("expect an error for the short hex string, but got nil")
	}

	if h = (Hash{}); !h.IsZero() {
		t.Errorf("expect the zero hash")
	}
	if h = NewRandomHash(); h.IsZero() {
		t.Errorf("unexpected zero random hash")
	}
	if s := NewHash(b).BytesString(); s != string(b) {
		t.Errorf("expect bytes string %q, but got %q", b, s)
	}
}

func TestNewHashFromBytes(t *testing.T) {
	// SHA1("abc")
	expect := "a9993e364706816aba3e25717850c26c9cd0d89d"
	if h := NewHashFromBytes([]byte("abc")); h.HexString() != expect {
		t.Errorf("expect '%s', but got '%s'", expect, h.HexString())
	}
}

func TestHashes(t *testing.T) {
	hexHash1 := "0101010101010101010101010101010101010101"
	hexHash2 := "0202020202020202020202020202020202020202"

	data := append(NewHashFromHexString(hexHash1).Bytes(), NewHashFromHexString(hexHash2).Bytes()...)
	hashes, err := NewHashes(data)
	if err != nil {
		t.Fatal(err)
	} else if len(hashes) != 2 {
		t.Fatalf("expect %d hashes, but got %d", 2, len(hashes))
	}

	if hashes[0].HexString() != hexHash1 || hashes[1].HexString() != hexHash2 {
		t.Errorf("unexpected hashes %v", hashes)
	}
	if !hashes.Contains(NewHashFromHexString(hexHash2)) {
		t.Errorf("expect hashes to contain %s", hexHash2)
	}
	if hashes.Contains(Hash{}) {
		t.Errorf("unexpected zero hash in hashes")
	}

	if _, err = NewHashes(data[:39]); err == nil {
		t.Errorf("expect an error for 39 bytes, but got nil")
	}
	if hashes, err = NewHashes(nil); err != nil || len(hashes) != 0 {
		t.Errorf("expect no hashes, but got %v, %v", hashes, err)
	}
}

func TestHashesBytes(t *testing.T) {
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}

	hashes, err := NewHashes(data)
	if err != nil {
		t.Fatal(err)
	} else if string(hashes.Bytes()) != string(data) {
		t.Errorf("expect %x, but got %x", data, hashes.Bytes())
	}
}
