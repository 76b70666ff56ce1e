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

package peerprotocol

import (
	"testing"

	"github.com/bradfitz/iter"
)

func TestNewPeerState(t *testing.T) {
	s := NewPeerState(10)
	if !s.Choked || s.Interested {
		t.Errorf("expect choked and not interested, but got %+v", s)
	}
	if s.NumPieces() != 10 || s.Count() != 0 {
		t.Errorf("unexpected state %+v", s)
	}
	for i := range iter.N(10) {
		if s.HasPiece(uint32(i)) {
			t.Errorf("unexpected piece %d", i)
		}
	}
}

func TestPeerStateHave(t *testing.T) {
	s := NewPeerState(10)
	if !s.UpdateHave(3) || !s.HasPiece(3) {
		t.Errorf("expect the piece %d", 3)
	}

	if s.UpdateHave(10) || s.HasPiece(10) {
		t.Errorf("unexpected the out-of-range piece %d", 10)
	}
	if s.UpdateHave(1 << 20) {
		t.Errorf("unexpected the out-of-range piece %d", 1<<20)
	}
	if s.Count() != 1 {
		t.Errorf("expect %d piece, but got %d", 1, s.Count())
	}
}

func TestPeerStateBitfield(t *testing.T) {
	s := NewPeerState(10)

	// 0xC0 0x40: the pieces 0, 1 and 9.
	if !s.UpdateBitfield([]byte{0xC0, 0x40}) {
		t.Errorf("expect the exact bit field")
	}
	for i := range iter.N(10) {
		expect := i == 0 || i == 1 || i == 9
		if s.HasPiece(uint32(i)) != expect {
			t.Errorf("piece %d: expect %v, but got %v", i, expect, !expect)
		}
	}

	// The spare bits are discarded.
	if s.UpdateBitfield([]byte{0x80, 0x7F}) {
		t.Errorf("expect the inexact bit field")
	}
	if s.Count() != 2 || !s.HasPiece(0) || !s.HasPiece(9) {
		t.Errorf("unexpected bit field %08b", s.BitField())
	}

	// The short bit field leaves the missing pieces clear.
	if s.UpdateBitfield([]byte{0xFF}) {
		t.Errorf("expect the inexact bit field")
	}
	if s.Count() != 8 || s.HasPiece(8) {
		t.Errorf("unexpected bit field %08b", s.BitField())
	}

	bf := s.BitField()
	bf.Set(9)
	if s.HasPiece(9) {
		t.Errorf("BitField must return a copy")
	}
}

func TestPeerStateApply(t *testing.T) {
	s := NewPeerState(4)

	steps := []struct {
		msg        Message
		applied    bool
		choked     bool
		interested bool
	}{
		{Message{Type: Unchoke}, true, false, false},
		{Message{Type: Interested}, true, false, true},
		{Message{Type: Choke}, true, true, true},
		{Message{Type: NotInterested}, true, true, false},
		{Message{Keepalive: true}, false, true, false},
		{Message{Type: Request}, false, true, false},
		{Message{Type: Have, Index: 2}, true, true, false},
		{Message{Type: Have, Index: 4}, false, true, false},
	}

	for i, step := range steps {
		if applied := s.Apply(step.msg); applied != step.applied {
			t.Errorf("%d: expect applied %v, but got %v", i, step.applied, applied)
		}
		if s.Choked != step.choked || s.Interested != step.interested {
			t.Errorf("%d: expect choked=%v interested=%v, but got choked=%v interested=%v",
				i, step.choked, step.interested, s.Choked, s.Interested)
		}
	}

	if !s.HasPiece(2) || s.Count() != 1 {
		t.Errorf("unexpected bit field %08b", s.BitField())
	}

	s.Apply(Message{Type: Bitfield, BitField: BitField{0xF0}})
	if s.Count() != 4 {
		t.Errorf("expect %d pieces, but got %d", 4, s.Count())
	}
}
