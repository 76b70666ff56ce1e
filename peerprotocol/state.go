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

// PeerState is the state of the remote peer, that's, whether it chokes
// the local client, whether it is interested in the local client, and
// which pieces it has.
//
// It is owned by one connection and not safe for the concurrent use.
type PeerState struct {
	// Choked reports whether the remote peer has choked the local client.
	Choked bool

	// Interested reports whether the remote peer is interested in
	// the pieces of the local client.
	Interested bool

	bitfield  BitField
	numPieces int
}

// NewPeerState returns a new PeerState of the torrent with numPieces pieces,
// which is choked and not interested, and has no piece.
func NewPeerState(numPieces int) *PeerState {
	if numPieces < 0 {
		numPieces = 0
	}
	return &PeerState{
		Choked:    true,
		bitfield:  NewBitField(numPieces),
		numPieces: numPieces,
	}
}

// NumPieces returns the number of the pieces of the torrent.
func (s *PeerState) NumPieces() int { return s.numPieces }

// HasPiece reports whether the peer has the piece.
//
// It returns false if index is out of range.
func (s *PeerState) HasPiece(index uint32) bool {
	return int64(index) < int64(s.numPieces) && s.bitfield.IsSet(index)
}

// Count returns the number of the pieces which the peer has.
func (s *PeerState) Count() int { return s.bitfield.Count() }

// BitField returns a copy of the bit field.
func (s *PeerState) BitField() BitField {
	return append(BitField(nil), s.bitfield...)
}

// UpdateHave marks the piece as held by the peer, and reports whether
// index is in range. The out-of-range index is discarded.
func (s *PeerState) UpdateHave(index uint32) (ok bool) {
	if ok = int64(index) < int64(s.numPieces); ok {
		s.bitfield.Set(index)
	}
	return
}

// UpdateBitfield replaces the bit field with b, which is packed with
// the most significant bit first.
//
// Only the first NumPieces bits are used, and the missing bits are clear.
// It reports whether b has exactly the expected length without the spare
// bits set.
func (s *PeerState) UpdateBitfield(b []byte) (exact bool) {
	bf := NewBitField(s.numPieces)
	copy(bf, b)
	exact = len(b) == len(bf)

	if r := s.numPieces % 8; r != 0 && len(b) >= len(bf) {
		last := len(bf) - 1
		if bf[last]&^(0xFF<<(8-r)) != 0 {
			exact = false
		}
		bf[last] &= 0xFF << (8 - r)
	}

	s.bitfield = bf
	return
}

// Apply updates the state by the message, and reports whether the message
// has been applied wholly.
//
// It returns false for the out-of-range have index, the malformed bit field,
// or the message type which does not change the state.
func (s *PeerState) Apply(m Message) bool {
	if m.Keepalive {
		return false
	}

	switch m.Type {
	case Choke:
		s.Choked = true
	case Unchoke:
		s.Choked = false
	case Interested:
		s.Interested = true
	case NotInterested:
		s.Interested = false
	case Have:
		return s.UpdateHave(m.Index)
	case Bitfield:
		return s.UpdateBitfield(m.BitField)
	default:
		return false
	}
	return true
}
