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

import "strconv"

// ProtocolHeader is the length byte 19 followed by the protocol string,
// which starts every handshake.
//
// BEP 3
const ProtocolHeader = "\x13BitTorrent protocol"

// MessageType is the one-byte id following the length prefix of a message.
type MessageType byte

// The message types of BEP 3, plus Port of BEP 5.
const (
	Choke MessageType = iota
	Unchoke
	Interested
	NotInterested
	Have
	Bitfield
	Request
	Piece
	Cancel
	Port
)

var messageTypeNames = [...]string{
	Choke:         "Choke",
	Unchoke:       "Unchoke",
	Interested:    "Interested",
	NotInterested: "NotInterested",
	Have:          "Have",
	Bitfield:      "Bitfield",
	Request:       "Request",
	Piece:         "Piece",
	Cancel:        "Cancel",
	Port:          "Port",
}

func (mt MessageType) String() string {
	if int(mt) < len(messageTypeNames) {
		return messageTypeNames[mt]
	}
	return "MessageType(" + strconv.Itoa(int(mt)) + ")"
}

// payloadLength returns the length of the payload after the type byte,
// or -1 if it is variable.
//
// For Piece, it is the minimum length, that's, index and begin.
func (mt MessageType) payloadLength() int {
	switch mt {
	case Choke, Unchoke, Interested, NotInterested:
		return 0
	case Have:
		return 4
	case Request, Cancel:
		return 12
	case Port:
		return 2
	case Piece:
		return 8
	}
	return -1
}
