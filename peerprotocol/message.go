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

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Message is a length-prefixed peer message.
//
// Only the fields of its Type are used, and a Keepalive message
// has neither type nor payload.
type Message struct {
	Keepalive bool
	Type      MessageType

	Index  uint32 // Have, Request, Cancel, Piece
	Begin  uint32 // Request, Cancel, Piece
	Length uint32 // Request, Cancel

	Piece    []byte   // Piece
	BitField BitField // Bitfield
	Port     uint16   // Port, BEP 5

	// UnknownTypePayload is the raw payload of an unknown message type.
	UnknownTypePayload []byte
}

// DecodeToMessage is equal to msg.Decode(r, maxLength).
func DecodeToMessage(r io.Reader, maxLength uint32) (msg Message, err error) {
	err = msg.Decode(r, maxLength)
	return
}

// UnmarshalBinary implements the interface encoding.BinaryUnmarshaler.
func (m *Message) UnmarshalBinary(data []byte) error {
	return m.Decode(bytes.NewReader(data), 0)
}

// Decode reads a message from r.
//
// maxLength limits the length of the message body, and 0 is unlimited.
// It returns io.EOF only if r ends before the message starts.
func (m *Message) Decode(r io.Reader, maxLength uint32) (err error) {
	var prefix [4]byte
	if _, err = io.ReadFull(r, prefix[:]); err != nil {
		if err != io.EOF {
			err = fmt.Errorf("error reading peer message length: %w", err)
		}
		return
	}

	*m = Message{}
	length := binary.BigEndian.Uint32(prefix[:])
	if length == 0 {
		m.Keepalive = true
		return
	} else if maxLength > 0 && length > maxLength {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLong, length, maxLength)
	}

	body := make([]byte, length)
	if _, err = io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("error reading peer message body: %w", err)
	}

	m.Type = MessageType(body[0])
	return m.decodePayload(body[1:])
}

func (m *Message) decodePayload(p []byte) error {
	switch want := m.Type.payloadLength(); {
	case want < 0:
	case m.Type == Piece && len(p) >= want:
	case len(p) != want:
		return fmt.Errorf("%w: %s with %d bytes", ErrMessageLength, m.Type, len(p))
	}

	be := binary.BigEndian
	switch m.Type {
	case Choke, Unchoke, Interested, NotInterested:
	case Have:
		m.Index = be.Uint32(p)
	case Request, Cancel:
		m.Index, m.Begin, m.Length = be.Uint32(p), be.Uint32(p[4:]), be.Uint32(p[8:])
	case Piece:
		m.Index, m.Begin = be.Uint32(p), be.Uint32(p[4:])
		m.Piece = p[8:]
	case Bitfield:
		m.BitField = BitField(p)
	case Port:
		m.Port = be.Uint16(p)
	default:
		m.UnknownTypePayload = p
	}
	return nil
}

// AppendBinary appends the encoded message with the length prefix to b.
func (m Message) AppendBinary(b []byte) []byte {
	if m.Keepalive {
		return append(b, 0, 0, 0, 0)
	}

	start := len(b)
	b = append(b, 0, 0, 0, 0, byte(m.Type))

	be := binary.BigEndian
	switch m.Type {
	case Choke, Unchoke, Interested, NotInterested:
	case Have:
		b = be.AppendUint32(b, m.Index)
	case Request, Cancel:
		b = be.AppendUint32(be.AppendUint32(be.AppendUint32(b, m.Index), m.Begin), m.Length)
	case Piece:
		b = append(be.AppendUint32(be.AppendUint32(b, m.Index), m.Begin), m.Piece...)
	case Bitfield:
		b = append(b, m.BitField...)
	case Port:
		b = be.AppendUint16(b, m.Port)
	default:
		b = append(b, m.UnknownTypePayload...)
	}

	be.PutUint32(b[start:], uint32(len(b)-start-4))
	return b
}

// MarshalBinary implements the interface encoding.BinaryMarshaler.
func (m Message) MarshalBinary() ([]byte, error) {
	return m.AppendBinary(nil), nil
}

// Encode resets buf and writes the encoded message into it.
func (m Message) Encode(buf *bytes.Buffer) error {
	buf.Reset()
	_, err := buf.Write(m.AppendBinary(buf.AvailableBuffer()))
	return err
}
