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
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/torrentox/bt/metainfo"
)

// HandshakeLength is the length of the handshake message.
const HandshakeLength = 68

// ExtensionBits is the reserved bytes to be used by all extensions.
//
// BEP 10: The bit is counted starting at 0 from right to left.
type ExtensionBits [8]byte

// String returns the hex string format.
func (eb ExtensionBits) String() string {
	return hex.EncodeToString(eb[:])
}

// Set sets the bit to 1, that's, to set it to be on.
func (eb *ExtensionBits) Set(bit uint) {
	eb[7-bit/8] |= 1 << (bit % 8)
}

// Unset sets the bit to 0, that's, to set it to be off.
func (eb *ExtensionBits) Unset(bit uint) {
	eb[7-bit/8] &^= 1 << (bit % 8)
}

// IsSet reports whether the bit is on.
func (eb ExtensionBits) IsSet(bit uint) (yes bool) {
	return eb[7-bit/8]&(1<<(bit%8)) != 0
}

// HandshakeMsg is the message used by the handshake
type HandshakeMsg struct {
	ExtensionBits

	PeerID   metainfo.Hash
	InfoHash metainfo.Hash
}

// NewHandshakeMsg returns a new HandshakeMsg without any extension bit.
func NewHandshakeMsg(peerID, infoHash metainfo.Hash) HandshakeMsg {
	return HandshakeMsg{PeerID: peerID, InfoHash: infoHash}
}

// Bytes returns the 68-byte handshake message.
func (m HandshakeMsg) Bytes() (b [HandshakeLength]byte) {
	copy(b[:20], ProtocolHeader)
	copy(b[20:28], m.ExtensionBits[:])
	copy(b[28:48], m.InfoHash[:])
	copy(b[48:68], m.PeerID[:])
	return
}

// BuildHandshake returns the 68-byte handshake message with the zero
// reserved bytes.
//
// BEP 3
func BuildHandshake(infoHash, peerID metainfo.Hash) [HandshakeLength]byte {
	return NewHandshakeMsg(peerID, infoHash).Bytes()
}

// ParseHandshake parses the 68-byte handshake message.
func ParseHandshake(b []byte) (m HandshakeMsg, err error) {
	if len(b) != HandshakeLength {
		return m, fmt.Errorf("%w: expect %d bytes, but got %d", ErrInvalidLength, HandshakeLength, len(b))
	} else if string(b[:20]) != ProtocolHeader {
		return m, ErrProtocolMismatch
	}

	copy(m.ExtensionBits[:], b[20:28])
	copy(m.InfoHash[:], b[28:48])
	copy(m.PeerID[:], b[48:68])
	return
}

// Handshake finishes the handshake with the peer as the initiator,
// that's, sends the local handshake message, then reads the handshake
// message of the peer and checks that the info hashes are the same.
//
// The whole handshake must finish in timeout if it is greater than 0.
// If ctx is done, conn is closed immediately to interrupt the handshake.
// The returned error is a *HandshakeError.
//
// BEP 3
func Handshake(ctx context.Context, conn net.Conn, local HandshakeMsg,
	timeout time.Duration) (ret HandshakeMsg, err error) {
	err = withDeadline(ctx, conn, timeout, func() (err error) {
		if err = writeHandshake(conn, local); err != nil {
			return
		}
		if ret, err = readHandshake(conn); err != nil {
			return
		}
		if ret.InfoHash != local.InfoHash {
			return fmt.Errorf("%w: expect %s, but got %s", ErrInfoHashMismatch,
				local.InfoHash.HexString(), ret.InfoHash.HexString())
		}
		return
	})
	return
}

// AcceptHandshake finishes the handshake with the peer as the receiver,
// that's, reads the handshake message of the peer at first, then sends
// the local handshake message with the info hash of the peer back
// if accept returns nil.
func AcceptHandshake(ctx context.Context, conn net.Conn, local HandshakeMsg,
	timeout time.Duration, accept func(HandshakeMsg) error) (ret HandshakeMsg, err error) {
	err = withDeadline(ctx, conn, timeout, func() (err error) {
		if ret, err = readHandshake(conn); err != nil {
			return
		}
		if accept != nil {
			if err = accept(ret); err != nil {
				return
			}
		}

		local.InfoHash = ret.InfoHash
		return writeHandshake(conn, local)
	})
	return
}

func withDeadline(ctx context.Context, conn net.Conn, timeout time.Duration,
	f func() error) (err error) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if timeout > 0 {
		conn.SetDeadline(time.Now().Add(timeout))
		defer conn.SetDeadline(time.Time{})
	}

	if err = f(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		} else if isTimeout(err) {
			err = fmt.Errorf("%w: %s", ErrIOTimeout, err)
		}
		err = &HandshakeError{Addr: remoteAddr(conn), Err: err}
	}
	return
}

func writeHandshake(w io.Writer, m HandshakeMsg) (err error) {
	b := m.Bytes()
	n, err := w.Write(b[:])
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	return
}

func readHandshake(r io.Reader) (m HandshakeMsg, err error) {
	var b [HandshakeLength]byte
	if _, err = io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: short read", ErrInvalidLength)
		}
		return
	}
	return ParseHandshake(b[:])
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
