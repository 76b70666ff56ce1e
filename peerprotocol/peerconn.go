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
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/torrentox/bt/metainfo"
	"github.com/torrentox/bt/utils"
)

// Dialer is used to dial the peer, which is implemented by *net.Dialer
// and *SAMDialer.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DefaultMaxLength is the default maximum length of the message body,
// which holds a 128KiB block with the piece message header.
const DefaultMaxLength = 1<<17 + 13

// Config is used to configure the peer connection.
type Config struct {
	// ConnectTimeout is the timeout to connect to the peer.
	//
	// Default: 5s
	ConnectTimeout time.Duration

	// ReadTimeout is used to control the timeout of the handshake
	// and reading/writing the message.
	//
	// Default: 10s
	ReadTimeout time.Duration

	// MaxLength is used to limit the maximum number of the message body.
	//
	// Default: DefaultMaxLength
	MaxLength uint32

	// Logger is used to log the tolerated messages. Default: zerolog.Nop()
	Logger *zerolog.Logger
}

func (c *Config) set(conf ...Config) {
	if len(conf) > 0 {
		*c = conf[0]
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = time.Second * 5
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = time.Second * 10
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

// PeerConn is used to manage the connection to the peer.
type PeerConn struct {
	net.Conn

	// ID is the id of the local client peer.
	ID metainfo.Hash

	// Peer is the handshake message of the remote peer.
	Peer HandshakeMsg

	// State is the state of the remote peer.
	State *PeerState

	// Timeout is used to control the timeout of reading/writing the message.
	//
	// The default is 0, which represents no timeout.
	Timeout time.Duration

	// MaxLength is used to limit the maximum number of the message body.
	//
	// The default is 0, which represents no limit.
	MaxLength uint32

	logger *zerolog.Logger
	closed utils.Bool
}

// NewPeerConn returns a new PeerConn, the state of which holds numPieces pieces.
func NewPeerConn(id metainfo.Hash, conn net.Conn, numPieces int, conf ...Config) *PeerConn {
	var c Config
	c.set(conf...)
	return &PeerConn{
		Conn:      conn,
		ID:        id,
		State:     NewPeerState(numPieces),
		Timeout:   c.ReadTimeout,
		MaxLength: c.MaxLength,
		logger:    c.Logger,
	}
}

// DialHandshake dials the peer by dialer and finishes the handshake,
// then returns the connection owning the fresh state of the peer.
//
// If dialer is nil, use *net.Dialer. If failing, the connection is closed
// and the returned error is a *HandshakeError.
func DialHandshake(ctx context.Context, dialer Dialer, addr string, local HandshakeMsg,
	numPieces int, conf ...Config) (pc *PeerConn, err error) {
	var c Config
	c.set(conf...)
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	dctx, cancel := context.WithTimeout(ctx, c.ConnectTimeout)
	conn, err := dialer.DialContext(dctx, "tcp", addr)
	cancel()
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			err = fmt.Errorf("%w: %s", ErrIOTimeout, err)
		}
		return nil, &HandshakeError{Addr: addr, Err: err}
	}

	peer, err := Handshake(ctx, conn, local, c.ReadTimeout)
	if err != nil {
		conn.Close()
		return nil, err
	}

	pc = NewPeerConn(local.PeerID, conn, numPieces, c)
	pc.Peer = peer
	return
}

func (pc *PeerConn) setReadTimeout() {
	if pc.Timeout > 0 {
		pc.Conn.SetReadDeadline(time.Now().Add(pc.Timeout))
	}
}

func (pc *PeerConn) setWriteTimeout() {
	if pc.Timeout > 0 {
		pc.Conn.SetWriteDeadline(time.Now().Add(pc.Timeout))
	}
}

// Close closes the connection. It is safe to call it more than once.
func (pc *PeerConn) Close() (err error) {
	if pc.closed.SetTrueIfFalse() {
		err = pc.Conn.Close()
	}
	return
}

// IsClosed reports whether the connection has been closed.
func (pc *PeerConn) IsClosed() bool { return pc.closed.Get() }

// ReadMsg reads the message.
//
// BEP 3
func (pc *PeerConn) ReadMsg() (m Message, err error) {
	pc.setReadTimeout()
	err = m.Decode(pc.Conn, pc.MaxLength)
	return
}

// WriteMsg writes the message to the peer.
//
// BEP 3
func (pc *PeerConn) WriteMsg(m Message) (err error) {
	buf := bytes.NewBuffer(make([]byte, 0, 128))
	if err = m.Encode(buf); err == nil {
		pc.setWriteTimeout()

		var n int
		if n, err = pc.Conn.Write(buf.Bytes()); err == nil && n < buf.Len() {
			err = io.ErrShortWrite
		}
	}
	return
}

// SendKeepalive sends a Keepalive message to the peer.
//
// BEP 3
func (pc *PeerConn) SendKeepalive() error {
	return pc.WriteMsg(Message{Keepalive: true})
}

// SendInterested sends a Interested message to the peer.
//
// BEP 3
func (pc *PeerConn) SendInterested() error {
	return pc.WriteMsg(Message{Type: Interested})
}

// SendNotInterested sends a NotInterested message to the peer.
//
// BEP 3
func (pc *PeerConn) SendNotInterested() error {
	return pc.WriteMsg(Message{Type: NotInterested})
}

// SendBitfield sends a Bitfield message to the peer.
//
// BEP 3
func (pc *PeerConn) SendBitfield(bf BitField) error {
	return pc.WriteMsg(Message{Type: Bitfield, BitField: bf})
}

// SendHave sends a Have message to the peer.
//
// BEP 3
func (pc *PeerConn) SendHave(index uint32) error {
	return pc.WriteMsg(Message{Type: Have, Index: index})
}

// HandleMessage applies the message to the state of the peer.
//
// The out-of-range have index and the malformed bit field are tolerated,
// and only logged.
func (pc *PeerConn) HandleMessage(msg Message) {
	if msg.Keepalive {
		return
	}

	if !pc.State.Apply(msg) {
		switch msg.Type {
		case Have:
			pc.logger.Debug().Str("addr", remoteAddr(pc.Conn)).
				Uint32("index", msg.Index).Int("pieces", pc.State.NumPieces()).
				Msg("discard the out-of-range have message")
		case Bitfield:
			pc.logger.Debug().Str("addr", remoteAddr(pc.Conn)).
				Int("length", len(msg.BitField)).Int("pieces", pc.State.NumPieces()).
				Msg("tolerate the malformed bitfield message")
		}
	}
}
