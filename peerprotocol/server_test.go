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
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/torrentox/bt/metainfo"
)

type bitfieldHandler struct {
	NoopHandler
	bitfield BitField

	lock     sync.Mutex
	messages []Message
}

func (h *bitfieldHandler) OnHandShake(pc *PeerConn) error {
	return pc.SendBitfield(h.bitfield)
}

func (h *bitfieldHandler) OnMessage(pc *PeerConn, msg Message) error {
	h.lock.Lock()
	h.messages = append(h.messages, msg)
	h.lock.Unlock()
	return h.NoopHandler.OnMessage(pc, msg)
}

func (h *bitfieldHandler) Messages() []Message {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]Message(nil), h.messages...)
}

func newTestServer(t *testing.T, infohash metainfo.Hash, h Handler) *Server {
	s, err := NewServerByListen("tcp", "127.0.0.1:0", testHash(0xAA), h, ServerConfig{
		ErrorLog: func(string, ...interface{}) {},
		Lookup: func(ih metainfo.Hash) (int, bool) {
			return 10, ih == infohash
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	go s.Run()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDialHandshake(t *testing.T) {
	infohash := testHash(1)
	handler := &bitfieldHandler{bitfield: BitField{0xC0, 0x40}}
	server := newTestServer(t, infohash, handler)

	local := NewHandshakeMsg(testHash(2), infohash)
	pc, err := DialHandshake(context.Background(), nil, server.Addr().String(), local, 10,
		Config{ConnectTimeout: time.Second, ReadTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	if pc.Peer.PeerID != testHash(0xAA) || pc.Peer.InfoHash != infohash {
		t.Errorf("unexpected peer handshake %+v", pc.Peer)
	}
	if !pc.State.Choked || pc.State.Interested || pc.State.Count() != 0 {
		t.Errorf("expect the fresh peer state, but got %+v", pc.State)
	}

	msg, err := pc.ReadMsg()
	if err != nil {
		t.Fatal(err)
	} else if msg.Type != Bitfield {
		t.Fatalf("expect the bitfield message, but got %s", msg.Type)
	}

	pc.HandleMessage(msg)
	if pc.State.Count() != 3 || !pc.State.HasPiece(9) {
		t.Errorf("unexpected bit field %08b", pc.State.BitField())
	}

	if err = pc.SendInterested(); err != nil {
		t.Fatal(err)
	}
	if err = pc.SendHave(3); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for len(handler.Messages()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond * 10)
	}

	if msgs := handler.Messages(); len(msgs) != 2 {
		t.Errorf("expect %d messages, but got %d", 2, len(msgs))
	} else if msgs[0].Type != Interested || msgs[1].Type != Have || msgs[1].Index != 3 {
		t.Errorf("unexpected messages %+v", msgs)
	}

	if err = pc.Close(); err != nil {
		t.Error(err)
	} else if !pc.IsClosed() {
		t.Errorf("expect the connection to be closed")
	} else if err = pc.Close(); err != nil {
		t.Errorf("expect the second close to be no-op, but got %v", err)
	}
}

func TestDialHandshakeUnknownInfoHash(t *testing.T) {
	server := newTestServer(t, testHash(1), nil)

	local := NewHandshakeMsg(testHash(2), testHash(9))
	_, err := DialHandshake(context.Background(), nil, server.Addr().String(), local, 10,
		Config{ConnectTimeout: time.Second, ReadTimeout: time.Second})

	var he *HandshakeError
	if !errors.As(err, &he) {
		t.Errorf("expect a HandshakeError, but got %v", err)
	}
}

func TestDialHandshakeRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	local := NewHandshakeMsg(testHash(2), testHash(1))
	_, err = DialHandshake(context.Background(), nil, addr, local, 10)

	var he *HandshakeError
	if !errors.As(err, &he) {
		t.Errorf("expect a HandshakeError, but got %v", err)
	} else if he.Addr != addr {
		t.Errorf("expect the address '%s', but got '%s'", addr, he.Addr)
	}
}

func TestServerClose(t *testing.T) {
	server := newTestServer(t, testHash(1), nil)

	// The peer connects, but never sends the handshake.
	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	time.Sleep(time.Millisecond * 20)

	done := make(chan struct{})
	go func() { server.Close(); close(done) }()

	select {
	case <-done:
	case <-time.After(time.Second * 3):
		t.Errorf("the server does not interrupt the pending handshake")
	}
}

func TestSAMDialerFallback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		if conn, err := ln.Accept(); err == nil {
			conn.Close()
		}
	}()

	dialer := NewSAMDialer("")
	defer dialer.Close()

	if dialer.SAMAddr != DefaultSAMAddr {
		t.Errorf("expect the SAM address '%s', but got '%s'", DefaultSAMAddr, dialer.SAMAddr)
	}

	conn, err := dialer.DialContext(context.Background(), "tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()
}

func TestPeerConnMessageTooLong(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	infohash := testHash(1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		local := NewHandshakeMsg(testHash(3), metainfo.Hash{})
		if _, err = AcceptHandshake(context.Background(), conn, local, time.Second, nil); err != nil {
			return
		}

		// Declare a 1GiB message, but send only one byte of it.
		conn.Write([]byte{0x40, 0, 0, 0, byte(Piece)})
		time.Sleep(time.Millisecond * 100)
	}()

	local := NewHandshakeMsg(testHash(2), infohash)
	pc, err := DialHandshake(context.Background(), nil, ln.Addr().String(), local, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	if pc.MaxLength != DefaultMaxLength {
		t.Errorf("expect the max length %d, but got %d", DefaultMaxLength, pc.MaxLength)
	}
	if _, err = pc.ReadMsg(); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("expect ErrMessageTooLong, but got %v", err)
	}
}

type noAddrConn struct{ net.Conn }

func (noAddrConn) RemoteAddr() net.Addr { return nil }

func TestPeerConnHandleMessageNoRemoteAddr(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	pc := NewPeerConn(testHash(2), noAddrConn{c1}, 4)
	pc.HandleMessage(Message{Type: Have, Index: 10})
	pc.HandleMessage(Message{Type: Bitfield, BitField: BitField{0xFF}})

	if pc.State.HasPiece(10) || pc.State.Count() != 4 {
		t.Errorf("unexpected bit field %08b", pc.State.BitField())
	}
}
