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
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/torrentox/bt/metainfo"
)

func testHash(b byte) (h metainfo.Hash) {
	for i := range h {
		h[i] = b
	}
	return
}

func TestBuildHandshake(t *testing.T) {
	infohash, peerid := testHash(1), testHash(2)
	b := BuildHandshake(infohash, peerid)

	if b[0] != 19 {
		t.Errorf("expect the first byte %d, but got %d", 19, b[0])
	}
	if s := string(b[1:20]); s != "BitTorrent protocol" {
		t.Errorf("unexpected protocol string '%s'", s)
	}
	if !bytes.Equal(b[20:28], make([]byte, 8)) {
		t.Errorf("expect the zero reserved bytes, but got %x", b[20:28])
	}
	if !bytes.Equal(b[28:48], infohash[:]) || !bytes.Equal(b[48:68], peerid[:]) {
		t.Errorf("unexpected handshake %x", b)
	}

	m, err := ParseHandshake(b[:])
	if err != nil {
		t.Fatal(err)
	} else if m.InfoHash != infohash || m.PeerID != peerid {
		t.Errorf("unexpected handshake message %+v", m)
	}
}

func TestParseHandshakeErrors(t *testing.T) {
	b := BuildHandshake(testHash(1), testHash(2))

	if _, err := ParseHandshake(b[:67]); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expect ErrInvalidLength, but got %v", err)
	}
	if _, err := ParseHandshake(append(b[:], 0)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("expect ErrInvalidLength, but got %v", err)
	}

	bad := b
	bad[0] = 18
	if _, err := ParseHandshake(bad[:]); !errors.Is(err, ErrProtocolMismatch) {
		t.Errorf("expect ErrProtocolMismatch, but got %v", err)
	}

	bad = b
	bad[5] = 'X'
	if _, err := ParseHandshake(bad[:]); !errors.Is(err, ErrProtocolMismatch) {
		t.Errorf("expect ErrProtocolMismatch, but got %v", err)
	}
}

func TestExtensionBits(t *testing.T) {
	var eb ExtensionBits
	eb.Set(20)
	if !eb.IsSet(20) || eb.String() != "0000000000100000" {
		t.Errorf("unexpected extension bits %s", eb)
	}
	eb.Unset(20)
	if eb.IsSet(20) {
		t.Errorf("unexpected extension bits %s", eb)
	}
}

func TestHandshake(t *testing.T) {
	infohash := testHash(1)
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	errc := make(chan error, 1)
	go func() {
		local := NewHandshakeMsg(testHash(3), metainfo.Hash{})
		m, err := AcceptHandshake(context.Background(), c2, local, time.Second,
			func(m HandshakeMsg) error { return nil })
		if err == nil && m.InfoHash != infohash {
			err = errors.New("unexpected info hash")
		}
		errc <- err
	}()

	m, err := Handshake(context.Background(), c1, NewHandshakeMsg(testHash(2), infohash), time.Second)
	if err != nil {
		t.Fatal(err)
	} else if m.PeerID != testHash(3) || m.InfoHash != infohash {
		t.Errorf("unexpected handshake message %+v", m)
	}

	if err = <-errc; err != nil {
		t.Error(err)
	}
}

func TestHandshakeInfoHashMismatch(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	go func() {
		var b [HandshakeLength]byte
		if _, err := c2.Read(b[:]); err == nil {
			resp := BuildHandshake(testHash(9), testHash(3))
			c2.Write(resp[:])
		}
	}()

	_, err := Handshake(context.Background(), c1, NewHandshakeMsg(testHash(2), testHash(1)), time.Second)
	if !errors.Is(err, ErrInfoHashMismatch) {
		t.Errorf("expect ErrInfoHashMismatch, but got %v", err)
	}

	var he *HandshakeError
	if !errors.As(err, &he) {
		t.Errorf("expect a HandshakeError, but got %T", err)
	}
}

func TestHandshakeTimeout(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	// The peer reads the handshake, but never responds.
	go func() {
		var b [HandshakeLength]byte
		c2.Read(b[:])
	}()

	start := time.Now()
	_, err := Handshake(context.Background(), c1, NewHandshakeMsg(testHash(2), testHash(1)),
		time.Millisecond*50)
	if !errors.Is(err, ErrIOTimeout) {
		t.Errorf("expect ErrIOTimeout, but got %v", err)
	} else if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("the handshake takes too long: %s", elapsed)
	}
}

func TestHandshakeShortRead(t *testing.T) {
	for _, n := range []int{30, 0} {
		c1, c2 := net.Pipe()

		go func(n int) {
			var b [HandshakeLength]byte
			if _, err := c2.Read(b[:]); err == nil && n > 0 {
				resp := BuildHandshake(testHash(1), testHash(3))
				c2.Write(resp[:n])
			}
			c2.Close()
		}(n)

		_, err := Handshake(context.Background(), c1, NewHandshakeMsg(testHash(2), testHash(1)), time.Second)
		if !errors.Is(err, ErrInvalidLength) {
			t.Errorf("%d bytes: expect ErrInvalidLength, but got %v", n, err)
		}
		c1.Close()
	}
}

func TestHandshakeCancel(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(time.Millisecond*50, cancel)

	// Nobody reads from c2, so the write blocks until the context is canceled.
	_, err := Handshake(ctx, c1, NewHandshakeMsg(testHash(2), testHash(1)), 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expect context.Canceled, but got %v", err)
	}

	if _, err = c1.Write([]byte{1}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("expect the connection to be closed, but got %v", err)
	}
}

func TestAcceptHandshakeReject(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := AcceptHandshake(context.Background(), c2, NewHandshakeMsg(testHash(3), metainfo.Hash{}),
			time.Second, func(HandshakeMsg) error { return ErrUnknownInfoHash })
		c2.Close()
		errc <- err
	}()

	if _, err := Handshake(context.Background(), c1, NewHandshakeMsg(testHash(2), testHash(1)), time.Second); err == nil {
		t.Errorf("expect an error, but got nil")
	}
	if err := <-errc; !errors.Is(err, ErrUnknownInfoHash) {
		t.Errorf("expect ErrUnknownInfoHash, but got %v", err)
	}
}
