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
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/torrentox/bt/metainfo"
)

// Handler is used to handle the incoming peer connection.
type Handler interface {
	// OnHandShake is called after the handshake has finished,
	// which may be used to send the bitfield to the peer.
	OnHandShake(conn *PeerConn) error

	// OnMessage is used to handle the incoming peer message.
	//
	// If requires, it should write the response to the peer.
	OnMessage(conn *PeerConn, msg Message) error

	// OnClose is called when the connection is closed, which may be used
	// to do some cleaning work by the handler.
	OnClose(conn *PeerConn)
}

// ServerConfig is used to configure the server.
type ServerConfig struct {
	Config

	// Lookup returns the number of the pieces of the torrent by the info hash,
	// and reports whether the torrent is served.
	//
	// It is required.
	Lookup func(infohash metainfo.Hash) (numPieces int, ok bool)

	// ErrorLog is used to log the error.
	//
	// Default: the Printf of Logger
	ErrorLog func(format string, args ...interface{})

	// HandleMessage is used to handle the incoming message. So you can
	// customize it to add the request queue.
	//
	// The default handler is to forward to handler.OnMessage(pc, msg).
	HandleMessage func(pc *PeerConn, msg Message, handler Handler) error
}

func (c *ServerConfig) set(conf ...ServerConfig) {
	if len(conf) > 0 {
		*c = conf[0]
	}

	c.Config.set(c.Config)
	if c.Lookup == nil {
		panic("ServerConfig: the Lookup function must not be nil")
	}
	if c.ErrorLog == nil {
		c.ErrorLog = c.Logger.Printf
	}
	if c.HandleMessage == nil {
		c.HandleMessage = func(pc *PeerConn, m Message, h Handler) error {
			return h.OnMessage(pc, m)
		}
	}
}

// Server is used to implement the peer protocol server,
// which accepts the handshakes of the served torrents.
type Server struct {
	ln net.Listener
	id metainfo.Hash
	h  Handler
	c  ServerConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServerByListen returns a new Server by listening on the address.
func NewServerByListen(network, address string, id metainfo.Hash, h Handler,
	c ServerConfig) (*Server, error) {
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	return NewServer(ln, id, h, c), nil
}

// NewServer returns a new Server.
func NewServer(ln net.Listener, id metainfo.Hash, h Handler, c ServerConfig) *Server {
	if id.IsZero() {
		panic("the peer node id must not be empty")
	}
	if h == nil {
		h = NoopHandler{}
	}

	var conf ServerConfig
	conf.set(c)
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ln: ln, id: id, h: h, c: conf, ctx: ctx, cancel: cancel}
}

// Addr returns the listening address of the server.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close closes the server and interrupts the pending handshakes.
func (s *Server) Close() error {
	s.cancel()
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

// Run starts the peer protocol server until it is closed.
func (s *Server) Run() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.ctx.Err() == nil {
				s.c.ErrorLog("fail to accept new connection: %s", err)
			}
			return
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	if err := s.handlePeerMessage(conn); err != nil {
		s.c.ErrorLog("%s", err)
	}
}

func (s *Server) handlePeerMessage(conn net.Conn) (err error) {
	var numPieces int
	local := NewHandshakeMsg(s.id, metainfo.Hash{})
	peer, err := AcceptHandshake(s.ctx, conn, local, s.c.ReadTimeout,
		func(m HandshakeMsg) (err error) {
			var ok bool
			if numPieces, ok = s.c.Lookup(m.InfoHash); !ok {
				err = fmt.Errorf("%w: %s", ErrUnknownInfoHash, m.InfoHash.HexString())
			}
			return
		})
	if err != nil {
		conn.Close()
		return
	}

	pc := NewPeerConn(s.id, conn, numPieces, s.c.Config)
	pc.Peer = peer
	defer pc.Close()

	if err = s.h.OnHandShake(pc); err != nil {
		return fmt.Errorf("handshake error with '%s': %w", pc.RemoteAddr().String(), err)
	}

	defer s.h.OnClose(pc)
	return s.loopRun(pc, s.h)
}

// LoopRun loops running Read-Handle message.
func (s *Server) loopRun(pc *PeerConn, handler Handler) error {
	stop := context.AfterFunc(s.ctx, func() { pc.Close() })
	defer stop()

	for {
		msg, err := pc.ReadMsg()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), s.ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("fail to decode the message from '%s': %w",
				pc.RemoteAddr().String(), err)
		}

		if err = s.c.HandleMessage(pc, msg, handler); err != nil {
			return fmt.Errorf("fail to handle peer message from '%s': %w",
				pc.RemoteAddr().String(), err)
		}
	}
}
