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
	"net"
	"sync"

	"github.com/eyedeekay/sam3"
	"github.com/google/uuid"
	"github.com/torrentox/bt/utils"
)

// DefaultSAMAddr is the default address of the SAM bridge of the I2P router.
const DefaultSAMAddr = "127.0.0.1:7656"

// SAMDialer dials the I2P peers by the SAM bridge, and the other peers
// by Fallback.
//
// The stream session is created lazily on the first I2P dial,
// and shared by all the later dials.
type SAMDialer struct {
	// SAMAddr is the address of the SAM bridge. Default: DefaultSAMAddr
	SAMAddr string

	// Options is the options of the stream session. Default: sam3.Options_Small
	Options []string

	// Fallback is used to dial the non-I2P peers. Default: &net.Dialer{}
	Fallback Dialer

	lock    sync.Mutex
	sam     *sam3.SAM
	session *sam3.StreamSession
}

// NewSAMDialer returns a new SAMDialer.
func NewSAMDialer(samAddr string) *SAMDialer {
	if samAddr == "" {
		samAddr = DefaultSAMAddr
	}
	return &SAMDialer{SAMAddr: samAddr, Options: sam3.Options_Small, Fallback: &net.Dialer{}}
}

func (d *SAMDialer) streamSession() (*sam3.StreamSession, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.session != nil {
		return d.session, nil
	}

	sam, err := sam3.NewSAM(d.SAMAddr)
	if err != nil {
		return nil, err
	}

	keys, err := sam.NewKeys()
	if err != nil {
		sam.Close()
		return nil, err
	}

	options := d.Options
	if options == nil {
		options = sam3.Options_Small
	}

	session, err := sam.NewStreamSession(uuid.NewString(), keys, options)
	if err != nil {
		sam.Close()
		return nil, err
	}

	d.sam, d.session = sam, session
	return session, nil
}

// DialContext implements the interface Dialer.
//
// For the I2P address, the port is ignored.
func (d *SAMDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if !utils.IsI2PHost(addr) {
		fallback := d.Fallback
		if fallback == nil {
			fallback = &net.Dialer{}
		}
		return fallback.DialContext(ctx, network, addr)
	}

	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}

	session, err := d.streamSession()
	if err != nil {
		return nil, err
	}

	type result struct {
		conn net.Conn
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		conn, err := session.Dial("tcp", host)
		ch <- result{conn: conn, err: err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Close closes the stream session and the SAM connection.
func (d *SAMDialer) Close() (err error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.session != nil {
		err = d.session.Close()
		d.session = nil
	}
	if d.sam != nil {
		if e := d.sam.Close(); err == nil {
			err = e
		}
		d.sam = nil
	}
	return
}
