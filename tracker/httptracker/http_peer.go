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

package httptracker

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/eyedeekay/i2pkeys"
	"github.com/torrentox/bt/metainfo"
	"github.com/zeebo/bencode"
)

// I2PDestHashSize is the size of the I2P destination hash
// in the compact peer list of the I2P trackers.
const I2PDestHashSize = 32

// DefaultI2PPort is the port used by the I2P peers,
// since the compact I2P peer list carries no port.
const DefaultI2PPort = 6881

// Peer is a tracker peer.
type Peer struct {
	// IP is the IP address, or the "<base32>.b32.i2p" address for I2P.
	IP   string
	Port uint16
}

// IsI2P reports whether the peer is an I2P destination.
func (p Peer) IsI2P() bool { return strings.HasSuffix(p.IP, ".i2p") }

func (p Peer) String() string {
	return net.JoinHostPort(p.IP, strconv.FormatUint(uint64(p.Port), 10))
}

// Peers is a set of the peers.
type Peers []Peer

// ParseCompactPeers parses the compact peer list, each record of which
// is 4 bytes of IPv4 and 2 bytes of big-endian port.
//
// The peers keep the order of the records in b.
func ParseCompactPeers(b []byte) (Peers, error) {
	var addrs metainfo.CompactIPv4Addrs
	if err := addrs.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPeerList, err)
	}

	peers := make(Peers, len(addrs))
	for i, addr := range addrs {
		peers[i] = Peer{IP: addr.IP.String(), Port: addr.Port}
	}
	return peers, nil
}

// ParseI2PPeers parses the compact I2P peer list, each record of which is
// the 32-byte destination hash. All the peers use the given port.
func ParseI2PPeers(b []byte, port uint16) (Peers, error) {
	_len := len(b)
	if _len%I2PDestHashSize != 0 {
		return nil, fmt.Errorf("%w: invalid i2p peers length '%d'", ErrMalformedPeerList, _len)
	}

	peers := make(Peers, 0, _len/I2PDestHashSize)
	for i := 0; i < _len; i += I2PDestHashSize {
		hash, err := i2pkeys.DestHashFromBytes(b[i : i+I2PDestHashSize])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedPeerList, err)
		}
		peers = append(peers, Peer{IP: hash.String(), Port: port})
	}
	return peers, nil
}

// MarshalBinary encodes the IPv4 peers into the compact peer list.
func (ps Peers) MarshalBinary() ([]byte, error) {
	addrs := make(metainfo.CompactIPv4Addrs, len(ps))
	for i, p := range ps {
		ip := net.ParseIP(p.IP)
		if ip == nil {
			return nil, fmt.Errorf("invalid peer ip '%s'", p.IP)
		}
		addrs[i] = metainfo.NewCompactAddr(ip, p.Port)
	}
	return addrs.MarshalBinary()
}

// decodePeers decodes the raw bencoded "peers" value.
//
// Only the compact form is supported, and the list of dictionaries
// is rejected with ErrMalformedPeerList.
func decodePeers(raw bencode.RawMessage, i2p bool, i2pPort uint16) (Peers, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var v interface{}
	if err := bencode.DecodeBytes(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPeerList, err)
	}

	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expect a compact byte string, but got %T", ErrMalformedPeerList, v)
	}

	if i2p {
		return ParseI2PPeers([]byte(s), i2pPort)
	}
	return ParseCompactPeers([]byte(s))
}
