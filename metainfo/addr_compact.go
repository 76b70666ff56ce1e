// Copyright 2023 xgfone, 2024 torrentox
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

package metainfo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// CompactIPv4AddrSize is the size of a compact IPv4 address and port.
const CompactIPv4AddrSize = net.IPv4len + 2

// ErrInvalidAddr is returned when the compact address is invalid.
var ErrInvalidAddr = errors.New("invalid compact information of ip and port")

// CompactAddr is the "Compact IP-address/port info" of BEP 23, that's,
// the ip in network order followed by the big-endian port.
type CompactAddr struct {
	IP   net.IP
	Port uint16
}

// NewCompactAddr returns a new CompactAddr.
func NewCompactAddr(ip net.IP, port uint16) CompactAddr {
	return CompactAddr{IP: ip, Port: port}
}

// Equal reports whether a and o are the same endpoint.
func (a CompactAddr) Equal(o CompactAddr) bool {
	return a.Port == o.Port && a.IP.Equal(o.IP)
}

func (a CompactAddr) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
}

// AppendBinary appends the compact form of the address to b.
//
// The IPv4 address is always appended in the 4-byte form.
func (a CompactAddr) AppendBinary(b []byte) ([]byte, error) {
	ip := a.IP
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	} else if len(ip) != net.IPv6len {
		return b, ErrInvalidAddr
	}
	return binary.BigEndian.AppendUint16(append(b, ip...), a.Port), nil
}

// MarshalBinary implements the interface encoding.BinaryMarshaler.
func (a CompactAddr) MarshalBinary() ([]byte, error) {
	return a.AppendBinary(make([]byte, 0, net.IPv6len+2))
}

// UnmarshalBinary implements the interface encoding.BinaryUnmarshaler,
// which accepts the 6-byte IPv4 or 18-byte IPv6 form.
func (a *CompactAddr) UnmarshalBinary(data []byte) error {
	iplen := len(data) - 2
	if iplen != net.IPv4len && iplen != net.IPv6len {
		return ErrInvalidAddr
	}

	a.IP = append(net.IP(nil), data[:iplen]...)
	a.Port = binary.BigEndian.Uint16(data[iplen:])
	return nil
}

// CompactIPv4Addrs is the concatenation of the 6-byte compact IPv4 addresses,
// which is used by the compact peer list of the tracker.
type CompactIPv4Addrs []CompactAddr

// MarshalBinary implements the interface encoding.BinaryMarshaler.
//
// It returns ErrInvalidAddr if any address is not IPv4.
func (cas CompactIPv4Addrs) MarshalBinary() (data []byte, err error) {
	data = make([]byte, 0, CompactIPv4AddrSize*len(cas))
	for _, addr := range cas {
		if addr.IP.To4() == nil {
			return nil, fmt.Errorf("%w: '%s' is not IPv4", ErrInvalidAddr, addr.IP)
		}
		if data, err = addr.AppendBinary(data); err != nil {
			return nil, err
		}
	}
	return
}

// UnmarshalBinary implements the interface encoding.BinaryUnmarshaler.
//
// The addresses keep the order in b.
func (cas *CompactIPv4Addrs) UnmarshalBinary(b []byte) error {
	if len(b)%CompactIPv4AddrSize != 0 {
		return fmt.Errorf("%w: the length %d is not a multiple of %d",
			ErrInvalidAddr, len(b), CompactIPv4AddrSize)
	}

	addrs := make(CompactIPv4Addrs, len(b)/CompactIPv4AddrSize)
	for i := range addrs {
		rec := b[i*CompactIPv4AddrSize:]
		addrs[i].IP = net.IPv4(rec[0], rec[1], rec[2], rec[3]).To4()
		addrs[i].Port = binary.BigEndian.Uint16(rec[net.IPv4len:])
	}

	*cas = addrs
	return nil
}
