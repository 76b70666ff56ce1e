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
	"errors"
	"fmt"
)

// Predefine some errors of the handshake, which are wrapped
// by HandshakeError.
var (
	ErrInvalidLength    = errors.New("invalid handshake length")
	ErrProtocolMismatch = errors.New("unexpected peer protocol header string")
	ErrInfoHashMismatch = errors.New("info hash mismatch")
	ErrIOTimeout        = errors.New("i/o timeout")
	ErrUnknownInfoHash  = errors.New("unknown info hash")
)

// The errors of decoding the peer message.
var (
	ErrMessageTooLong = errors.New("the peer message is too long")
	ErrMessageLength  = errors.New("invalid payload length of the peer message")
)

// HandshakeError is returned when the handshake with the peer fails.
type HandshakeError struct {
	Addr string
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("fail to handshake with '%s': %s", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandshakeError) Unwrap() error { return e.Err }
