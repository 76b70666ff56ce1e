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

// Package peerprotocol implements the core BT peer protocol, that's,
// the 68-byte handshake, the BEP 3 messages and the state of the remote
// peer built from the choke, interested, have and bitfield messages.
//
// DialHandshake connects to a peer and verifies its info hash,
// and Server accepts the handshakes from the other peers.
package peerprotocol
