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

var _ Handler = NoopHandler{}

// NoopHandler implements the interface Handler to only apply the messages
// to the state of the peer, which is used to be embedded into other
// structure to not implement the noop interface methods.
type NoopHandler struct{}

// OnClose implements the interface Handler#OnClose.
func (NoopHandler) OnClose(*PeerConn) {}

// OnHandShake implements the interface Handler#OnHandShake.
func (NoopHandler) OnHandShake(*PeerConn) error { return nil }

// OnMessage implements the interface Handler#OnMessage.
func (NoopHandler) OnMessage(pc *PeerConn, msg Message) error {
	pc.HandleMessage(msg)
	return nil
}
