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

package utils

import (
	"net"
	"sync"
	"testing"
)

func TestBool(t *testing.T) {
	b := NewBool(false)
	if b.Get() {
		t.Errorf("expect false")
	}

	var wg sync.WaitGroup
	var changed int32
	var lock sync.Mutex
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.SetTrueIfFalse() {
				lock.Lock()
				changed++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()

	if changed != 1 {
		t.Errorf("expect only one change, but got %d", changed)
	} else if !b.Get() {
		t.Errorf("expect true")
	}

	if b.Set(false); b.Get() {
		t.Errorf("expect false")
	}
}

func TestAddr(t *testing.T) {
	tcp := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 6881}
	if ip := IPAddr(tcp); ip != "127.0.0.1" {
		t.Errorf("expect ip '%s', but got '%s'", "127.0.0.1", ip)
	}
	if port := Port(tcp); port != 6881 {
		t.Errorf("expect port %d, but got %d", 6881, port)
	}

	for addr, expect := range map[string]bool{
		"abc.b32.i2p":      true,
		"abc.b32.i2p:6881": true,
		"127.0.0.1:6881":   false,
		"example.com":      false,
	} {
		if IsI2PHost(addr) != expect {
			t.Errorf("%s: expect %v", addr, expect)
		}
	}
}
