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

package helper

import (
	"math/rand"
	"strings"
	"testing"
)

func TestCryptoSource(t *testing.T) {
	var src CryptoSource
	for i := 0; i < 1000; i++ {
		if v := src.Intn(10); v < 0 || v >= 10 {
			t.Fatalf("expect a number in [0, 10), but got %d", v)
		}
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expect a panic for n=0")
		}
	}()
	src.Intn(0)
}

func TestRandomString(t *testing.T) {
	const alphabet = "abc"
	s := RandomString(rand.New(rand.NewSource(1)), alphabet, 32)
	if len(s) != 32 {
		t.Errorf("expect the length %d, but got %d", 32, len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(alphabet, c) {
			t.Errorf("unexpected character %q", c)
		}
	}

	s1 := RandomString(rand.New(rand.NewSource(7)), alphabet, 16)
	s2 := RandomString(rand.New(rand.NewSource(7)), alphabet, 16)
	if s1 != s2 {
		t.Errorf("expect the same string for the same seed, but got '%s' and '%s'", s1, s2)
	}
}
