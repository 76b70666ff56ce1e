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

// Package helper provides the internal helpers shared by the packages.
package helper

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
)

// CryptoSource is a random source backed by crypto/rand,
// which falls back to math/rand if the system source fails.
type CryptoSource struct{}

// Intn returns a random number in [0, n). It panics if n <= 0.
func (CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("helper: invalid argument to Intn")
	}

	if v, err := crand.Int(crand.Reader, big.NewInt(int64(n))); err == nil {
		return int(v.Int64())
	}
	return rand.Intn(n)
}

// RandomString generates a size-length string randomly,
// whose characters are chosen from the alphabet by src.
func RandomString(src interface{ Intn(int) int }, alphabet string, size int) string {
	bs := make([]byte, size)
	for i := range bs {
		bs[i] = alphabet[src.Intn(len(alphabet))]
	}
	return string(bs)
}
