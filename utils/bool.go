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

// Package utils supplies the small concurrency and address helpers.
package utils

import "sync/atomic"

// Bool is an atomic bool, which is used as the one-shot flag,
// such as the closed state of a connection.
type Bool struct{ v atomic.Bool }

// NewBool returns a new Bool initialized to t.
func NewBool(t bool) *Bool {
	b := new(Bool)
	b.v.Store(t)
	return b
}

// Get returns the current value.
func (b *Bool) Get() bool { return b.v.Load() }

// Set stores t.
func (b *Bool) Set(t bool) { b.v.Store(t) }

// SetTrueIfFalse sets the value to true only if it is false,
// and reports whether it has been changed by this call.
func (b *Bool) SetTrueIfFalse() bool { return b.v.CompareAndSwap(false, true) }
