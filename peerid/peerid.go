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

// Package peerid generates and caches the 20-byte peer ids announced to
// the trackers and sent in the handshakes, one per torrent.
//
// The id has the Azureus-style form "-OX<major>-<minor>-<patch>-"
// followed by the random alphanumeric characters.
package peerid

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/torrentox/bt/internal/helper"
	"github.com/torrentox/bt/metainfo"
)

// Size is the size of the peer id.
const Size = metainfo.HashSize

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// ErrPrefixTooLong is returned when the version prefix does not fit
// into the 20-byte peer id.
var ErrPrefixTooLong = errors.New("peer id prefix is too long")

// ID is the 20-byte peer id.
type ID = metainfo.Hash

// RandomSource is the source of the random characters.
//
// *math/rand.Rand and helper.CryptoSource both implement it.
type RandomSource interface {
	Intn(n int) int
}

// Cache caches the peer id per torrent name, so the same torrent always
// announces itself with the same id.
//
// The lookups do not take the lock, and the inserts are serialized.
type Cache struct {
	prefix string
	src    RandomSource

	lock sync.Mutex
	ids  sync.Map // map[string]ID
	size int
}

// NewCache returns a new peer id cache.
//
// version is the dotted client version, such as "0.1.0", and the absent
// parts default to "1", "0" and "0". If src is nil, use helper.CryptoSource.
func NewCache(version string, src RandomSource) *Cache {
	if src == nil {
		src = helper.CryptoSource{}
	}
	return &Cache{prefix: Prefix(version), src: src}
}

// Prefix returns the peer id prefix of the version.
func Prefix(version string) string {
	parts := []string{"1", "0", "0"}
	if version != "" {
		for i, p := range strings.SplitN(version, ".", 3) {
			parts[i] = p
		}
	}
	return fmt.Sprintf("-OX%s-%s-%s-", parts[0], parts[1], parts[2])
}

// Prefix returns the prefix of the generated peer ids.
func (c *Cache) Prefix() string { return c.prefix }

// Len returns the number of the cached peer ids.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.size
}

// GetOrCreate returns the peer id cached for the torrent name,
// or generates and caches a new one.
func (c *Cache) GetOrCreate(torrentName string) (ID, error) {
	if v, ok := c.ids.Load(torrentName); ok {
		return v.(ID), nil
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	// Another goroutine may have created it while waiting for the lock.
	if v, ok := c.ids.Load(torrentName); ok {
		return v.(ID), nil
	}

	id, err := c.generate()
	if err != nil {
		return ID{}, err
	}

	c.ids.Store(torrentName, id)
	c.size++
	return id, nil
}

func (c *Cache) generate() (id ID, err error) {
	if len(c.prefix) > Size {
		return id, fmt.Errorf("%w: '%s' has %d bytes", ErrPrefixTooLong, c.prefix, len(c.prefix))
	}

	s := c.prefix + helper.RandomString(c.src, alphabet, Size-len(c.prefix))
	copy(id[:], s)
	return
}
