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

// Package bencode implements the bencoding used by the .torrent files and
// the tracker responses.
//
// Unlike the reflection-based codecs, it parses the bytes into a closed
// Value tree of four shapes, Integer, Bytes, List and Dict, and serializes
// a Value back into its canonical form: the dictionary keys are sorted
// by their raw bytes and the integers have no leading zeros. So the bytes
// of a sub-value, such as the info dictionary, can be recovered exactly
// for hashing.
//
// BEP 3
package bencode
