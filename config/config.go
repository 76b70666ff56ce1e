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

// Package config defines the configuration of the torrentox client.
package config

import (
	"fmt"
	"time"

	"github.com/torrentox/bt/peerid"
)

// DefaultVersion is the version of the client, which is used to build
// the prefix of the peer id.
const DefaultVersion = "1.0.0"

// Config is the configuration of the client.
type Config struct {
	// Port is the port on which the client listens, which is announced
	// to the tracker.
	//
	// Default: 6881
	Port uint16

	// DBPath is the path of the SQLite database.
	//
	// Default: ./torrentox.db
	DBPath string

	// LogFile is the path of the log file. Default: torrentox.log
	LogFile string

	// Verbose enables the debug log.
	Verbose bool

	// Version is used to build the prefix of the peer id. Default: DefaultVersion
	Version string

	ConnectTimeout  time.Duration // Default: 5s
	ReadTimeout     time.Duration // Default: 10s
	AnnounceTimeout time.Duration // Default: 30s

	// MaxRetries is the maximum number of the announce retries. Default: 3
	MaxRetries int

	// RetryInterval is the minimum interval between two announce attempts.
	//
	// Default: 2s
	RetryInterval time.Duration

	// MaxPeers is the maximum number of the peers handshaked concurrently.
	//
	// Default: 30
	MaxPeers int

	// SAMAddr is the address of the SAM bridge used to dial the I2P peers.
	//
	// Default: 127.0.0.1:7656
	SAMAddr string
}

// Default returns the default configuration.
func Default() (c Config) {
	c.Set()
	return
}

// Set fills the unset fields with the default values.
func (c *Config) Set() {
	if c.Port == 0 {
		c.Port = 6881
	}
	if c.DBPath == "" {
		c.DBPath = "./torrentox.db"
	}
	if c.LogFile == "" {
		c.LogFile = "torrentox.log"
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = time.Second * 5
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = time.Second * 10
	}
	if c.AnnounceTimeout <= 0 {
		c.AnnounceTimeout = time.Second * 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = time.Second * 2
	}
	if c.MaxPeers <= 0 {
		c.MaxPeers = 30
	}
	if c.SAMAddr == "" {
		c.SAMAddr = "127.0.0.1:7656"
	}
}

// Validate checks whether the configuration is valid.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries %d", c.MaxRetries)
	}
	if prefix := peerid.Prefix(c.Version); len(prefix) > peerid.Size {
		return fmt.Errorf("%w: '%s'", peerid.ErrPrefixTooLong, prefix)
	}
	return nil
}
