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

package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Port != 6881 {
		t.Errorf("expect port %d, but got %d", 6881, c.Port)
	}
	if c.DBPath != "./torrentox.db" || c.LogFile != "torrentox.log" {
		t.Errorf("unexpected paths '%s' and '%s'", c.DBPath, c.LogFile)
	}
	if c.ConnectTimeout != time.Second*5 || c.ReadTimeout != time.Second*10 ||
		c.AnnounceTimeout != time.Second*30 || c.RetryInterval != time.Second*2 {
		t.Errorf("unexpected timeouts %+v", c)
	}
	if c.MaxRetries != 3 || c.MaxPeers != 30 || c.Version != DefaultVersion {
		t.Errorf("unexpected config %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Error(err)
	}
}

func TestSetKeepsValues(t *testing.T) {
	c := Config{Port: 7000, MaxPeers: 5, MaxRetries: -1, Verbose: true}
	c.Set()

	if c.Port != 7000 || c.MaxPeers != 5 || !c.Verbose {
		t.Errorf("unexpected config %+v", c)
	}
	if err := c.Validate(); err == nil {
		t.Errorf("expect an error for the negative max retries")
	}
}

func TestValidateVersion(t *testing.T) {
	c := Default()
	c.Version = "12345.67890.12345"
	if err := c.Validate(); err == nil {
		t.Errorf("expect an error for the too long version")
	}
}
