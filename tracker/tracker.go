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

// Package tracker builds the announce requests of the torrents and announces
// them to the trackers with the retry.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/torrentox/bt/metainfo"
	"github.com/torrentox/bt/peerid"
	"github.com/torrentox/bt/tracker/httptracker"
	"github.com/torrentox/bt/utils"
)

// ErrNegativeRemaining is returned when the downloaded bytes are more than
// the total length of the torrent.
var ErrNegativeRemaining = errors.New("downloaded exceeds the total length")

// ConstructQuery builds the announce request of the torrent,
// whose "left" is the total length minus downloaded.
func ConstructQuery(mi metainfo.MetaInfo, downloaded, uploaded uint64, port uint16,
	id peerid.ID) (req httptracker.AnnounceRequest, err error) {
	total := mi.TotalLength()
	if downloaded > total {
		return req, fmt.Errorf("%w: downloaded=%d, total=%d", ErrNegativeRemaining, downloaded, total)
	}

	return httptracker.AnnounceRequest{
		InfoHash:   mi.InfoHash,
		PeerID:     id,
		Uploaded:   uploaded,
		Downloaded: downloaded,
		Left:       total - downloaded,
		Port:       port,
		Compact:    true,
	}, nil
}

// Client is the interface of BT tracker client.
type Client interface {
	Announce(context.Context, httptracker.AnnounceRequest) (httptracker.AnnounceResponse, error)
	String() string
	Close() error
}

// ClientConfig is used to configure the defalut client implementation.
type ClientConfig struct {
	// The http client used only the tracker client is based on HTTP.
	HTTPClient *http.Client

	// I2P indicates whether the tracker returns the I2P compact peers.
	//
	// If false, it is enabled only when the tracker host ends with ".i2p".
	I2P bool
}

// NewClient returns a new Client.
func NewClient(connURL string, conf ...ClientConfig) (c Client, err error) {
	var config ClientConfig
	if len(conf) > 0 {
		config = conf[0]
	}

	u, err := url.Parse(connURL)
	if err != nil {
		return
	}

	switch u.Scheme {
	case "http", "https":
		tracker := httptracker.NewClient(connURL)
		tracker.Client = config.HTTPClient
		tracker.I2P = config.I2P || utils.IsI2PHost(u.Hostname())
		c = tracker
	default:
		err = fmt.Errorf("unsupported tracker url scheme '%s'", u.Scheme)
	}
	return
}
