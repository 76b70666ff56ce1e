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

// Package httptracker implements the tracker announce protocol based on
// HTTP/HTTPS with the compact peer list.
//
// The package provides the client to announce to a HTTP tracker, and the
// request and response codecs, which may also be used to implement a HTTP
// tracker server.
package httptracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/torrentox/bt/metainfo"
	"github.com/zeebo/bencode"
)

// The events of the announce request.
const (
	EventNone      = ""
	EventStarted   = "started"
	EventCompleted = "completed"
	EventStopped   = "stopped"
)

// maxBodySize is the maximum size of the response body.
const maxBodySize = 1 << 20

// AnnounceRequest is the tracker announce requests.
//
// BEP 3
type AnnounceRequest struct {
	// InfoHash is the sha1 hash of the bencoded form of the info value
	// from the metainfo file.
	//
	// It is not contained in ToQuery, but appended by URL separately,
	// since it is the binary data.
	InfoHash metainfo.Hash // BEP 3

	// PeerID is the id of the downloader.
	PeerID metainfo.Hash // BEP 3

	// Uploaded is the total amount uploaded so far.
	Uploaded uint64 // BEP 3

	// Downloaded is the total amount downloaded so far.
	Downloaded uint64 // BEP 3

	// Left is the number of bytes this peer still has to download.
	Left uint64 // BEP 3

	// Port is the port that this peer is listening on.
	//
	// Common behavior is for a downloader to try to listen on port 6881,
	// and if that port is taken try 6882, then 6883, etc. and give up after 6889.
	Port uint16 // BEP 3

	// IP is the ip or DNS name which this peer is at.
	//
	// Optional.
	IP string // BEP 3

	// Event is one of EventStarted, EventCompleted and EventStopped.
	// If empty, this is one of the announcements done at regular intervals.
	//
	// Optional
	Event string // BEP 3

	// Compact indicates whether it hopes the tracker to return the compact
	// peer lists.
	Compact bool // BEP 23

	// NumWant is the number of peers that the client would like to receive
	// from the tracker. If 0, it is omitted.
	//
	// Optional.
	NumWant int32

	// TrackerID is the "tracker id" returned by the previous announce.
	//
	// Optional.
	TrackerID string
}

// ToQuery converts the Request to URL Query, which contains all the
// parameters except "info_hash".
func (r AnnounceRequest) ToQuery() (vs url.Values) {
	vs = make(url.Values, 10)
	vs.Set("peer_id", r.PeerID.BytesString())
	vs.Set("port", strconv.FormatUint(uint64(r.Port), 10))
	vs.Set("uploaded", strconv.FormatUint(r.Uploaded, 10))
	vs.Set("downloaded", strconv.FormatUint(r.Downloaded, 10))
	vs.Set("left", strconv.FormatUint(r.Left, 10))

	if r.IP != "" {
		vs.Set("ip", r.IP)
	}
	if r.Event != EventNone {
		vs.Set("event", r.Event)
	}
	if r.NumWant != 0 {
		vs.Set("numwant", strconv.FormatInt(int64(r.NumWant), 10))
	}
	if r.TrackerID != "" {
		vs.Set("trackerid", r.TrackerID)
	}

	// BEP 23
	if r.Compact {
		vs.Set("compact", "1")
	} else {
		vs.Set("compact", "0")
	}

	return
}

// URL returns the full announce url, which appends the form-encoded query
// and the percent-encoded raw bytes of the info hash to announce.
func (r AnnounceRequest) URL(announce string) string {
	sep := "?"
	if strings.IndexByte(announce, '?') >= 0 {
		sep = "&"
	}

	var b strings.Builder
	b.Grow(len(announce) + 256)
	b.WriteString(announce)
	b.WriteString(sep)
	b.WriteString(r.ToQuery().Encode())
	b.WriteString("&info_hash=")
	b.WriteString(url.QueryEscape(r.InfoHash.BytesString()))
	return b.String()
}

// FromQuery converts URL Query to itself.
func (r *AnnounceRequest) FromQuery(vs url.Values) (err error) {
	if err = r.InfoHash.UnmarshalBinary([]byte(vs.Get("info_hash"))); err != nil {
		return fmt.Errorf("invalid info_hash: %w", err)
	}

	if err = r.PeerID.UnmarshalBinary([]byte(vs.Get("peer_id"))); err != nil {
		return fmt.Errorf("invalid peer_id: %w", err)
	}

	if r.Uploaded, err = strconv.ParseUint(vs.Get("uploaded"), 10, 64); err != nil {
		return
	}
	if r.Downloaded, err = strconv.ParseUint(vs.Get("downloaded"), 10, 64); err != nil {
		return
	}
	if r.Left, err = strconv.ParseUint(vs.Get("left"), 10, 64); err != nil {
		return
	}

	port, err := strconv.ParseUint(vs.Get("port"), 10, 16)
	if err != nil {
		return
	}
	r.Port = uint16(port)

	if s := vs.Get("numwant"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return err
		}
		r.NumWant = int32(v)
	}

	r.IP = vs.Get("ip")
	r.Event = vs.Get("event")
	r.TrackerID = vs.Get("trackerid")
	r.Compact = vs.Get("compact") == "1"
	return
}

// AnnounceResponse is a announce response.
type AnnounceResponse struct {
	// Interval is the seconds the downloader should wait before next rerequest.
	Interval uint32 // BEP 3

	// MinInterval is the minimum announce interval in seconds. Optional.
	MinInterval uint32

	// Peers is the list of the peers.
	Peers Peers // BEP 3, BEP 23

	// Complete is the number of peers with the entire file.
	Complete uint32
	// Incomplete is the number of non-seeder peers.
	Incomplete uint32

	// TrackerID is that the client should send back on its next announcements.
	// If absent and a previous announce sent a tracker id,
	// do not discard the old value; keep using it.
	TrackerID string

	// WarningMessage is the warning returned by the tracker, if any.
	WarningMessage string
}

type announceResponse struct {
	FailureReason  string             `bencode:"failure reason,omitempty"`
	WarningMessage string             `bencode:"warning message,omitempty"`
	Interval       int64              `bencode:"interval"`
	MinInterval    int64              `bencode:"min interval,omitempty"`
	Peers          bencode.RawMessage `bencode:"peers,omitempty"`
	Complete       int64              `bencode:"complete,omitempty"`
	Incomplete     int64              `bencode:"incomplete,omitempty"`
	TrackerID      string             `bencode:"tracker id,omitempty"`
}

func toUint32(v int64) uint32 {
	if v < 0 {
		return 0
	} else if v > 1<<32-1 {
		return 1<<32 - 1
	}
	return uint32(v)
}

// DecodeAnnounceResponse decodes the bencoded announce response body.
//
// If i2p is true, the compact peers are the I2P destination hashes,
// which use i2pPort as the port.
func DecodeAnnounceResponse(body []byte, i2p bool, i2pPort uint16) (resp AnnounceResponse, err error) {
	var raw announceResponse
	if err = bencode.DecodeBytes(body, &raw); err != nil {
		return resp, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	if raw.FailureReason != "" {
		return resp, &FailureError{Reason: raw.FailureReason}
	}

	if resp.Peers, err = decodePeers(raw.Peers, i2p, i2pPort); err != nil {
		return AnnounceResponse{}, err
	}

	resp.Interval = toUint32(raw.Interval)
	resp.MinInterval = toUint32(raw.MinInterval)
	resp.Complete = toUint32(raw.Complete)
	resp.Incomplete = toUint32(raw.Incomplete)
	resp.TrackerID = raw.TrackerID
	resp.WarningMessage = raw.WarningMessage
	return
}

// EncodeTo encodes the response with the compact IPv4 peer list
// by bencode and write the result into w.
//
// w may be http.ResponseWriter.
func (ar AnnounceResponse) EncodeTo(w io.Writer) (err error) {
	raw := announceResponse{
		WarningMessage: ar.WarningMessage,
		Interval:       int64(ar.Interval),
		MinInterval:    int64(ar.MinInterval),
		Complete:       int64(ar.Complete),
		Incomplete:     int64(ar.Incomplete),
		TrackerID:      ar.TrackerID,
	}

	peers, err := ar.Peers.MarshalBinary()
	if err != nil {
		return
	}
	if raw.Peers, err = bencode.EncodeBytes(string(peers)); err != nil {
		return
	}

	return bencode.NewEncoder(w).Encode(raw)
}

// EncodeFailureTo encodes the failure response into w.
func EncodeFailureTo(w io.Writer, reason string) error {
	return bencode.NewEncoder(w).Encode(announceResponse{FailureReason: reason})
}

// Client represents a tracker client based on HTTP/HTTPS.
type Client struct {
	Client      *http.Client
	AnnounceURL string

	// If I2P is true, the tracker is an I2P tracker, and the compact peers
	// are the 32-byte destination hashes using I2PPort, which is
	// DefaultI2PPort by default.
	I2P     bool
	I2PPort uint16
}

// NewClient returns a new HTTPClient.
func NewClient(announceURL string) *Client {
	return &Client{AnnounceURL: announceURL}
}

// Close closes the client, which does nothing at present.
func (t *Client) Close() error   { return nil }
func (t *Client) String() string { return t.AnnounceURL }

func (t *Client) send(c context.Context, u string) (body []byte, err error) {
	req, err := http.NewRequestWithContext(c, http.MethodGet, u, nil)
	if err != nil {
		return
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: t.AnnounceURL, Err: err}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{URL: t.AnnounceURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	return
}

// Announce sends a Announce request to the tracker.
func (t *Client) Announce(c context.Context, req AnnounceRequest) (resp AnnounceResponse, err error) {
	body, err := t.send(c, req.URL(t.AnnounceURL))
	if err != nil {
		return
	}

	port := t.I2PPort
	if port == 0 {
		port = DefaultI2PPort
	}
	return DecodeAnnounceResponse(body, t.I2P, port)
}
