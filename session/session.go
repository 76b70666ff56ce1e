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

// Package session drives a batch of the torrent files through the protocol
// core, that's, parsing and saving the torrent, announcing it to its tracker,
// and handshaking with every returned peer concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/torrentox/bt/config"
	"github.com/torrentox/bt/metainfo"
	pp "github.com/torrentox/bt/peerprotocol"
	"github.com/torrentox/bt/peerid"
	"github.com/torrentox/bt/storage"
	"github.com/torrentox/bt/tracker"
	"github.com/torrentox/bt/tracker/httptracker"
	"github.com/torrentox/bt/utils"
)

// ErrNoAnnounce is returned when the torrent has no tracker url.
var ErrNoAnnounce = errors.New("the torrent has no announce url")

// Store is used to persist the torrents, which is implemented by *storage.Store.
type Store interface {
	Save(storage.Torrent) error
	LoadByName(name string) (storage.Torrent, error)
	UpdateCounters(name string, downloaded, uploaded uint64) error
}

// Config is used to configure the session.
type Config struct {
	// Port is the listening port announced to the tracker. Default: 6881
	Port uint16

	// Version is used to build the prefix of the peer id.
	Version string

	ConnectTimeout  time.Duration // Default: 5s
	ReadTimeout     time.Duration // Default: 10s
	AnnounceTimeout time.Duration // Default: 30s
	RetryInterval   time.Duration // Default: 2s
	MaxRetries      int

	// MaxPeers is the maximum number of the peers handshaked concurrently.
	//
	// Default: 30
	MaxPeers int

	// ReadMessages is the number of the messages read from the peer
	// after the handshake to build its state.
	//
	// Default: 0
	ReadMessages int

	// HTTPClient is used to announce to the tracker. Default: http.DefaultClient
	HTTPClient *http.Client

	// Dialer is used to dial the peers. Default: pp.NewSAMDialer("")
	Dialer pp.Dialer

	// OnResult is called after each torrent file is processed.
	OnResult func(Result)

	// Logger is used to log the progress. Default: zerolog.Nop()
	Logger *zerolog.Logger
}

// NewConfig converts the client configuration to the session configuration.
func NewConfig(c config.Config, logger *zerolog.Logger) Config {
	return Config{
		Port:            c.Port,
		Version:         c.Version,
		ConnectTimeout:  c.ConnectTimeout,
		ReadTimeout:     c.ReadTimeout,
		AnnounceTimeout: c.AnnounceTimeout,
		RetryInterval:   c.RetryInterval,
		MaxRetries:      c.MaxRetries,
		MaxPeers:        c.MaxPeers,
		ReadMessages:    1,
		Dialer:          pp.NewSAMDialer(c.SAMAddr),
		Logger:          logger,
	}
}

func (c *Config) set(conf ...Config) {
	if len(conf) > 0 {
		*c = conf[0]
	}

	if c.Port == 0 {
		c.Port = 6881
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
	if c.RetryInterval <= 0 {
		c.RetryInterval = time.Second * 2
	}
	if c.MaxPeers <= 0 {
		c.MaxPeers = 30
	}
	if c.Dialer == nil {
		c.Dialer = pp.NewSAMDialer("")
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

// PeerResult is the result of the handshake with a peer.
type PeerResult struct {
	Peer httptracker.Peer

	// PeerID is the peer id returned by the peer in the handshake.
	PeerID metainfo.Hash

	// State is the state of the peer after the handshake
	// and the read messages.
	State *pp.PeerState

	Err error
}

// Result is the result of processing a torrent file.
type Result struct {
	Path     string
	Name     string
	InfoHash metainfo.Hash

	// Interval is the announce interval advertised by the tracker.
	Interval time.Duration

	Peers []PeerResult

	// Err is the error which aborts the processing of the file.
	Err error
}

// Handshaked returns the number of the peers handshaked successfully.
func (r Result) Handshaked() (n int) {
	for _, p := range r.Peers {
		if p.Err == nil {
			n++
		}
	}
	return
}

// Session processes the torrent files.
type Session struct {
	conf  Config
	store Store
	ids   *peerid.Cache
}

// New returns a new Session.
func New(store Store, conf ...Config) *Session {
	if store == nil {
		panic("session: the store must not be nil")
	}

	var c Config
	c.set(conf...)
	return &Session{conf: c, store: store, ids: peerid.NewCache(c.Version, nil)}
}

// Close releases the resources held by the dialer.
func (s *Session) Close() error {
	if c, ok := s.conf.Dialer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Run processes the torrent files in turn, and returns their results
// in the same order.
//
// The failure of a file does not stop the processing of the others.
func (s *Session) Run(ctx context.Context, paths []string) []Result {
	logger := s.conf.Logger.With().Str("run", uuid.NewString()).Logger()
	logger.Info().Int("files", len(paths)).Msg("start to process the torrent files")

	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		r := s.process(ctx, &logger, path)
		if r.Err != nil {
			logger.Error().Err(r.Err).Str("file", path).Msg("fail to process the torrent file")
		} else {
			logger.Info().Str("file", path).Str("infohash", r.InfoHash.HexString()).
				Int("peers", len(r.Peers)).Int("handshaked", r.Handshaked()).
				Msg("finish processing the torrent file")
		}

		results = append(results, r)
		if s.conf.OnResult != nil {
			s.conf.OnResult(r)
		}
	}

	return results
}

func (s *Session) process(ctx context.Context, logger *zerolog.Logger, path string) (r Result) {
	r.Path = path

	raw, err := os.ReadFile(path)
	if err != nil {
		r.Err = err
		return
	}

	mi, err := metainfo.Parse(raw)
	if err != nil {
		r.Err = fmt.Errorf("invalid torrent file '%s': %w", path, err)
		return
	}
	r.InfoHash = mi.InfoHash

	t, err := s.save(path, raw, mi)
	if err != nil {
		r.Err = err
		return
	}
	r.Name = t.Name

	if !mi.HasAnnounce || mi.Announce == "" {
		r.Err = ErrNoAnnounce
		return
	}

	id, err := s.ids.GetOrCreate(t.Name)
	if err != nil {
		r.Err = err
		return
	}

	resp, interval, err := s.announce(ctx, logger, mi, t, id)
	if err != nil {
		r.Err = err
		return
	}

	r.Interval = interval
	r.Peers = s.handshake(ctx, logger, mi, id, resp.Peers)
	return
}

// save saves the torrent, and keeps the counters of the torrent saved before.
func (s *Session) save(path string, raw []byte, mi metainfo.MetaInfo) (storage.Torrent, error) {
	t := storage.NewTorrent(path, raw, mi)
	switch old, err := s.store.LoadByName(t.Name); {
	case err == nil:
		if old.InfoHash == t.InfoHash && old.Downloaded <= t.Size {
			t.Downloaded, t.Uploaded = old.Downloaded, old.Uploaded
		}
	case !errors.Is(err, storage.ErrNotFound):
		return t, err
	}

	if err := s.store.Save(t); err != nil {
		return t, err
	}

	// The content is changed, so the old counters are reset.
	if t.Downloaded == 0 && t.Uploaded == 0 {
		return t, s.store.UpdateCounters(t.Name, 0, 0)
	}
	return t, nil
}

func (s *Session) announce(ctx context.Context, logger *zerolog.Logger, mi metainfo.MetaInfo,
	t storage.Torrent, id peerid.ID) (resp httptracker.AnnounceResponse, interval time.Duration, err error) {
	req, err := tracker.ConstructQuery(mi, t.Downloaded, t.Uploaded, s.conf.Port, id)
	if err != nil {
		return
	}
	req.Event = httptracker.EventStarted

	client, err := tracker.NewClient(mi.Announce, tracker.ClientConfig{HTTPClient: s.conf.HTTPClient})
	if err != nil {
		return
	}
	defer client.Close()

	announcer := tracker.NewAnnouncer(client, tracker.AnnouncerConfig{
		Timeout:       s.conf.AnnounceTimeout,
		MaxRetries:    s.conf.MaxRetries,
		RetryInterval: s.conf.RetryInterval,
		Logger:        logger,
	})

	if resp, err = announcer.Announce(ctx, req); err != nil {
		err = fmt.Errorf("fail to announce to '%s': %w", client.String(), err)
		return
	}

	logger.Debug().Str("tracker", client.String()).Int("peers", len(resp.Peers)).
		Uint32("interval", resp.Interval).Msg("announced")
	return resp, announcer.Interval(), nil
}

// handshake handshakes with the peers concurrently, at most MaxPeers
// at a time, and returns the results in the order of peers.
func (s *Session) handshake(ctx context.Context, logger *zerolog.Logger, mi metainfo.MetaInfo,
	id peerid.ID, peers httptracker.Peers) []PeerResult {
	results := make([]PeerResult, len(peers))
	local := pp.NewHandshakeMsg(id, mi.InfoHash)
	numPieces := mi.Info.CountPieces()
	conf := pp.Config{
		ConnectTimeout: s.conf.ConnectTimeout,
		ReadTimeout:    s.conf.ReadTimeout,
		MaxLength:      pp.DefaultMaxLength,
		Logger:         logger,
	}

	// The bitfield message of a large torrent may exceed a piece block.
	if n := uint32(numPieces/8 + 2); n > conf.MaxLength {
		conf.MaxLength = n
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.conf.MaxPeers)
	for i, peer := range peers {
		results[i].Peer = peer

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(r *PeerResult) {
			defer func() { <-sem; wg.Done() }()
			s.handshakePeer(ctx, logger, r, local, numPieces, conf)
		}(&results[i])
	}

	wg.Wait()
	return results
}

func (s *Session) handshakePeer(ctx context.Context, logger *zerolog.Logger, r *PeerResult,
	local pp.HandshakeMsg, numPieces int, conf pp.Config) {
	pc, err := pp.DialHandshake(ctx, s.conf.Dialer, r.Peer.String(), local, numPieces, conf)
	if err != nil {
		r.Err = err
		logger.Debug().Err(err).Str("peer", r.Peer.String()).Msg("fail to handshake")
		return
	}
	defer pc.Close()

	r.PeerID = pc.Peer.PeerID
	r.State = pc.State
	addr := pc.RemoteAddr()
	logger.Debug().Str("ip", utils.IPAddr(addr)).Int("port", utils.Port(addr)).
		Str("peerid", pc.Peer.PeerID.String()).Msg("handshaked")

	for i := 0; i < s.conf.ReadMessages; i++ {
		msg, err := pc.ReadMsg()
		if err != nil {
			logger.Debug().Err(err).Str("ip", utils.IPAddr(addr)).
				Msg("fail to read the peer message")
			return
		}
		pc.HandleMessage(msg)
	}
}
