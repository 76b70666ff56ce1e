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

// Command torrentox parses the torrent files, announces them to their
// trackers, and handshakes with the returned peers.
//
//	Usage: torrentox [flags] <torrent-file>...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/torrentox/bt/config"
	"github.com/torrentox/bt/session"
	"github.com/torrentox/bt/storage"
)

func main() {
	conf := config.Default()
	flag.BoolVar(&conf.Verbose, "v", false, "enable the debug log")
	flag.StringVar(&conf.DBPath, "db", conf.DBPath, "the path of the SQLite database")
	flag.StringVar(&conf.LogFile, "log", conf.LogFile, "the path of the log file")
	flag.StringVar(&conf.SAMAddr, "sam", conf.SAMAddr, "the address of the I2P SAM bridge")
	flag.DurationVar(&conf.ConnectTimeout, "connect-timeout", conf.ConnectTimeout, "the timeout to connect to a peer")
	flag.DurationVar(&conf.ReadTimeout, "read-timeout", conf.ReadTimeout, "the timeout to read from a peer")
	flag.DurationVar(&conf.AnnounceTimeout, "announce-timeout", conf.AnnounceTimeout, "the timeout of an announce")
	flag.IntVar(&conf.MaxRetries, "retries", conf.MaxRetries, "the maximum number of the announce retries")
	flag.IntVar(&conf.MaxPeers, "max-peers", conf.MaxPeers, "the maximum number of the concurrent handshakes")
	port := flag.Uint("port", uint(conf.Port), "the listening port announced to the tracker")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <torrent-file>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *port == 0 || *port > 65535 {
		fmt.Fprintf(os.Stderr, "invalid port %d\n", *port)
		os.Exit(2)
	}
	conf.Port = uint16(*port)

	if err := conf.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(conf, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(conf config.Config) (*zerolog.Logger, func(), error) {
	f, err := os.OpenFile(conf.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to open the log file: %w", err)
	}

	level := zerolog.WarnLevel
	if conf.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return &logger, func() { f.Close() }, nil
}

func run(conf config.Config, paths []string) error {
	logger, closeLog, err := newLogger(conf)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := storage.Open(conf.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("torrents"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	sconf := session.NewConfig(conf, logger)
	sconf.OnResult = func(session.Result) { bar.Add(1) }
	s := session.New(store, sconf)
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := s.Run(ctx, paths)
	bar.Finish()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("%s: %s\n", r.Path, r.Err)
			continue
		}

		fmt.Printf("%s: %s (%s), interval %s, %d/%d peers handshaked\n",
			r.Path, r.Name, r.InfoHash.HexString(), r.Interval, r.Handshaked(), len(r.Peers))
		for _, p := range r.Peers {
			if p.Err != nil {
				fmt.Printf("  %s: %s\n", p.Peer, p.Err)
			} else {
				fmt.Printf("  %s: peer id %q, %d pieces\n", p.Peer, p.PeerID.BytesString(), p.State.Count())
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d torrent files failed", failed, len(results))
	}
	return nil
}
