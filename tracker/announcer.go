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

package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/torrentox/bt/tracker/httptracker"
	"golang.org/x/time/rate"
)

// AnnouncerConfig is used to configure the announcer.
type AnnouncerConfig struct {
	// Timeout is the maximum duration of one announce attempt, which is
	// also bounded by the interval advertised by the last response.
	//
	// Default: 30s
	Timeout time.Duration

	// MaxRetries is the maximum number of the retries of the retryable
	// errors, that's, the network errors and the server errors.
	//
	// Default: 0, which represents no retry.
	MaxRetries int

	// RetryInterval is the minimum interval between two attempts.
	//
	// Default: 2s
	RetryInterval time.Duration

	// Logger is used to log the retries. Default: zerolog.Nop()
	Logger *zerolog.Logger
}

func (c *AnnouncerConfig) set(conf ...AnnouncerConfig) {
	if len(conf) > 0 {
		*c = conf[0]
	}

	if c.Timeout <= 0 {
		c.Timeout = time.Second * 30
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = time.Second * 2
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

// Announcer announces a torrent to its tracker.
//
// It allows only one outstanding announce at a time, and remembers the
// interval and the tracker id returned by the tracker.
type Announcer struct {
	client  Client
	conf    AnnouncerConfig
	limiter *rate.Limiter

	lock      sync.Mutex
	interval  time.Duration
	trackerID string
}

// NewAnnouncer returns a new Announcer.
func NewAnnouncer(client Client, conf ...AnnouncerConfig) *Announcer {
	var c AnnouncerConfig
	c.set(conf...)
	return &Announcer{
		client:  client,
		conf:    c,
		limiter: rate.NewLimiter(rate.Every(c.RetryInterval), 1),
	}
}

// Interval returns the interval advertised by the last successful announce,
// or 0 if the tracker has not responded yet.
func (a *Announcer) Interval() time.Duration {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.interval
}

func (a *Announcer) timeout() time.Duration {
	if a.interval > 0 && a.interval < a.conf.Timeout {
		return a.interval
	}
	return a.conf.Timeout
}

// Announce sends the announce request to the tracker, and retries it
// if it fails with a retryable error.
func (a *Announcer) Announce(ctx context.Context, req httptracker.AnnounceRequest) (
	resp httptracker.AnnounceResponse, err error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if req.TrackerID == "" {
		req.TrackerID = a.trackerID
	}

	for attempt := 0; ; attempt++ {
		if err = a.limiter.Wait(ctx); err != nil {
			return
		}

		if resp, err = a.announce(ctx, req); err == nil {
			a.interval = time.Duration(resp.Interval) * time.Second
			if resp.TrackerID != "" {
				a.trackerID = resp.TrackerID
			}
			if resp.WarningMessage != "" {
				a.conf.Logger.Warn().Str("tracker", a.client.String()).
					Msg(resp.WarningMessage)
			}
			return
		}

		if attempt >= a.conf.MaxRetries || ctx.Err() != nil || !httptracker.IsRetryable(err) {
			return
		}

		a.conf.Logger.Warn().Err(err).Str("tracker", a.client.String()).
			Int("attempt", attempt+1).Msg("announce failed, and retry")
	}
}

func (a *Announcer) announce(ctx context.Context, req httptracker.AnnounceRequest) (
	httptracker.AnnounceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()
	return a.client.Announce(ctx, req)
}
