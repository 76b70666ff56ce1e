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

package httptracker

import (
	"errors"
	"fmt"
)

// ErrMalformedPeerList is returned when the "peers" value of the response
// is not a compact peer list.
var ErrMalformedPeerList = errors.New("malformed peer list")

// ErrMalformedResponse is returned when the response body is not
// a bencoded dictionary.
var ErrMalformedResponse = errors.New("malformed tracker response")

// HTTPError is returned when the tracker responds with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("tracker http error: status=%d, body=%q", e.StatusCode, e.Body)
}

// Temporary reports whether the error is a server error, which may be retried.
func (e *HTTPError) Temporary() bool { return e.StatusCode >= 500 }

// NetworkError is returned when the request cannot be sent to the tracker
// or its response cannot be read, including the timeout.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("tracker network error on '%s': %s", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Temporary always returns true.
func (e *NetworkError) Temporary() bool { return true }

// FailureError is returned when the tracker responds with a "failure reason".
type FailureError struct {
	Reason string
}

func (e *FailureError) Error() string {
	return "tracker failure: " + e.Reason
}

// IsRetryable reports whether the announce error may be retried,
// that's, a network error or a server error of the tracker.
func IsRetryable(err error) bool {
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
