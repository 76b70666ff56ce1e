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

package metainfo

import (
	"errors"
	"fmt"
)

// Predefine the kinds of the errors returned by Parse.
var (
	ErrMalformedEncoding = errors.New("malformed encoding")
	ErrMissingField      = errors.New("missing field")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrAmbiguousLayout   = errors.New("both 'length' and 'files' are present")
	ErrMissingLayout     = errors.New("neither 'length' nor 'files' is present")
	ErrInvalidUTF8       = errors.New("invalid utf-8 text")
)

// ParseError is returned when the .torrent document cannot be parsed.
//
// Kind is one of the predefined errors above, so errors.Is(err, ErrMissingField)
// works for any ParseError of that kind.
type ParseError struct {
	Kind  error
	Field string // The path of the field, such as "info.piece length".
	Err   error  // The underlying error, which may be nil.
}

func (e *ParseError) Error() string {
	msg := "metainfo: " + e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s '%s'", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

// Is reports whether target is the kind of the error.
func (e *ParseError) Is(target error) bool { return target == e.Kind }

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

func missingField(field string) error {
	return &ParseError{Kind: ErrMissingField, Field: field}
}

func typeMismatch(field, format string, args ...interface{}) error {
	return &ParseError{Kind: ErrTypeMismatch, Field: field, Err: fmt.Errorf(format, args...)}
}
