// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package stream implements reading and writing length-prefixed backup frames.
package stream

import "errors"

const (
	// DefaultMaxFrameSize is the largest frame that will be written or read by default.
	DefaultMaxFrameSize = 4 << 20
)

var (
	ErrFrameTooLarge          = errors.New("frame too large")
	ErrInvalidLengthDelimiter = errors.New("invalid frame length delimiter")
	ErrTruncatedFrame         = errors.New("stream ended in the middle of a frame")
	ErrMalformedFrame         = errors.New("malformed frame")
	ErrMissingHeader          = errors.New("stream doesn't start with a backup info header")
	ErrHeaderAlreadyWritten   = errors.New("backup info header was already written")
	ErrHeaderNotWritten       = errors.New("backup info header must be written before frames")
	ErrHeaderAlreadyRead      = errors.New("backup info header was already read")
	ErrHeaderNotRead          = errors.New("backup info header must be read before frames")
	ErrStreamClosed           = errors.New("stream is closed")
)

// Options configures frame stream readers and writers.
type Options struct {
	// Compress wraps the whole stream in gzip.
	Compress bool
	// MaxFrameSize is the maximum size of a single encoded frame. Defaults to DefaultMaxFrameSize.
	MaxFrameSize int
}

func (opts Options) maxFrameSize() int {
	if opts.MaxFrameSize <= 0 {
		return DefaultMaxFrameSize
	}
	return opts.MaxFrameSize
}
