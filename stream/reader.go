// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"go.mau.fi/msgbackup/proto/backupProto"
	waLog "go.mau.fi/msgbackup/util/log"
)

// Reader reads frames written by Writer.
type Reader struct {
	log     waLog.Logger
	gz      *gzip.Reader
	buf     *bufio.Reader
	maxSize int

	headerRead bool
	frameCount int
}

// NewReader creates a frame reader. If compression is enabled, the gzip header is read immediately.
func NewReader(r io.Reader, opts Options, log waLog.Logger) (*Reader, error) {
	if log == nil {
		log = waLog.Noop
	}
	fr := &Reader{
		log:     log,
		maxSize: opts.maxFrameSize(),
	}
	if opts.Compress {
		var err error
		fr.gz, err = gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		r = fr.gz
	}
	fr.buf = bufio.NewReader(r)
	return fr, nil
}

// readMessage reads one length-prefixed message. It returns false if the stream ended cleanly before the message.
func (fr *Reader) readMessage(into backupProto.Message) (bool, error) {
	length, err := binary.ReadUvarint(fr.buf)
	if errors.Is(err, io.EOF) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidLengthDelimiter, err)
	} else if length > uint64(fr.maxSize) {
		return false, fmt.Errorf("%w (%d bytes, max %d)", ErrFrameTooLarge, length, fr.maxSize)
	}
	data := make([]byte, length)
	_, err = io.ReadFull(fr.buf, data)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("%w (expected %d bytes)", ErrTruncatedFrame, length)
	} else if err != nil {
		return false, fmt.Errorf("failed to read frame: %w", err)
	}
	err = backupProto.Unmarshal(data, into)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return true, nil
}

// ReadHeader reads the backup info header. It must be called before ReadFrame.
func (fr *Reader) ReadHeader() (*backupProto.BackupInfo, error) {
	if fr.headerRead {
		return nil, ErrHeaderAlreadyRead
	}
	var info backupProto.BackupInfo
	ok, err := fr.readMessage(&info)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrMissingHeader
	}
	fr.headerRead = true
	return &info, nil
}

// ReadFrame reads the next frame. At the end of the stream it returns nil without an error.
func (fr *Reader) ReadFrame() (*backupProto.Frame, error) {
	if !fr.headerRead {
		return nil, ErrHeaderNotRead
	}
	var frame backupProto.Frame
	ok, err := fr.readMessage(&frame)
	if err != nil || !ok {
		return nil, err
	}
	fr.frameCount++
	return &frame, nil
}

// FrameCount returns the number of frames read so far.
func (fr *Reader) FrameCount() int {
	return fr.frameCount
}

// Close releases the gzip reader if compression is enabled. The underlying reader is not closed.
func (fr *Reader) Close() error {
	if fr.gz != nil {
		return fr.gz.Close()
	}
	return nil
}
