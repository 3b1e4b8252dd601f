// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package stream

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"google.golang.org/protobuf/encoding/protowire"

	"go.mau.fi/msgbackup/proto/backupProto"
	waLog "go.mau.fi/msgbackup/util/log"
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Writer writes a backup info header followed by any number of frames.
//
// Any write error is sticky: after the first failure every further call returns the same error.
type Writer struct {
	log     waLog.Logger
	counter *countingWriter
	gz      *gzip.Writer
	buf     *bufio.Writer
	maxSize int

	headerWritten bool
	closed        bool
	frameCount    int
	lengthBuf     []byte
	err           error
}

// NewWriter creates a frame writer on top of the given sink. Closing the writer flushes
// all buffers, but doesn't close the sink.
func NewWriter(w io.Writer, opts Options, log waLog.Logger) *Writer {
	if log == nil {
		log = waLog.Noop
	}
	fw := &Writer{
		log:     log,
		counter: &countingWriter{w: w},
		maxSize: opts.maxFrameSize(),
	}
	var target io.Writer = fw.counter
	if opts.Compress {
		fw.gz = gzip.NewWriter(fw.counter)
		target = fw.gz
	}
	fw.buf = bufio.NewWriter(target)
	return fw
}

func (fw *Writer) writeMessage(msg backupProto.Message) error {
	if fw.err != nil {
		return fw.err
	} else if fw.closed {
		return ErrStreamClosed
	}
	data := backupProto.Marshal(msg)
	if len(data) > fw.maxSize {
		return fmt.Errorf("%w (%d bytes, max %d)", ErrFrameTooLarge, len(data), fw.maxSize)
	}
	fw.lengthBuf = protowire.AppendVarint(fw.lengthBuf[:0], uint64(len(data)))
	if _, err := fw.buf.Write(fw.lengthBuf); err != nil {
		fw.err = fmt.Errorf("failed to write frame length: %w", err)
		return fw.err
	}
	if _, err := fw.buf.Write(data); err != nil {
		fw.err = fmt.Errorf("failed to write frame: %w", err)
		return fw.err
	}
	return nil
}

// WriteHeader writes the backup info header. It must be called exactly once, before any frames.
func (fw *Writer) WriteHeader(info *backupProto.BackupInfo) error {
	if fw.headerWritten {
		return ErrHeaderAlreadyWritten
	}
	err := fw.writeMessage(info)
	if err == nil {
		fw.headerWritten = true
	}
	return err
}

// WriteFrame appends a single frame to the stream.
func (fw *Writer) WriteFrame(frame *backupProto.Frame) error {
	if !fw.headerWritten {
		return ErrHeaderNotWritten
	}
	err := fw.writeMessage(frame)
	if err == nil {
		fw.frameCount++
	}
	return err
}

// FrameCount returns the number of frames written so far, not including the header.
func (fw *Writer) FrameCount() int {
	return fw.frameCount
}

// BytesWritten returns the number of bytes that have reached the underlying sink.
// Data is buffered, so the number is only exact after Close.
func (fw *Writer) BytesWritten() int64 {
	return fw.counter.n
}

// Close flushes buffered data and finishes the gzip stream if compression is enabled.
func (fw *Writer) Close() error {
	if fw.closed {
		return nil
	}
	fw.closed = true
	if fw.err != nil {
		return fw.err
	}
	if err := fw.buf.Flush(); err != nil {
		fw.err = fmt.Errorf("failed to flush frame stream: %w", err)
		return fw.err
	}
	if fw.gz != nil {
		if err := fw.gz.Close(); err != nil {
			fw.err = fmt.Errorf("failed to finish gzip stream: %w", err)
			return fw.err
		}
	}
	fw.log.Debugf("Closed frame stream after %d frames and %d bytes", fw.frameCount, fw.counter.n)
	return nil
}
