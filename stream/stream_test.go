// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package stream

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"go.mau.fi/msgbackup/proto/backupProto"
)

func writeTestStream(t *testing.T, opts Options, frames int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, opts, nil)
	if err := w.WriteHeader(&backupProto.BackupInfo{Version: 1, BackupTimeMs: 1700000000000}); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	for i := 1; i <= frames; i++ {
		err := w.WriteFrame(&backupProto.Frame{Item: &backupProto.Frame_AdHocCall{AdHocCall: &backupProto.AdHocCall{
			CallID:        uint64(i),
			RecipientID:   1,
			State:         backupProto.AdHocCall_GENERIC,
			CallTimestamp: 1700000000000,
		}}})
		if err != nil {
			t.Fatalf("Failed to write frame %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	if w.FrameCount() != frames {
		t.Errorf("Expected %d frames to be counted, got %d", frames, w.FrameCount())
	}
	if w.BytesWritten() != int64(buf.Len()) {
		t.Errorf("Expected %d bytes to be counted, got %d", buf.Len(), w.BytesWritten())
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		opts := Options{Compress: compress}
		data := writeTestStream(t, opts, 3)
		r, err := NewReader(bytes.NewReader(data), opts, nil)
		if err != nil {
			t.Fatalf("Failed to create reader: %v", err)
		}
		info, err := r.ReadHeader()
		if err != nil {
			t.Fatalf("Failed to read header: %v", err)
		} else if info.Version != 1 || info.BackupTimeMs != 1700000000000 {
			t.Errorf("Unexpected header %+v", info)
		}
		for i := 1; i <= 3; i++ {
			frame, err := r.ReadFrame()
			if err != nil {
				t.Fatalf("Failed to read frame %d: %v", i, err)
			} else if call := frame.GetAdHocCall(); call == nil || call.CallID != uint64(i) {
				t.Errorf("Unexpected frame %d: %+v", i, frame)
			}
		}
		frame, err := r.ReadFrame()
		if frame != nil || err != nil {
			t.Errorf("Expected clean end of stream, got %v / %v", frame, err)
		}
		if r.FrameCount() != 3 {
			t.Errorf("Expected 3 frames to be counted, got %d", r.FrameCount())
		}
		_ = r.Close()
	}
}

func TestEmptyStreamHasNoHeader(t *testing.T) {
	r, err := NewReader(bytes.NewReader(nil), Options{}, nil)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	if _, err = r.ReadHeader(); !errors.Is(err, ErrMissingHeader) {
		t.Errorf("Expected ErrMissingHeader, got %v", err)
	}
}

func TestMalformedStreams(t *testing.T) {
	valid := writeTestStream(t, Options{}, 1)
	headerLen := 1 + int(valid[0])
	testCases := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"Truncated frame", valid[:len(valid)-1], ErrTruncatedFrame},
		{"Truncated length", append(bytes.Clone(valid[:headerLen]), 0x80), ErrInvalidLengthDelimiter},
		{"Too large", protowire.AppendVarint(bytes.Clone(valid[:headerLen]), DefaultMaxFrameSize+1), ErrFrameTooLarge},
		{"Garbage frame", append(bytes.Clone(valid[:headerLen]), 0x02, 0xff, 0xff), ErrMalformedFrame},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(tc.data), Options{}, nil)
			if err != nil {
				t.Fatalf("Failed to create reader: %v", err)
			}
			if _, err = r.ReadHeader(); err != nil {
				t.Fatalf("Failed to read header: %v", err)
			}
			frame, err := r.ReadFrame()
			if !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, got %v (frame %v)", tc.expected, err, frame)
			}
		})
	}
}

func TestWriterOrdering(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Options{}, nil)
	if err := w.WriteFrame(&backupProto.Frame{}); !errors.Is(err, ErrHeaderNotWritten) {
		t.Errorf("Expected ErrHeaderNotWritten, got %v", err)
	}
	if err := w.WriteHeader(&backupProto.BackupInfo{Version: 1}); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	if err := w.WriteHeader(&backupProto.BackupInfo{Version: 1}); !errors.Is(err, ErrHeaderAlreadyWritten) {
		t.Errorf("Expected ErrHeaderAlreadyWritten, got %v", err)
	}
	_ = w.Close()
	if err := w.WriteFrame(&backupProto.Frame{}); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Expected ErrStreamClosed, got %v", err)
	}
}

func TestWriterFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, Options{MaxFrameSize: 8}, nil)
	if err := w.WriteHeader(&backupProto.BackupInfo{Version: 1}); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	err := w.WriteFrame(&backupProto.Frame{Item: &backupProto.Frame_StickerPack{StickerPack: &backupProto.StickerPack{
		PackID:  make([]byte, 16),
		PackKey: make([]byte, 32),
	}}})
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Expected ErrFrameTooLarge, got %v", err)
	}
	// Oversized frames only fail themselves, the stream stays usable.
	if err = w.WriteFrame(&backupProto.Frame{Item: &backupProto.Frame_Chat{Chat: &backupProto.Chat{ID: 1}}}); err != nil {
		t.Fatalf("Expected small frame to be written after oversized one, got %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	if w.FrameCount() != 1 {
		t.Errorf("Expected 1 frame, got %d", w.FrameCount())
	}
	r, err := NewReader(&buf, Options{MaxFrameSize: 8}, nil)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	if _, err = r.ReadHeader(); err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	frame, err := r.ReadFrame()
	if err != nil || frame.GetChat() == nil || frame.GetChat().ID != 1 {
		t.Errorf("Expected the small frame back, got %v / %v", frame, err)
	}
}
