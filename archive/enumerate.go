// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

import (
	"errors"

	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/stream"
)

type streamWriteError struct {
	err error
}

func (swe *streamWriteError) Error() string { return swe.err.Error() }
func (swe *streamWriteError) Unwrap() error { return swe.err }

// WriteFrame writes the frame of the row with the given ID to the stream.
//
// A frame that exceeds the maximum size only fails its own row: it is returned as a frame error
// and nothing is written. Any other error is marked so that FinishEnumeration reports it as
// a stream failure rather than an enumeration failure.
func WriteFrame(w *stream.Writer, frame *backupProto.Frame, id LoggableID) (*ArchiveFrameError, error) {
	err := w.WriteFrame(frame)
	if errors.Is(err, stream.ErrFrameTooLarge) {
		return &ArchiveFrameError{Type: ArchiveErrorFrameTooLarge, ID: id, Raw: err, Callsite: callsite(1)}, nil
	} else if err != nil {
		return nil, &streamWriteError{err: err}
	}
	return nil, nil
}

// FinishEnumeration converts the return value of a store enumeration into an archiving result.
//
// Enumeration callbacks only return errors to stop: cancellation, which is returned as-is in the second
// return value, and stream write errors from WriteFrame. Any other error came from the store itself.
func FinishEnumeration(err error, errs []*ArchiveFrameError) (ArchiveMultiFrameResult, error) {
	var swe *streamWriteError
	switch {
	case err == nil:
		return ArchiveResultFromErrors(errs), nil
	case errors.Is(err, ErrCancelled):
		return ArchiveResultFromErrors(errs), err
	case errors.As(err, &swe):
		return ArchiveCompleteFailure(NewFatalArchivingError(FatalStreamWriteFailed, swe.err), errs), nil
	default:
		return ArchiveCompleteFailure(NewFatalArchivingError(FatalEnumerationFailed, err), errs), nil
	}
}

// Merge appends the errors of other to r. The first fatal error wins.
func (r ArchiveMultiFrameResult) Merge(other ArchiveMultiFrameResult) ArchiveMultiFrameResult {
	r.Errors = append(r.Errors, other.Errors...)
	if r.Fatal == nil {
		r.Fatal = other.Fatal
	}
	return r
}
