// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package msgbackup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/stream"
)

// ExportOptions contains the parameters of a single export.
type ExportOptions struct {
	// Versions of the app writing the backup and the app that originally created the account.
	AppVersion      string
	FirstAppVersion string

	Compress     bool
	MaxFrameSize int
}

type archiveFunc func(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error)

type exportStep struct {
	phase Phase
	fn    archiveFunc
}

// The order matters: frames may only reference identifiers that were assigned by earlier frames.
func (m *Manager) exportSteps() []exportStep {
	return []exportStep{
		{PhaseRecipients, m.recipients.ArchiveAll},
		{PhaseChats, m.chats.ArchiveAll},
		{PhaseChatItems, m.chatItems.ArchiveAll},
		{PhaseStickerPacks, m.stickerPacks.ArchiveAll},
		{PhaseAdHocCalls, m.adHocCalls.ArchiveAll},
	}
}

// Export writes a backup of everything in the stores to w.
//
// The whole export runs inside a single database transaction, so the backup is a consistent snapshot.
// Rows that can't be exported are skipped and reported in the returned outcome. The outcome is also
// returned alongside an error if the export fails or is cancelled through ctx.
func (m *Manager) Export(ctx context.Context, w io.Writer, opts ExportOptions) (*Outcome, error) {
	if m.Local.ACI.IsEmpty() {
		return nil, ErrMissingLocalIdentifiers
	}
	log := m.Log.Sub("Export")
	out := &Outcome{Direction: archive.DirectionExport, Phase: PhaseNotStarted}
	var ac *archive.ArchivingContext
	var fw *stream.Writer
	var result archive.ArchiveMultiFrameResult
	err := m.Stores.Transactor.DoTxn(ctx, func(ctx context.Context) error {
		ac = archive.NewArchivingContext(ctx, m.Local, log)
		fw = stream.NewWriter(w, stream.Options{Compress: opts.Compress, MaxFrameSize: opts.MaxFrameSize}, log.Sub("Stream"))
		err := fw.WriteHeader(&backupProto.BackupInfo{
			Version:           SupportedBackupVersion,
			BackupTimeMs:      ac.StartTimestampMs,
			CurrentAppVersion: opts.AppVersion,
			FirstAppVersion:   opts.FirstAppVersion,
		})
		if err != nil {
			result = archive.ArchiveCompleteFailure(archive.NewFatalArchivingError(archive.FatalStreamWriteFailed, err), nil)
			return nil
		}
		for _, step := range m.exportSteps() {
			if err = ac.Bencher.Checkpoint(); err != nil {
				return err
			}
			m.setPhase(out, step.phase)
			stepResult, err := step.fn(ctx, fw, ac)
			result = result.Merge(stepResult)
			if err != nil {
				return err
			} else if result.Fatal != nil {
				return nil
			}
		}
		return nil
	})
	if ac == nil {
		return nil, fmt.Errorf("%w: failed to start transaction: %w", ErrExportFailed, err)
	} else if err != nil && !errors.Is(err, archive.ErrCancelled) && result.Fatal == nil {
		result.Fatal = archive.NewFatalArchivingError(archive.FatalEnumerationFailed, err)
	}
	if err == nil && result.Fatal == nil {
		if closeErr := fw.Close(); closeErr != nil {
			result.Fatal = archive.NewFatalArchivingError(archive.FatalStreamWriteFailed, closeErr)
		}
	} else {
		_ = fw.Close()
	}

	out.Status = result.Status()
	if err != nil {
		out.Status = archive.StatusCompleteFailure
	}
	out.Errors = archive.Collapse(result.Errors)
	out.Summary = archive.Summarize(out.Errors, 0)
	out.Frames = fw.FrameCount()
	out.BytesWritten = fw.BytesWritten()
	archive.LogCollapsed(log, out.Errors)
	if result.Fatal != nil {
		log.Errorf("Export failed in %s phase: %v", out.Phase, result.Fatal)
	}
	out.Duration = ac.Bencher.Finish(log, out.Status)

	switch {
	case result.Fatal != nil:
		out.Fatal = result.Fatal
		m.setPhase(out, PhaseAborted)
		return out, fmt.Errorf("%w: %w", ErrExportFailed, result.Fatal)
	case err != nil:
		out.Fatal = err
		m.setPhase(out, PhaseAborted)
		return out, err
	default:
		m.setPhase(out, PhaseCompleted)
		log.Infof("Exported %d frames (%d bytes) with %d issues", out.Frames, out.BytesWritten, out.Summary.Issues)
		return out, nil
	}
}
