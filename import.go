// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package msgbackup

import (
	"context"
	"fmt"
	"io"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/stream"
)

// ImportOptions contains the parameters of a single import.
type ImportOptions struct {
	Compress     bool
	MaxFrameSize int

	// FailOnAnyError aborts and rolls back the import if any frame fails to restore.
	FailOnAnyError bool
	// CommitOnCancel commits the frames restored so far if ctx is cancelled, instead of rolling back.
	CommitOnCancel bool
}

// Import restores the backup in r into the stores.
//
// The whole import runs inside a single database transaction. The transaction doesn't inherit the
// cancellation of ctx: cancelling ctx stops reading frames, and opts.CommitOnCancel decides whether
// the frames restored so far are kept. Frames that can't be restored are skipped and reported in the
// returned outcome, unless opts.FailOnAnyError is set.
//
// A backup can only be imported once. After a successful import, FinalizeImport should be called.
func (m *Manager) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*Outcome, error) {
	log := m.Log.Sub("Import")
	state, err := m.GetRestoreState(ctx)
	if err != nil {
		return nil, err
	} else if state != RestoreStateNone {
		return nil, fmt.Errorf("%w (state: %q)", ErrAlreadyRestored, state)
	}
	fr, err := stream.NewReader(r, stream.Options{Compress: opts.Compress, MaxFrameSize: opts.MaxFrameSize}, log.Sub("Stream"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackupHeader, err)
	}
	defer fr.Close()
	header, err := fr.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackupHeader, err)
	} else if header.Version != SupportedBackupVersion {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedVersion, header.Version)
	}
	log.Infof("Importing backup version %d created at %d by %s", header.Version, header.BackupTimeMs, header.CurrentAppVersion)

	out := &Outcome{Direction: archive.DirectionImport, Phase: PhaseNotStarted, Header: header}
	rc := archive.NewRestoringContext(ctx, m.Local, log)
	var errs []*archive.RestoreFrameError
	var dropped int
	var fatal, cancelErr error
	err = m.Stores.Transactor.DoTxn(context.WithoutCancel(ctx), func(ctx context.Context) error {
		for {
			if err := rc.Bencher.Checkpoint(); err != nil {
				cancelErr = err
				if opts.CommitOnCancel {
					return nil
				}
				return err
			}
			frame, err := fr.ReadFrame()
			if err != nil {
				fatal = fmt.Errorf("%w: %w", ErrMalformedStream, err)
				return fatal
			} else if frame == nil {
				break
			}
			result := m.restoreFrame(ctx, out, frame, rc, fr.FrameCount())
			errs = append(errs, result.Errors...)
			if result.Status() == archive.StatusCompleteFailure {
				dropped++
				if opts.FailOnAnyError {
					fatal = fmt.Errorf("%w #%d", ErrFrameRestoreFailed, fr.FrameCount())
					return fatal
				}
			}
		}
		return m.setRestoreState(ctx, RestoreStateUnfinalized)
	})
	if err != nil && fatal == nil && cancelErr == nil {
		fatal = err
	}

	out.Errors = archive.Collapse(errs)
	out.Summary = archive.Summarize(out.Errors, dropped)
	out.Frames = fr.FrameCount()
	switch {
	case fatal != nil, cancelErr != nil:
		out.Status = archive.StatusCompleteFailure
	case len(errs) > 0:
		out.Status = archive.StatusPartialSuccess
	default:
		out.Status = archive.StatusSuccess
	}
	archive.LogCollapsed(log, out.Errors)
	out.Duration = rc.Bencher.Finish(log, out.Status)

	switch {
	case fatal != nil:
		log.Errorf("Import failed in %s phase after %d frames: %v", out.Phase, out.Frames, fatal)
		out.Fatal = fatal
		m.setPhase(out, PhaseAborted)
		return out, fatal
	case cancelErr != nil:
		if opts.CommitOnCancel {
			log.Warnf("Import cancelled after %d frames, committed restored frames", out.Frames)
		} else {
			log.Warnf("Import cancelled after %d frames, rolled back", out.Frames)
		}
		out.Fatal = cancelErr
		m.setPhase(out, PhaseAborted)
		return out, cancelErr
	default:
		m.setPhase(out, PhaseCompleted)
		log.Infof("Imported %d frames with %d issues (%d frames dropped)", out.Frames, out.Summary.Issues, dropped)
		return out, nil
	}
}

func (m *Manager) restoreFrame(ctx context.Context, out *Outcome, frame *backupProto.Frame, rc *archive.RestoringContext, index int) archive.RestoreFrameResult {
	kind := frameKind(frame)
	m.setPhase(out, phaseForFrameKind(kind))
	done := rc.Bencher.BeginFrame(kind)
	defer done()
	switch item := frame.GetItem().(type) {
	case *backupProto.Frame_Recipient:
		return m.recipients.Restore(ctx, item.Recipient, rc)
	case *backupProto.Frame_Chat:
		return m.chats.Restore(ctx, item.Chat, rc)
	case *backupProto.Frame_ChatItem:
		return m.chatItems.Restore(ctx, item.ChatItem, rc)
	case *backupProto.Frame_StickerPack:
		return m.stickerPacks.Restore(ctx, item.StickerPack, rc)
	case *backupProto.Frame_AdHocCall:
		return m.adHocCalls.Restore(ctx, item.AdHocCall, rc)
	default:
		// Frame types from newer versions are skipped without failing the frame.
		return archive.RestoreResultFromErrors([]*archive.RestoreFrameError{
			archive.NewUnrecognizedEnumError(archive.ProtoErrorUnknownFrameType, archive.FrameIndex(index)),
		})
	}
}

func frameKind(frame *backupProto.Frame) archive.FrameKind {
	switch frame.GetItem().(type) {
	case *backupProto.Frame_Recipient:
		return archive.FrameKindRecipient
	case *backupProto.Frame_Chat:
		return archive.FrameKindChat
	case *backupProto.Frame_ChatItem:
		return archive.FrameKindChatItem
	case *backupProto.Frame_StickerPack:
		return archive.FrameKindStickerPack
	case *backupProto.Frame_AdHocCall:
		return archive.FrameKindAdHocCall
	default:
		return archive.FrameKindUnknown
	}
}
