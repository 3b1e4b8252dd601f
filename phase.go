// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package msgbackup

import (
	"time"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
)

// Phase is the step a backup pass is in. Passes go from PhaseNotStarted through the entity families
// in dependency order, and end in either PhaseCompleted or PhaseAborted.
type Phase string

const (
	PhaseNotStarted   Phase = "not_started"
	PhaseRecipients   Phase = "recipients"
	PhaseChats        Phase = "chats"
	PhaseChatItems    Phase = "chat_items"
	PhaseStickerPacks Phase = "sticker_packs"
	PhaseAdHocCalls   Phase = "ad_hoc_calls"
	PhaseCompleted    Phase = "completed"
	PhaseAborted      Phase = "aborted"
)

func phaseForFrameKind(kind archive.FrameKind) Phase {
	switch kind {
	case archive.FrameKindRecipient:
		return PhaseRecipients
	case archive.FrameKindChat:
		return PhaseChats
	case archive.FrameKindChatItem:
		return PhaseChatItems
	case archive.FrameKindStickerPack:
		return PhaseStickerPacks
	case archive.FrameKindAdHocCall:
		return PhaseAdHocCalls
	default:
		return ""
	}
}

// Outcome is the result of a whole export or import.
type Outcome struct {
	Direction archive.Direction
	Status    archive.ResultStatus
	// The phase the pass ended in. If the pass was aborted, FailedPhase is the family that was being processed.
	Phase       Phase
	FailedPhase Phase
	// Non-fatal errors grouped by kind and callsite.
	Errors  []*archive.CollapsedError
	Summary archive.Summary
	// The error that made the pass fail, if any.
	Fatal error

	Frames       int
	BytesWritten int64
	Duration     time.Duration

	// Only set for imports.
	Header *backupProto.BackupInfo
}

// OnPhaseFunc is called whenever a backup pass moves to a new phase.
type OnPhaseFunc func(direction archive.Direction, phase Phase)

func (m *Manager) setPhase(out *Outcome, phase Phase) {
	if out.Phase == phase || phase == "" {
		return
	}
	if phase == PhaseAborted {
		out.FailedPhase = out.Phase
	}
	out.Phase = phase
	if m.OnPhase != nil {
		m.OnPhase(out.Direction, phase)
	}
}
