// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

import (
	"context"
	"time"

	"go.mau.fi/msgbackup/types"
	waLog "go.mau.fi/msgbackup/util/log"
)

// ArchivingContext is the state shared by all archivers during one export.
//
// The database transaction isn't stored here: it's carried by the context.Context passed to each archiver.
type ArchivingContext struct {
	Bencher          *Bencher
	StartTimestampMs uint64
	Local            types.LocalIdentifiers
	LocalRecipientID RecipientID
	Recipients       *RecipientArchivingContext
	Chats            *ChatArchivingContext
	Log              waLog.Logger
}

// NewArchivingContext creates the context for an export and assigns the first recipient ID to the local user.
func NewArchivingContext(ctx context.Context, local types.LocalIdentifiers, log waLog.Logger) *ArchivingContext {
	if log == nil {
		log = waLog.Noop
	}
	ac := &ArchivingContext{
		Bencher:          NewBencher(ctx, DirectionExport),
		StartTimestampMs: uint64(time.Now().UnixMilli()),
		Local:            local,
		Recipients:       NewRecipientArchivingContext(),
		Chats:            NewChatArchivingContext(),
		Log:              log,
	}
	ac.LocalRecipientID = ac.Recipients.Assign(LocalAddress(local))
	return ac
}

// RestoringContext is the state shared by all archivers during one import.
type RestoringContext struct {
	Bencher          *Bencher
	StartTimestampMs uint64
	Local            types.LocalIdentifiers
	// Zero until the self recipient frame has been restored.
	LocalRecipientID RecipientID
	Recipients       *RecipientRestoringContext
	Chats            *ChatRestoringContext
	Log              waLog.Logger
}

func NewRestoringContext(ctx context.Context, local types.LocalIdentifiers, log waLog.Logger) *RestoringContext {
	if log == nil {
		log = waLog.Noop
	}
	return &RestoringContext{
		Bencher:          NewBencher(ctx, DirectionImport),
		StartTimestampMs: uint64(time.Now().UnixMilli()),
		Local:            local,
		Recipients:       NewRecipientRestoringContext(),
		Chats:            NewChatRestoringContext(),
		Log:              log,
	}
}

func updaterFromACI(local types.LocalIdentifiers, aci types.ACI) types.Updater {
	switch {
	case aci.IsEmpty():
		return types.UnknownUpdater
	case local.Contains(aci):
		return types.LocalUserUpdater
	default:
		return types.OtherUserUpdater(aci)
	}
}

// UpdaterFromACI resolves the author of a group change relative to the local user.
func (ac *ArchivingContext) UpdaterFromACI(aci types.ACI) types.Updater {
	return updaterFromACI(ac.Local, aci)
}

// UpdaterFromACI resolves the author of a group change relative to the local user.
func (rc *RestoringContext) UpdaterFromACI(aci types.ACI) types.Updater {
	return updaterFromACI(rc.Local, aci)
}
