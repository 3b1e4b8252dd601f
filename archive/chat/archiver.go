// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package chat archives threads as chat frames.
package chat

import (
	"context"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

type Archiver struct {
	Threads    store.ThreadStore
	Recipients store.RecipientStore
}

func NewArchiver(stores store.AllStores) *Archiver {
	return &Archiver{
		Threads:    stores.Threads,
		Recipients: stores.Recipients,
	}
}

// ArchiveAll writes one chat frame per thread. Recipients must have been archived first,
// threads whose recipient wasn't assigned an ID are reported as errors.
func (a *Archiver) ArchiveAll(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	var errs []*archive.ArchiveFrameError
	err := a.Threads.EnumerateThreads(ctx, func(thread *types.Thread) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindChat)()
		recipientID, frameErr := a.resolveRecipient(ctx, thread, ac)
		if frameErr != nil {
			errs = append(errs, frameErr)
			return nil
		}
		chatID := ac.Chats.Assign(thread.UniqueID)
		frameErr, err := archive.WriteFrame(w, &backupProto.Frame{Item: &backupProto.Frame_Chat{Chat: &backupProto.Chat{
			ID:                uint64(chatID),
			RecipientID:       uint64(recipientID),
			Archived:          thread.Archived,
			PinnedOrder:       thread.PinnedOrder,
			ExpirationTimerMs: thread.ExpirationTimerMs,
			MuteUntilMs:       thread.MuteUntilMs,
			MarkedUnread:      thread.MarkedUnread,
		}}}, thread.UniqueID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	return archive.FinishEnumeration(err, errs)
}

func (a *Archiver) resolveRecipient(ctx context.Context, thread *types.Thread, ac *archive.ArchivingContext) (archive.RecipientID, *archive.ArchiveFrameError) {
	switch thread.Kind {
	case types.ThreadKindContact:
		recipient, err := a.Recipients.GetRecipient(ctx, thread.ContactRecipient)
		if err != nil {
			return 0, archive.WrapArchiveFrameError(archive.ArchiveErrorDatabaseError, thread.UniqueID, err)
		} else if recipient == nil || !recipient.HasIdentifier() {
			return 0, archive.NewArchiveFrameError(archive.ArchiveErrorContactThreadMissingAddress, thread.UniqueID)
		}
		id, ok := ac.Recipients.Lookup(archive.ContactAddress(recipient))
		if !ok {
			return 0, archive.NewArchiveFrameError(archive.ArchiveErrorReferencedRecipientIDMissing, thread.UniqueID)
		}
		return id, nil
	case types.ThreadKindGroup:
		id, ok := ac.Recipients.Lookup(archive.GroupAddress(thread.GroupID))
		if !ok {
			return 0, archive.NewArchiveFrameError(archive.ArchiveErrorGroupThreadMissingGroup, thread.UniqueID)
		}
		return id, nil
	default:
		return 0, archive.NewArchiveFrameError(archive.ArchiveErrorContactThreadMissingAddress, thread.UniqueID)
	}
}

// Restore fetches or creates the thread of the chat's recipient, updates its settings and binds the chat ID to it.
func (a *Archiver) Restore(ctx context.Context, chat *backupProto.Chat, rc *archive.RestoringContext) archive.RestoreFrameResult {
	chatID := archive.ChatID(chat.ID)
	if _, alreadyBound := rc.Chats.Lookup(chatID); alreadyBound {
		return archive.RestoreFailure(archive.NewRestoreFrameError(archive.RestoreErrorDuplicateID, chatID))
	}
	recipientID := archive.RecipientID(chat.RecipientID)
	addr, ok := rc.Recipients.Lookup(recipientID)
	if !ok {
		return archive.RestoreFailure(archive.NewRestoreFrameError(archive.RestoreErrorReferencedRecipientMissing, recipientID))
	}

	var thread *types.Thread
	var err error
	switch addr.Kind {
	case archive.AddressContact, archive.AddressLocal:
		thread, err = a.Threads.GetContactThread(ctx, addr.UniqueID)
		if thread == nil && err == nil {
			thread = &types.Thread{Kind: types.ThreadKindContact, ContactRecipient: addr.UniqueID}
		}
	case archive.AddressGroup:
		thread, err = a.Threads.GetGroupThread(ctx, addr.GroupID)
		if thread == nil && err == nil {
			thread = &types.Thread{Kind: types.ThreadKindGroup, GroupID: addr.GroupID}
		}
	default:
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorChatRecipientNotChattable, chatID))
	}
	if err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, chatID, err))
	}
	thread.Archived = chat.Archived
	thread.MarkedUnread = chat.MarkedUnread
	thread.PinnedOrder = chat.PinnedOrder
	thread.MuteUntilMs = chat.MuteUntilMs
	thread.ExpirationTimerMs = chat.ExpirationTimerMs
	if err = a.Threads.PutThread(ctx, thread); err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, chatID, err))
	}
	rc.Chats.Bind(chatID, thread.UniqueID, recipientID)
	return archive.RestoreSuccess()
}
