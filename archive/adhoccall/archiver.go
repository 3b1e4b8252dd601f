// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package adhoccall archives calls that happened in call links rather than in threads.
package adhoccall

import (
	"context"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

type Archiver struct {
	CallRecords store.CallRecordStore
	CallLinks   store.CallLinkRecordStore
}

func NewArchiver(stores store.AllStores) *Archiver {
	return &Archiver{
		CallRecords: stores.CallRecords,
		CallLinks:   stores.CallLinks,
	}
}

// ArchiveAll writes one frame per ad-hoc call record. Call link recipients must have been archived first.
//
// The state of the call is always written as generic: clients only agree on that one value.
func (a *Archiver) ArchiveAll(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	var errs []*archive.ArchiveFrameError
	err := a.CallRecords.EnumerateAdHocCallRecords(ctx, func(record *types.CallRecord) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindAdHocCall)()
		if !archive.ValidTimestamp(record.CallBeganTimestamp) {
			errs = append(errs, archive.NewArchiveFrameError(archive.ArchiveErrorInvalidAdHocCallTimestamp, record.CallID))
			return nil
		}
		recipientID, ok := ac.Recipients.Lookup(archive.CallLinkAddress(record.Conversation.RoomID))
		if record.Conversation.Kind != types.CallConversationCallLink || !ok {
			errs = append(errs, archive.NewArchiveFrameError(archive.ArchiveErrorAdHocCallMissingRecipient, record.CallID))
			return nil
		}
		frameErr, err := archive.WriteFrame(w, &backupProto.Frame{Item: &backupProto.Frame_AdHocCall{AdHocCall: &backupProto.AdHocCall{
			CallID:        uint64(record.CallID),
			RecipientID:   uint64(recipientID),
			State:         backupProto.AdHocCall_GENERIC,
			CallTimestamp: record.CallBeganTimestamp,
		}}}, record.CallID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	return archive.FinishEnumeration(err, errs)
}

// Restore inserts the call record and marks its call link as having had a call.
//
// Every state is restored as generic. Failing to update the call link only makes the result partial,
// the frame only fails if the call record itself can't be inserted.
func (a *Archiver) Restore(ctx context.Context, call *backupProto.AdHocCall, rc *archive.RestoringContext) archive.RestoreFrameResult {
	id := archive.AdHocCallID{CallID: call.CallID, RecipientID: archive.RecipientID(call.RecipientID)}
	if call.CallID == 0 {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorAdHocCallMissingCallID, id))
	} else if !archive.ValidTimestamp(call.CallTimestamp) {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidTimestamp, id))
	}
	addr, ok := rc.Recipients.Lookup(id.RecipientID)
	if !ok {
		return archive.RestoreFailure(archive.NewRestoreFrameError(archive.RestoreErrorReferencedRecipientMissing, id))
	} else if addr.Kind != archive.AddressCallLink {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorAdHocCallRecipientNotLink, id))
	}

	var errs []*archive.RestoreFrameError
	if err := a.CallLinks.MarkCallLinkHasAnyCall(ctx, addr.RoomID); err != nil {
		errs = append(errs, archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseUpdateFailed, id, err))
	}
	err := a.CallRecords.PutCallRecord(ctx, &types.CallRecord{
		CallID: types.CallID(call.CallID),
		Conversation: types.CallConversationID{
			Kind:   types.CallConversationCallLink,
			RoomID: addr.RoomID,
		},
		Type:               types.CallTypeAdHoc,
		Direction:          types.CallDirectionIncoming,
		Status:             types.CallStatusGeneric,
		CallBeganTimestamp: call.CallTimestamp,
	})
	if err != nil {
		return archive.RestoreFailure(append(errs, archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))...)
	}
	return archive.RestoreResultFromErrors(errs)
}
