// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatitem

import (
	"context"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/types"
)

// Restore inserts the interaction described by a chat item frame into the chat's thread.
// Restoring the same chat item twice doesn't create a duplicate interaction.
func (a *Archiver) Restore(ctx context.Context, item *backupProto.ChatItem, rc *archive.RestoringContext) archive.RestoreFrameResult {
	id := archive.ChatItemID{ChatID: archive.ChatID(item.ChatID), DateSent: item.DateSent}
	chat, ok := rc.Chats.Lookup(id.ChatID)
	if !ok {
		return archive.RestoreFailure(archive.NewRestoreFrameError(archive.RestoreErrorReferencedChatMissing, id))
	} else if !archive.ValidTimestamp(item.DateSent) {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidTimestamp, id))
	} else if item.GetDirectionalDetails() == nil {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorMissingDirectionalDetails, id))
	} else if item.GetItem() == nil {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorMissingItem, id))
	}
	author, ok := rc.Recipients.Lookup(archive.RecipientID(item.AuthorID))
	if !ok {
		return archive.RestoreFailure(archive.NewRestoreFrameError(archive.RestoreErrorReferencedRecipientMissing, archive.RecipientID(item.AuthorID)))
	}

	interaction := &types.Interaction{
		ThreadID:          chat.ThreadID,
		Timestamp:         item.DateSent,
		ExpiresInMs:       item.ExpiresInMs,
		ExpireStartedAtMs: item.ExpireStartDate,
	}
	switch content := item.GetItem().(type) {
	case *backupProto.ChatItem_StandardMessage:
		interaction.Body = content.StandardMessage.GetText().GetBody()
		attachments, attachmentErr := restoreAttachments(content.StandardMessage.GetAttachments(), id)
		if attachmentErr != nil {
			return archive.RestoreFailure(attachmentErr)
		}
		interaction.Attachments = attachments
		if interaction.Body == "" && len(interaction.Attachments) == 0 {
			return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorEmptyMessageBody, id))
		}
		switch details := item.GetDirectionalDetails().(type) {
		case *backupProto.ChatItem_Incoming:
			if author.Kind != archive.AddressContact {
				return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorIncomingAuthorNotContact, id))
			}
			interaction.Kind = types.InteractionIncoming
			interaction.Author = author.UniqueID
			if details.Incoming != nil {
				interaction.ReceivedAtMs = details.Incoming.DateReceived
				interaction.Read = details.Incoming.Read
				interaction.SealedSender = details.Incoming.SealedSender
			}
		case *backupProto.ChatItem_Outgoing:
			if author.Kind != archive.AddressLocal {
				return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorOutgoingAuthorNotLocal, id))
			}
			interaction.Kind = types.InteractionOutgoing
			interaction.Read = true
		default:
			return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorMissingDirectionalDetails, id))
		}
	case *backupProto.ChatItem_UpdateMessage:
		if _, directionless := item.GetDirectionalDetails().(*backupProto.ChatItem_Directionless); !directionless {
			return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorUpdateNotDirectionless, id))
		}
		interaction.Kind = types.InteractionInfo
		interaction.Read = true
		if author.Kind == archive.AddressContact {
			interaction.Author = author.UniqueID
		}
		if updateErr := restoreUpdate(content.UpdateMessage, interaction, chat, id, rc); updateErr != nil {
			return archive.RestoreFailure(updateErr)
		}
	default:
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorMissingItem, id))
	}

	inserted, err := a.Interactions.PutInteraction(ctx, interaction)
	if err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))
	} else if !inserted {
		rc.Log.Debugf("Chat item %s was already restored", id.IDLogString())
		return archive.RestoreSuccess()
	}
	return archive.RestoreResultFromErrors(a.enqueueAttachmentDownloads(ctx, interaction, id, rc))
}

// restoreUpdate fills the info fields of the interaction. A non-nil error means the frame can't be restored.
func restoreUpdate(
	update *backupProto.ChatUpdateMessage,
	interaction *types.Interaction,
	chat archive.BoundChat,
	id archive.ChatItemID,
	rc *archive.RestoringContext,
) *archive.RestoreFrameError {
	switch u := update.GetUpdate().(type) {
	case *backupProto.ChatUpdateMessage_SimpleUpdate:
		simpleType, ok := simpleUpdateFromProto[u.SimpleUpdate.Type]
		if !ok {
			return archive.NewUnrecognizedEnumError(archive.ProtoErrorUnknownSimpleUpdate, id)
		}
		interaction.InfoType = types.InfoTypeSimple
		interaction.SimpleUpdate = simpleType
		return nil
	case *backupProto.ChatUpdateMessage_GroupChange:
		if chatRecipient, ok := rc.Recipients.Lookup(chat.RecipientID); !ok || chatRecipient.Kind != archive.AddressGroup {
			return archive.NewInvalidProtoError(archive.ProtoErrorGroupUpdateInNonGroupChat, id)
		}
		if len(u.GroupChange.GetUpdates()) == 0 {
			return archive.NewInvalidProtoError(archive.ProtoErrorEmptyGroupUpdate, id)
		}
		items, restoreErr := restoreGroupUpdates(u.GroupChange.GetUpdates(), id, rc)
		if restoreErr != nil {
			return restoreErr
		}
		interaction.InfoType = types.InfoTypeGroupUpdate
		interaction.GroupUpdate = &types.GroupUpdateMetadata{Items: items}
		return nil
	default:
		return archive.NewUnrecognizedEnumError(archive.ProtoErrorMissingItem, id)
	}
}
