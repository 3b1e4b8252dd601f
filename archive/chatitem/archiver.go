// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package chatitem archives the interactions of every thread: text messages, simple chat updates and group updates.
package chatitem

import (
	"context"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

type Archiver struct {
	Interactions store.InteractionStore
	Recipients   store.RecipientStore
	Downloads    store.AttachmentDownloadStore
}

func NewArchiver(stores store.AllStores) *Archiver {
	return &Archiver{
		Interactions: stores.Interactions,
		Recipients:   stores.Recipients,
		Downloads:    stores.AttachmentDownloads,
	}
}

// authorCache remembers the recipient IDs of message authors for the duration of one export.
type authorCache map[types.RecipientUniqueID]archive.RecipientID

// ArchiveAll writes one chat item frame per interaction. Chats must have been archived first.
//
// Skippable interactions are left out silently, failed ones are reported and left out.
func (a *Archiver) ArchiveAll(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	var errs []*archive.ArchiveFrameError
	authors := make(authorCache)
	err := a.Interactions.EnumerateInteractions(ctx, func(interaction *types.Interaction) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindChatItem)()
		res := a.archiveInteraction(ctx, interaction, authors, ac)
		item, newErrs, ok := res.Bubble(errs)
		errs = newErrs
		if !ok {
			if res.IsSkippable() {
				ac.Log.Debugf("Skipping interaction %s: %s", interaction.UniqueID, res.SkipReason)
			} else {
				errs = append(errs, res.Errors...)
			}
			return nil
		}
		frameErr, err := archive.WriteFrame(w, &backupProto.Frame{Item: &backupProto.Frame_ChatItem{ChatItem: item}}, interaction.UniqueID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	return archive.FinishEnumeration(err, errs)
}

func (a *Archiver) archiveInteraction(
	ctx context.Context,
	interaction *types.Interaction,
	authors authorCache,
	ac *archive.ArchivingContext,
) archive.InteractionResult[*backupProto.ChatItem] {
	chatID, ok := ac.Chats.Lookup(interaction.ThreadID)
	if !ok {
		return archive.InteractionFail[*backupProto.ChatItem](
			archive.NewArchiveFrameError(archive.ArchiveErrorReferencedChatIDMissing, interaction.UniqueID),
		)
	}
	id := archive.ChatItemID{ChatID: chatID, DateSent: interaction.Timestamp}
	if !archive.ValidTimestamp(interaction.Timestamp) {
		return archive.InteractionFail[*backupProto.ChatItem](archive.NewArchiveFrameError(archive.ArchiveErrorInvalidChatItemTimestamp, id))
	}
	if interaction.ExpiresInMs > 0 && interaction.ExpireStartedAtMs > 0 &&
		interaction.ExpireStartedAtMs+interaction.ExpiresInMs <= ac.StartTimestampMs {
		return archive.InteractionSkip[*backupProto.ChatItem](archive.SkipExpiredDisappearingMessage)
	}
	item := &backupProto.ChatItem{
		ChatID:          uint64(chatID),
		DateSent:        interaction.Timestamp,
		ExpireStartDate: interaction.ExpireStartedAtMs,
		ExpiresInMs:     interaction.ExpiresInMs,
	}

	switch interaction.Kind {
	case types.InteractionIncoming, types.InteractionOutgoing:
		if interaction.Body == "" && len(interaction.Attachments) == 0 {
			return archive.InteractionFail[*backupProto.ChatItem](archive.NewArchiveFrameError(archive.ArchiveErrorEmptyMessageBody, id))
		}
		msg := &backupProto.StandardMessage{Attachments: archiveAttachments(interaction.Attachments)}
		if interaction.Body != "" {
			msg.Text = &backupProto.Text{Body: interaction.Body}
		}
		item.Item = &backupProto.ChatItem_StandardMessage{StandardMessage: msg}
		if interaction.Kind == types.InteractionOutgoing {
			item.AuthorID = uint64(ac.LocalRecipientID)
			item.DirectionalDetails = &backupProto.ChatItem_Outgoing{Outgoing: &backupProto.ChatItem_OutgoingMessageDetails{}}
			return archive.InteractionOK(item)
		}
		if interaction.Author == "" {
			return archive.InteractionFail[*backupProto.ChatItem](archive.NewArchiveFrameError(archive.ArchiveErrorMissingAuthor, id))
		}
		authorID, frameErr := a.resolveAuthor(ctx, interaction.Author, authors, id, ac)
		if frameErr != nil {
			return archive.InteractionFail[*backupProto.ChatItem](frameErr)
		}
		item.AuthorID = uint64(authorID)
		item.DirectionalDetails = &backupProto.ChatItem_Incoming{Incoming: &backupProto.ChatItem_IncomingMessageDetails{
			DateReceived:   interaction.ReceivedAtMs,
			DateServerSent: interaction.ReceivedAtMs,
			Read:           interaction.Read,
			SealedSender:   interaction.SealedSender,
		}}
		return archive.InteractionOK(item)
	case types.InteractionInfo:
		item.AuthorID = uint64(ac.LocalRecipientID)
		if interaction.Author != "" {
			authorID, frameErr := a.resolveAuthor(ctx, interaction.Author, authors, id, ac)
			if frameErr != nil {
				return archive.InteractionFail[*backupProto.ChatItem](frameErr)
			}
			item.AuthorID = uint64(authorID)
		}
		item.DirectionalDetails = &backupProto.ChatItem_Directionless{Directionless: &backupProto.ChatItem_DirectionlessMessageDetails{}}
		var errs []*archive.ArchiveFrameError
		var update *backupProto.ChatUpdateMessage
		switch interaction.InfoType {
		case types.InfoTypeSimple:
			wireType, ok := simpleUpdateToProto[interaction.SimpleUpdate]
			if !ok {
				return archive.InteractionFail[*backupProto.ChatItem](archive.NewArchiveFrameError(archive.ArchiveErrorUnknownSimpleUpdate, id))
			}
			update = &backupProto.ChatUpdateMessage{Update: &backupProto.ChatUpdateMessage_SimpleUpdate{
				SimpleUpdate: &backupProto.SimpleChatUpdate{Type: wireType},
			}}
		case types.InfoTypeGroupUpdate:
			res := archiveGroupUpdate(interaction, id, ac)
			update, errs, ok = res.Bubble(errs)
			if !ok {
				return archive.Abort[*backupProto.ChatItem](res, errs)
			}
		default:
			return archive.InteractionSkip[*backupProto.ChatItem](archive.SkipUnsupportedInteractionType)
		}
		item.Item = &backupProto.ChatItem_UpdateMessage{UpdateMessage: update}
		return archive.InteractionPartial(item, errs)
	default:
		return archive.InteractionFail[*backupProto.ChatItem](archive.NewArchiveFrameError(archive.ArchiveErrorUnknownInteractionKind, id))
	}
}

func (a *Archiver) resolveAuthor(
	ctx context.Context,
	author types.RecipientUniqueID,
	authors authorCache,
	id archive.ChatItemID,
	ac *archive.ArchivingContext,
) (archive.RecipientID, *archive.ArchiveFrameError) {
	if recipientID, ok := authors[author]; ok {
		return recipientID, nil
	}
	recipient, err := a.Recipients.GetRecipient(ctx, author)
	if err != nil {
		return 0, archive.WrapArchiveFrameError(archive.ArchiveErrorDatabaseError, id, err)
	} else if recipient == nil {
		return 0, archive.NewArchiveFrameError(archive.ArchiveErrorMissingAuthor, id)
	}
	recipientID, ok := ac.Recipients.Lookup(archive.ContactAddress(recipient))
	if !ok {
		return 0, archive.NewArchiveFrameError(archive.ArchiveErrorReferencedRecipientIDMissing, id)
	}
	authors[author] = recipientID
	return recipientID, nil
}
