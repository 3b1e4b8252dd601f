// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatitem

import (
	"context"

	"github.com/google/uuid"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/types"
)

var attachmentFlagToProto = map[types.AttachmentFlag]backupProto.MessageAttachment_Flag{
	types.AttachmentFlagNone:         backupProto.MessageAttachment_NONE,
	types.AttachmentFlagVoiceMessage: backupProto.MessageAttachment_VOICE_MESSAGE,
	types.AttachmentFlagBorderless:   backupProto.MessageAttachment_BORDERLESS,
	types.AttachmentFlagGIF:          backupProto.MessageAttachment_GIF,
}

var attachmentFlagFromProto = map[backupProto.MessageAttachment_Flag]types.AttachmentFlag{
	backupProto.MessageAttachment_NONE:          types.AttachmentFlagNone,
	backupProto.MessageAttachment_VOICE_MESSAGE: types.AttachmentFlagVoiceMessage,
	backupProto.MessageAttachment_BORDERLESS:    types.AttachmentFlagBorderless,
	backupProto.MessageAttachment_GIF:           types.AttachmentFlagGIF,
}

func archiveAttachments(attachments []types.MessageAttachment) []*backupProto.MessageAttachment {
	if len(attachments) == 0 {
		return nil
	}
	protos := make([]*backupProto.MessageAttachment, len(attachments))
	for i, attachment := range attachments {
		protos[i] = &backupProto.MessageAttachment{
			Pointer:       archiveFilePointer(&attachment.Pointer),
			Flag:          attachmentFlagToProto[attachment.Flag],
			WasDownloaded: attachment.WasDownloaded,
		}
		if attachment.ClientUUID != uuid.Nil {
			protos[i].ClientUUID = attachment.ClientUUID[:]
		}
	}
	return protos
}

func archiveFilePointer(pointer *types.AttachmentPointer) *backupProto.FilePointer {
	fp := &backupProto.FilePointer{
		ContentType: pointer.ContentType,
		FileName:    pointer.FileName,
		Width:       pointer.Width,
		Height:      pointer.Height,
		Caption:     pointer.Caption,
		BlurHash:    pointer.BlurHash,
	}
	if pointer.IsDownloadable() {
		fp.Locator = &backupProto.FilePointer_AttachmentLocator_{AttachmentLocator: &backupProto.FilePointer_AttachmentLocator{
			CDNKey:          pointer.CDNKey,
			CDNNumber:       pointer.CDNNumber,
			UploadTimestamp: pointer.UploadTimestamp,
			Key:             pointer.Key,
			Digest:          pointer.Digest,
			Size:            pointer.Size,
		}}
	} else {
		fp.Locator = &backupProto.FilePointer_InvalidAttachmentLocator_{
			InvalidAttachmentLocator: &backupProto.FilePointer_InvalidAttachmentLocator{},
		}
	}
	return fp
}

// restoreAttachments converts the attachments of a standard message. Any invalid attachment fails the whole message.
func restoreAttachments(protos []*backupProto.MessageAttachment, id archive.ChatItemID) ([]types.MessageAttachment, *archive.RestoreFrameError) {
	if len(protos) == 0 {
		return nil, nil
	}
	attachments := make([]types.MessageAttachment, len(protos))
	for i, proto := range protos {
		if proto.GetPointer() == nil {
			return nil, archive.NewInvalidProtoError(archive.ProtoErrorAttachmentMissingPointer, id)
		}
		if len(proto.ClientUUID) > 0 {
			clientUUID, err := uuid.FromBytes(proto.ClientUUID)
			if err != nil {
				return nil, archive.NewInvalidProtoError(archive.ProtoErrorInvalidAttachmentClientUUID, id)
			}
			attachments[i].ClientUUID = clientUUID
		}
		pointer, protoErr := restoreFilePointer(proto.Pointer)
		if protoErr != "" {
			return nil, archive.NewInvalidProtoError(protoErr, id)
		}
		attachments[i].Pointer = pointer
		// Flags from newer versions are rendered normally.
		attachments[i].Flag = attachmentFlagFromProto[proto.Flag]
		attachments[i].WasDownloaded = proto.WasDownloaded
	}
	return attachments, nil
}

func restoreFilePointer(fp *backupProto.FilePointer) (types.AttachmentPointer, archive.ProtoError) {
	pointer := types.AttachmentPointer{
		ContentType: fp.ContentType,
		FileName:    fp.FileName,
		Caption:     fp.Caption,
		BlurHash:    fp.BlurHash,
		Width:       fp.Width,
		Height:      fp.Height,
	}
	// Pointers without a transit tier locator are kept as undownloadable placeholders.
	loc := fp.GetAttachmentLocator()
	if loc == nil {
		return pointer, ""
	}
	switch {
	case loc.CDNKey == "":
		return pointer, archive.ProtoErrorFilePointerMissingCDNKey
	case len(loc.Key) == 0:
		return pointer, archive.ProtoErrorFilePointerMissingKey
	case len(loc.Digest) == 0:
		return pointer, archive.ProtoErrorFilePointerMissingDigest
	}
	pointer.CDNKey = loc.CDNKey
	pointer.CDNNumber = loc.CDNNumber
	pointer.UploadTimestamp = loc.UploadTimestamp
	pointer.Key = loc.Key
	pointer.Digest = loc.Digest
	pointer.Size = loc.Size
	return pointer, ""
}

// enqueueAttachmentDownloads queues every downloadable attachment of a freshly restored interaction.
// Failing to queue a download doesn't undo the restored message.
func (a *Archiver) enqueueAttachmentDownloads(
	ctx context.Context,
	interaction *types.Interaction,
	id archive.ChatItemID,
	rc *archive.RestoringContext,
) (errs []*archive.RestoreFrameError) {
	for i := range interaction.Attachments {
		pointer := &interaction.Attachments[i].Pointer
		if !pointer.IsDownloadable() {
			continue
		}
		queued, err := a.Downloads.EnqueueAttachmentDownload(ctx, interaction.UniqueID, i, pointer)
		if err != nil {
			errs = append(errs, archive.WrapRestoreFrameError(archive.RestoreErrorEnqueueDownloadFailed, id, err))
		} else if queued {
			rc.Log.Debugf("Queued attachment %d of %s for download", i, id.IDLogString())
		}
	}
	return
}
