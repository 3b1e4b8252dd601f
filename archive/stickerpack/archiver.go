// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package stickerpack archives sticker packs and downloads the packs queued by restores.
package stickerpack

import (
	"context"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

type Archiver struct {
	Packs     store.StickerPackStore
	Downloads store.StickerPackDownloadStore
}

func NewArchiver(stores store.AllStores) *Archiver {
	return &Archiver{
		Packs:     stores.StickerPacks,
		Downloads: stores.StickerPackDownloads,
	}
}

func stickerPackFrame(id types.StickerPackID, key types.StickerPackKey) *backupProto.Frame {
	return &backupProto.Frame{Item: &backupProto.Frame_StickerPack{StickerPack: &backupProto.StickerPack{
		PackID:  id[:],
		PackKey: key[:],
	}}}
}

// ArchiveAll writes every installed pack, followed by packs that were restored earlier but haven't been downloaded yet.
func (a *Archiver) ArchiveAll(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	var errs []*archive.ArchiveFrameError
	seen := make(map[types.StickerPackID]struct{})
	err := a.Packs.EnumerateInstalledStickerPacks(ctx, func(pack *types.StickerPack) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindStickerPack)()
		seen[pack.PackID] = struct{}{}
		frameErr, err := archive.WriteFrame(w, stickerPackFrame(pack.PackID, pack.PackKey), pack.PackID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	if err != nil {
		return archive.FinishEnumeration(err, errs)
	}
	err = a.Downloads.EnumerateQueuedStickerPacks(ctx, func(queued *types.QueuedStickerPackDownload) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		} else if _, alreadyWritten := seen[queued.PackID]; alreadyWritten {
			return nil
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindStickerPack)()
		seen[queued.PackID] = struct{}{}
		frameErr, err := archive.WriteFrame(w, stickerPackFrame(queued.PackID, queued.PackKey), queued.PackID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	return archive.FinishEnumeration(err, errs)
}

// Restore queues the pack for downloading, unless it's already installed. Queueing is idempotent.
func (a *Archiver) Restore(ctx context.Context, pack *backupProto.StickerPack, rc *archive.RestoringContext) archive.RestoreFrameResult {
	id, err := types.ParseStickerPackID(pack.PackID)
	if err != nil {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidStickerPackID, nil))
	}
	key, err := types.ParseStickerPackKey(pack.PackKey)
	if err != nil {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidStickerPackKey, id))
	}
	existing, err := a.Packs.GetStickerPack(ctx, id)
	if err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))
	} else if existing != nil && existing.Installed {
		return archive.RestoreSuccess()
	}
	queued, err := a.Downloads.EnqueueStickerPackDownload(ctx, id, key)
	if err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))
	} else if !queued {
		rc.Log.Debugf("Sticker pack %s was already queued for download", id.IDLogString())
	}
	return archive.RestoreSuccess()
}
