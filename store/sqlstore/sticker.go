// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
)

const (
	putStickerPackQuery = `
		INSERT INTO msgbackup_sticker_pack (pack_id, pack_key, title, author, installed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pack_id) DO UPDATE
			SET pack_key=excluded.pack_key, title=excluded.title, author=excluded.author, installed=excluded.installed
	`
	getStickerPackQuery                = `SELECT pack_id, pack_key, title, author, installed FROM msgbackup_sticker_pack WHERE pack_id=$1`
	enumerateInstalledStickerPackQuery = `
		SELECT pack_id, pack_key, title, author, installed FROM msgbackup_sticker_pack WHERE installed=true ORDER BY pack_id
	`
)

func parseStickerPackIDAndKey(rawID, rawKey []byte) (id types.StickerPackID, key types.StickerPackKey, err error) {
	id, err = types.ParseStickerPackID(rawID)
	if err != nil {
		return
	}
	key, err = types.ParseStickerPackKey(rawKey)
	return
}

func scanStickerPack(row scannable) (*types.StickerPack, error) {
	var pack types.StickerPack
	var packID, packKey []byte
	err := row.Scan(&packID, &packKey, &pack.Title, &pack.Author, &pack.Installed)
	if err != nil {
		return nil, err
	}
	pack.PackID, pack.PackKey, err = parseStickerPackIDAndKey(packID, packKey)
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func (c *Container) PutStickerPack(ctx context.Context, pack *types.StickerPack) error {
	_, err := c.db.Exec(ctx, putStickerPackQuery, pack.PackID[:], pack.PackKey[:], pack.Title, pack.Author, pack.Installed)
	return err
}

func (c *Container) GetStickerPack(ctx context.Context, id types.StickerPackID) (*types.StickerPack, error) {
	return queryOne(ctx, c.db, scanStickerPack, getStickerPackQuery, id[:])
}

func (c *Container) EnumerateInstalledStickerPacks(ctx context.Context, fn store.EnumerateFunc[types.StickerPack]) error {
	return enumerate(ctx, c.db, fn, scanStickerPack, enumerateInstalledStickerPackQuery)
}

const (
	enqueueStickerPackDownloadQuery = `
		INSERT INTO msgbackup_sticker_pack_download_queue (pack_id, pack_key, queued_at, queue_order)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(queue_order), 0) + 1 FROM msgbackup_sticker_pack_download_queue))
		ON CONFLICT (pack_id) DO NOTHING
	`
	queuedStickerPackColumns         = `pack_id, pack_key, queued_at`
	enumerateQueuedStickerPacksQuery = `
		SELECT ` + queuedStickerPackColumns + ` FROM msgbackup_sticker_pack_download_queue ORDER BY queue_order
	`
	peekQueuedStickerPacksQuery = `
		SELECT ` + queuedStickerPackColumns + ` FROM msgbackup_sticker_pack_download_queue ORDER BY queue_order LIMIT $1
	`
	removeQueuedStickerPackQuery = `DELETE FROM msgbackup_sticker_pack_download_queue WHERE pack_id=$1`
)

func scanQueuedStickerPack(row scannable) (*types.QueuedStickerPackDownload, error) {
	var queued types.QueuedStickerPackDownload
	var packID, packKey []byte
	var queuedAt int64
	err := row.Scan(&packID, &packKey, &queuedAt)
	if err != nil {
		return nil, err
	}
	queued.PackID, queued.PackKey, err = parseStickerPackIDAndKey(packID, packKey)
	if err != nil {
		return nil, fmt.Errorf("invalid queued sticker pack: %w", err)
	}
	queued.QueuedAt = time.UnixMilli(queuedAt)
	return &queued, nil
}

func (c *Container) EnqueueStickerPackDownload(ctx context.Context, id types.StickerPackID, key types.StickerPackKey) (bool, error) {
	res, err := c.db.Exec(ctx, enqueueStickerPackDownloadQuery, id[:], key[:], time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		zerolog.Ctx(ctx).Debug().Str("pack_id_hash", id.IDLogString()).Msg("Sticker pack is already queued for download")
	}
	return affected > 0, nil
}

func (c *Container) EnumerateQueuedStickerPacks(ctx context.Context, fn store.EnumerateFunc[types.QueuedStickerPackDownload]) error {
	return enumerate(ctx, c.db, fn, scanQueuedStickerPack, enumerateQueuedStickerPacksQuery)
}

func (c *Container) PeekQueuedStickerPacks(ctx context.Context, count int) ([]*types.QueuedStickerPackDownload, error) {
	return queryAll(ctx, c.db, scanQueuedStickerPack, peekQueuedStickerPacksQuery, count)
}

func (c *Container) RemoveQueuedStickerPack(ctx context.Context, id types.StickerPackID) error {
	_, err := c.db.Exec(ctx, removeQueuedStickerPackQuery, id[:])
	return err
}
