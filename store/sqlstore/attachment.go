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
	"github.com/vmihailenco/msgpack/v5"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
)

const (
	enqueueAttachmentDownloadQuery = `
		INSERT INTO msgbackup_attachment_download_queue (interaction_id, attachment_index, pointer, queued_at, queue_order)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(queue_order), 0) + 1 FROM msgbackup_attachment_download_queue))
		ON CONFLICT (interaction_id, attachment_index) DO NOTHING
	`
	queuedAttachmentColumns         = `interaction_id, attachment_index, pointer, queued_at`
	enumerateQueuedAttachmentsQuery = `
		SELECT ` + queuedAttachmentColumns + ` FROM msgbackup_attachment_download_queue ORDER BY queue_order
	`
	peekQueuedAttachmentsQuery = `
		SELECT ` + queuedAttachmentColumns + ` FROM msgbackup_attachment_download_queue ORDER BY queue_order LIMIT $1
	`
	removeQueuedAttachmentQuery = `DELETE FROM msgbackup_attachment_download_queue WHERE interaction_id=$1 AND attachment_index=$2`
)

func scanQueuedAttachment(row scannable) (*types.QueuedAttachmentDownload, error) {
	var queued types.QueuedAttachmentDownload
	var pointer []byte
	var queuedAt int64
	err := row.Scan(&queued.InteractionID, &queued.Index, &pointer, &queuedAt)
	if err != nil {
		return nil, err
	}
	err = msgpack.Unmarshal(pointer, &queued.Pointer)
	if err != nil {
		return nil, fmt.Errorf("invalid queued attachment pointer: %w", err)
	}
	queued.QueuedAt = time.UnixMilli(queuedAt)
	return &queued, nil
}

func (c *Container) EnqueueAttachmentDownload(
	ctx context.Context, interaction types.InteractionUniqueID, index int, pointer *types.AttachmentPointer,
) (bool, error) {
	data, err := msgpack.Marshal(pointer)
	if err != nil {
		return false, fmt.Errorf("failed to marshal attachment pointer: %w", err)
	}
	res, err := c.db.Exec(ctx, enqueueAttachmentDownloadQuery, interaction, index, data, time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		zerolog.Ctx(ctx).Debug().
			Str("interaction_id", string(interaction)).
			Int("attachment_index", index).
			Msg("Attachment is already queued for download")
	}
	return affected > 0, nil
}

func (c *Container) EnumerateQueuedAttachments(ctx context.Context, fn store.EnumerateFunc[types.QueuedAttachmentDownload]) error {
	return enumerate(ctx, c.db, fn, scanQueuedAttachment, enumerateQueuedAttachmentsQuery)
}

func (c *Container) PeekQueuedAttachments(ctx context.Context, count int) ([]*types.QueuedAttachmentDownload, error) {
	return queryAll(ctx, c.db, scanQueuedAttachment, peekQueuedAttachmentsQuery, count)
}

func (c *Container) RemoveQueuedAttachment(ctx context.Context, interaction types.InteractionUniqueID, index int) error {
	_, err := c.db.Exec(ctx, removeQueuedAttachmentQuery, interaction, index)
	return err
}
