// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sqlstore

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
)

const (
	interactionColumns = `
		unique_id, sort_id, thread_id, kind, timestamp, received_at_ms, author, body, attachments, read, sealed_sender,
		expires_in_ms, expire_started_at_ms, info_type, simple_update, group_update
	`
	putInteractionQuery = `
		INSERT INTO msgbackup_interaction (` + interactionColumns + `, content_hash)
		VALUES ($1, (SELECT COALESCE(MAX(sort_id), 0) + 1 FROM msgbackup_interaction), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (thread_id, timestamp, author, kind, content_hash) DO NOTHING
	`
	getInteractionSortIDQuery  = `SELECT sort_id FROM msgbackup_interaction WHERE unique_id=$1`
	getThreadInteractionsQuery = `SELECT ` + interactionColumns + ` FROM msgbackup_interaction WHERE thread_id=$1 ORDER BY sort_id`
	enumerateInteractionsQuery = `SELECT ` + interactionColumns + ` FROM msgbackup_interaction WHERE sort_id>$1 ORDER BY sort_id LIMIT $2`
)

const interactionPageSize = 500

func scanInteraction(row scannable) (*types.Interaction, error) {
	var interaction types.Interaction
	var attachments, groupUpdate []byte
	err := row.Scan(
		&interaction.UniqueID, &interaction.SortID, &interaction.ThreadID, &interaction.Kind, &interaction.Timestamp,
		&interaction.ReceivedAtMs, &interaction.Author, &interaction.Body, &attachments, &interaction.Read,
		&interaction.SealedSender, &interaction.ExpiresInMs, &interaction.ExpireStartedAtMs, &interaction.InfoType,
		&interaction.SimpleUpdate, &groupUpdate,
	)
	if err != nil {
		return nil, err
	}
	if len(attachments) > 0 {
		err = msgpack.Unmarshal(attachments, &interaction.Attachments)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal attachments of %s: %w", interaction.UniqueID, err)
		}
	}
	if len(groupUpdate) > 0 {
		interaction.GroupUpdate = &types.GroupUpdateMetadata{}
		err = msgpack.Unmarshal(groupUpdate, interaction.GroupUpdate)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal group update of %s: %w", interaction.UniqueID, err)
		}
	}
	return &interaction, nil
}

// interactionContentHash hashes everything that distinguishes two interactions with the same
// thread, timestamp, author and kind, so that distinct info messages sent in the same millisecond
// are both kept while restoring the same interaction twice is still deduplicated.
func interactionContentHash(interaction *types.Interaction, attachments, groupUpdate []byte) []byte {
	h, _ := blake2b.New256(nil)
	writeField := func(data []byte) {
		_, _ = h.Write(binary.AppendUvarint(nil, uint64(len(data))))
		_, _ = h.Write(data)
	}
	_, _ = h.Write([]byte{byte(interaction.InfoType), byte(interaction.SimpleUpdate)})
	writeField([]byte(interaction.Body))
	writeField(attachments)
	writeField(groupUpdate)
	return h.Sum(nil)
}

func (c *Container) PutInteraction(ctx context.Context, interaction *types.Interaction) (bool, error) {
	if interaction.UniqueID == "" {
		interaction.UniqueID = types.InteractionUniqueID(types.NewUniqueID())
	}
	var attachments, groupUpdate []byte
	var err error
	if len(interaction.Attachments) > 0 {
		attachments, err = msgpack.Marshal(interaction.Attachments)
		if err != nil {
			return false, fmt.Errorf("failed to marshal attachments: %w", err)
		}
	}
	if interaction.GroupUpdate != nil {
		groupUpdate, err = msgpack.Marshal(interaction.GroupUpdate)
		if err != nil {
			return false, fmt.Errorf("failed to marshal group update: %w", err)
		}
	}
	res, err := c.db.Exec(
		ctx, putInteractionQuery,
		interaction.UniqueID, interaction.ThreadID, interaction.Kind, interaction.Timestamp, interaction.ReceivedAtMs,
		interaction.Author, interaction.Body, attachments, interaction.Read, interaction.SealedSender,
		interaction.ExpiresInMs, interaction.ExpireStartedAtMs, interaction.InfoType, interaction.SimpleUpdate,
		groupUpdate, interactionContentHash(interaction, attachments, groupUpdate),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	} else if affected == 0 {
		zerolog.Ctx(ctx).Debug().
			Str("thread_id", string(interaction.ThreadID)).
			Uint64("timestamp", interaction.Timestamp).
			Msg("Interaction already exists, not inserting duplicate")
		return false, nil
	}
	err = c.db.QueryRow(ctx, getInteractionSortIDQuery, interaction.UniqueID).Scan(&interaction.SortID)
	return true, err
}

func (c *Container) GetThreadInteractions(ctx context.Context, thread types.ThreadUniqueID) ([]*types.Interaction, error) {
	return queryAll(ctx, c.db, scanInteraction, getThreadInteractionsQuery, thread)
}

// EnumerateInteractions goes through all interactions in sort order, a page at a time.
func (c *Container) EnumerateInteractions(ctx context.Context, fn store.EnumerateFunc[types.Interaction]) error {
	var lastSortID int64
	for {
		page, err := queryAll(ctx, c.db, scanInteraction, enumerateInteractionsQuery, lastSortID, interactionPageSize)
		if err != nil {
			return err
		}
		for _, interaction := range page {
			if err = fn(interaction); err != nil {
				return err
			}
			lastSortID = interaction.SortID
		}
		if len(page) < interactionPageSize {
			return nil
		}
	}
}
