// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
)

const (
	threadColumns  = `unique_id, kind, contact_recipient, group_id, archived, marked_unread, pinned_order, mute_until_ms, expiration_timer_ms`
	putThreadQuery = `
		INSERT INTO msgbackup_thread (` + threadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (unique_id) DO UPDATE
			SET archived=excluded.archived, marked_unread=excluded.marked_unread, pinned_order=excluded.pinned_order,
			    mute_until_ms=excluded.mute_until_ms, expiration_timer_ms=excluded.expiration_timer_ms
	`
	getThreadQuery        = `SELECT ` + threadColumns + ` FROM msgbackup_thread WHERE unique_id=$1`
	getContactThreadQuery = `SELECT ` + threadColumns + ` FROM msgbackup_thread WHERE contact_recipient=$1`
	getGroupThreadQuery   = `SELECT ` + threadColumns + ` FROM msgbackup_thread WHERE group_id=$1`
	enumerateThreadsQuery = `SELECT ` + threadColumns + ` FROM msgbackup_thread ORDER BY unique_id`
)

func scanThread(row scannable) (*types.Thread, error) {
	var thread types.Thread
	var contactRecipient sql.NullString
	var groupID []byte
	err := row.Scan(
		&thread.UniqueID, &thread.Kind, &contactRecipient, &groupID, &thread.Archived, &thread.MarkedUnread,
		&thread.PinnedOrder, &thread.MuteUntilMs, &thread.ExpirationTimerMs,
	)
	if err != nil {
		return nil, err
	}
	thread.ContactRecipient = types.RecipientUniqueID(contactRecipient.String)
	if len(groupID) > 0 {
		if len(groupID) != len(thread.GroupID) {
			return nil, fmt.Errorf("%w: group ID with %d bytes in thread %s", types.ErrInvalidLength, len(groupID), thread.UniqueID)
		}
		thread.GroupID = types.GroupID(groupID)
	}
	return &thread, nil
}

func (c *Container) PutThread(ctx context.Context, thread *types.Thread) error {
	if thread.UniqueID == "" {
		thread.UniqueID = types.ThreadUniqueID(types.NewUniqueID())
	}
	var groupID []byte
	if thread.Kind == types.ThreadKindGroup {
		groupID = thread.GroupID[:]
	}
	_, err := c.db.Exec(
		ctx, putThreadQuery,
		thread.UniqueID, thread.Kind, nullableString(string(thread.ContactRecipient)), groupID,
		thread.Archived, thread.MarkedUnread, thread.PinnedOrder, thread.MuteUntilMs, thread.ExpirationTimerMs,
	)
	return err
}

func (c *Container) GetThread(ctx context.Context, id types.ThreadUniqueID) (*types.Thread, error) {
	return queryOne(ctx, c.db, scanThread, getThreadQuery, id)
}

func (c *Container) GetContactThread(ctx context.Context, recipient types.RecipientUniqueID) (*types.Thread, error) {
	return queryOne(ctx, c.db, scanThread, getContactThreadQuery, recipient)
}

func (c *Container) GetGroupThread(ctx context.Context, group types.GroupID) (*types.Thread, error) {
	return queryOne(ctx, c.db, scanThread, getGroupThreadQuery, group[:])
}

func (c *Container) EnumerateThreads(ctx context.Context, fn store.EnumerateFunc[types.Thread]) error {
	return enumerate(ctx, c.db, fn, scanThread, enumerateThreadsQuery)
}
