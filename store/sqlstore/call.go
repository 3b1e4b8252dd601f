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

	"github.com/rs/zerolog"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
)

const (
	callRecordColumns  = `call_id, conversation_kind, thread_id, room_id, call_type, direction, status, call_began_ms`
	putCallRecordQuery = `
		INSERT INTO msgbackup_call_record (conversation_id, ` + callRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (call_id, conversation_id) DO UPDATE
			SET call_type=excluded.call_type, direction=excluded.direction, status=excluded.status,
			    call_began_ms=excluded.call_began_ms
	`
	getCallRecordQuery = `
		SELECT ` + callRecordColumns + ` FROM msgbackup_call_record WHERE call_id=$1 AND conversation_id=$2
	`
	enumerateAdHocCallRecordsQuery = `
		SELECT ` + callRecordColumns + ` FROM msgbackup_call_record
		WHERE conversation_kind=$1
		ORDER BY call_began_ms, call_id
	`
)

func scanCallRecord(row scannable) (*types.CallRecord, error) {
	var record types.CallRecord
	var callID int64
	var threadID sql.NullString
	var roomID []byte
	err := row.Scan(
		&callID, &record.Conversation.Kind, &threadID, &roomID,
		&record.Type, &record.Direction, &record.Status, &record.CallBeganTimestamp,
	)
	if err != nil {
		return nil, err
	}
	// Call IDs are full 64-bit values, they're stored bit-cast into signed integers.
	record.CallID = types.CallID(uint64(callID))
	record.Conversation.ThreadID = types.ThreadUniqueID(threadID.String)
	if len(roomID) > 0 {
		if len(roomID) != len(record.Conversation.RoomID) {
			return nil, fmt.Errorf("%w: room ID with %d bytes", types.ErrInvalidLength, len(roomID))
		}
		record.Conversation.RoomID = types.CallLinkRoomID(roomID)
	}
	return &record, nil
}

func (c *Container) PutCallRecord(ctx context.Context, record *types.CallRecord) error {
	var roomID []byte
	if record.Conversation.Kind == types.CallConversationCallLink {
		roomID = record.Conversation.RoomID[:]
	}
	_, err := c.db.Exec(
		ctx, putCallRecordQuery,
		record.Conversation.Key(), int64(record.CallID), record.Conversation.Kind,
		nullableString(string(record.Conversation.ThreadID)), roomID,
		record.Type, record.Direction, record.Status, record.CallBeganTimestamp,
	)
	if err != nil {
		zerolog.Ctx(ctx).Err(err).Uint64("call_id", uint64(record.CallID)).Msg("Failed to store call record")
	}
	return err
}

func (c *Container) GetCallRecord(ctx context.Context, callID types.CallID, conversation types.CallConversationID) (*types.CallRecord, error) {
	return queryOne(ctx, c.db, scanCallRecord, getCallRecordQuery, int64(callID), conversation.Key())
}

func (c *Container) EnumerateAdHocCallRecords(ctx context.Context, fn store.EnumerateFunc[types.CallRecord]) error {
	return enumerate(ctx, c.db, fn, scanCallRecord, enumerateAdHocCallRecordsQuery, types.CallConversationCallLink)
}

const (
	callLinkColumns  = `room_id, root_key, admin_passkey, name, restrictions, revoked, expiration_ms, has_any_call`
	putCallLinkQuery = `
		INSERT INTO msgbackup_call_link (` + callLinkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (room_id) DO UPDATE
			SET admin_passkey=excluded.admin_passkey, name=excluded.name, restrictions=excluded.restrictions,
			    revoked=excluded.revoked, expiration_ms=excluded.expiration_ms,
			    has_any_call=msgbackup_call_link.has_any_call OR excluded.has_any_call
	`
	getCallLinkQuery            = `SELECT ` + callLinkColumns + ` FROM msgbackup_call_link WHERE room_id=$1`
	markCallLinkHasAnyCallQuery = `UPDATE msgbackup_call_link SET has_any_call=true WHERE room_id=$1`
	enumerateCallLinksQuery     = `SELECT ` + callLinkColumns + ` FROM msgbackup_call_link ORDER BY room_id`
)

func scanCallLink(row scannable) (*types.CallLinkRecord, error) {
	var record types.CallLinkRecord
	var roomID []byte
	err := row.Scan(
		&roomID, &record.RootKey, &record.AdminPasskey, &record.Name, &record.Restrictions,
		&record.Revoked, &record.ExpirationMs, &record.HasAnyCall,
	)
	if err != nil {
		return nil, err
	} else if len(roomID) != len(record.RoomID) {
		return nil, fmt.Errorf("%w: room ID with %d bytes", types.ErrInvalidLength, len(roomID))
	}
	record.RoomID = types.CallLinkRoomID(roomID)
	return &record, nil
}

func (c *Container) PutCallLinkRecord(ctx context.Context, record *types.CallLinkRecord) error {
	if record.RoomID.IsEmpty() {
		record.RoomID = types.DeriveCallLinkRoomID(record.RootKey)
	}
	_, err := c.db.Exec(
		ctx, putCallLinkQuery,
		record.RoomID[:], record.RootKey, nullableBytes(record.AdminPasskey), record.Name, record.Restrictions,
		record.Revoked, record.ExpirationMs, record.HasAnyCall,
	)
	return err
}

func (c *Container) GetCallLinkRecord(ctx context.Context, roomID types.CallLinkRoomID) (*types.CallLinkRecord, error) {
	return queryOne(ctx, c.db, scanCallLink, getCallLinkQuery, roomID[:])
}

// MarkCallLinkHasAnyCall returns ErrNotFound if the call link doesn't exist.
func (c *Container) MarkCallLinkHasAnyCall(ctx context.Context, roomID types.CallLinkRoomID) error {
	res, err := c.db.Exec(ctx, markCallLinkHasAnyCallQuery, roomID[:])
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	} else if affected == 0 {
		return fmt.Errorf("%w: call link %s", ErrNotFound, roomID.IDLogString())
	}
	return nil
}

func (c *Container) EnumerateCallLinkRecords(ctx context.Context, fn store.EnumerateFunc[types.CallLinkRecord]) error {
	return enumerate(ctx, c.db, fn, scanCallLink, enumerateCallLinksQuery)
}
