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
	"github.com/vmihailenco/msgpack/v5"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
)

const (
	recipientColumns  = `unique_id, aci, pni, e164, blocked, profile_sharing, hide_story, profile_key, given_name, family_name`
	putRecipientQuery = `
		INSERT INTO msgbackup_recipient (` + recipientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (unique_id) DO UPDATE
			SET aci=excluded.aci, pni=excluded.pni, e164=excluded.e164, blocked=excluded.blocked,
			    profile_sharing=excluded.profile_sharing, hide_story=excluded.hide_story,
			    profile_key=excluded.profile_key, given_name=excluded.given_name, family_name=excluded.family_name
	`
	getRecipientQuery = `SELECT ` + recipientColumns + ` FROM msgbackup_recipient WHERE unique_id=$1`
	// Comparisons with NULL are never true, so unset identifiers never match anything.
	fetchRecipientQuery = `
		SELECT ` + recipientColumns + ` FROM msgbackup_recipient
		WHERE aci=$1 OR pni=$2 OR e164=$3
		ORDER BY CASE WHEN aci=$1 THEN 0 WHEN pni=$2 THEN 1 ELSE 2 END
		LIMIT 1
	`
	enumerateRecipientsQuery = `SELECT ` + recipientColumns + ` FROM msgbackup_recipient ORDER BY unique_id`
)

func scanRecipient(row scannable) (*types.Recipient, error) {
	var recipient types.Recipient
	var aci, pni []byte
	var e164 sql.NullString
	err := row.Scan(
		&recipient.UniqueID, &aci, &pni, &e164, &recipient.Blocked, &recipient.ProfileSharing,
		&recipient.HideStory, &recipient.ProfileKey, &recipient.GivenName, &recipient.FamilyName,
	)
	if err != nil {
		return nil, err
	}
	if len(aci) > 0 {
		recipient.ACI, err = types.ParseACIBytes(aci)
		if err != nil {
			return nil, fmt.Errorf("invalid ACI in recipient %s: %w", recipient.UniqueID, err)
		}
	}
	if len(pni) > 0 {
		recipient.PNI, err = types.ParsePNIBytes(pni)
		if err != nil {
			return nil, fmt.Errorf("invalid PNI in recipient %s: %w", recipient.UniqueID, err)
		}
	}
	recipient.E164 = types.E164(e164.String)
	return &recipient, nil
}

func serviceIDBytes[T interface{ IsEmpty() bool; Bytes() []byte }](id T) []byte {
	if id.IsEmpty() {
		return nil
	}
	return id.Bytes()
}

func (c *Container) PutRecipient(ctx context.Context, recipient *types.Recipient) error {
	if recipient.UniqueID == "" {
		recipient.UniqueID = types.RecipientUniqueID(types.NewUniqueID())
	}
	_, err := c.db.Exec(
		ctx, putRecipientQuery,
		recipient.UniqueID, serviceIDBytes(recipient.ACI), serviceIDBytes(recipient.PNI), nullableString(string(recipient.E164)),
		recipient.Blocked, recipient.ProfileSharing, recipient.HideStory, nullableBytes(recipient.ProfileKey),
		recipient.GivenName, recipient.FamilyName,
	)
	if err != nil {
		zerolog.Ctx(ctx).Err(err).Str("recipient_id", string(recipient.UniqueID)).Msg("Failed to store recipient")
	}
	return err
}

func (c *Container) GetRecipient(ctx context.Context, id types.RecipientUniqueID) (*types.Recipient, error) {
	return queryOne(ctx, c.db, scanRecipient, getRecipientQuery, id)
}

func (c *Container) FetchRecipient(ctx context.Context, aci types.ACI, pni types.PNI, e164 types.E164) (*types.Recipient, error) {
	return queryOne(ctx, c.db, scanRecipient, fetchRecipientQuery, serviceIDBytes(aci), serviceIDBytes(pni), nullableString(string(e164)))
}

func (c *Container) EnumerateRecipients(ctx context.Context, fn store.EnumerateFunc[types.Recipient]) error {
	return enumerate(ctx, c.db, fn, scanRecipient, enumerateRecipientsQuery)
}

const (
	putGroupQuery = `
		INSERT INTO msgbackup_group (group_id, master_key, whitelisted, hide_story, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id) DO UPDATE
			SET whitelisted=excluded.whitelisted, hide_story=excluded.hide_story, snapshot=excluded.snapshot
	`
	getGroupQuery        = `SELECT group_id, master_key, whitelisted, hide_story, snapshot FROM msgbackup_group WHERE group_id=$1`
	enumerateGroupsQuery = `SELECT group_id, master_key, whitelisted, hide_story, snapshot FROM msgbackup_group ORDER BY group_id`
)

func scanGroup(row scannable) (*types.Group, error) {
	var group types.Group
	var groupID, masterKey, snapshot []byte
	err := row.Scan(&groupID, &masterKey, &group.Whitelisted, &group.HideStory, &snapshot)
	if err != nil {
		return nil, err
	}
	group.MasterKey, err = types.ParseGroupMasterKey(masterKey)
	if err != nil {
		return nil, err
	} else if len(groupID) != len(group.GroupID) {
		return nil, fmt.Errorf("%w: group ID with %d bytes", types.ErrInvalidLength, len(groupID))
	}
	group.GroupID = types.GroupID(groupID)
	err = msgpack.Unmarshal(snapshot, &group.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal group snapshot: %w", err)
	}
	return &group, nil
}

func (c *Container) PutGroup(ctx context.Context, group *types.Group) error {
	if group.GroupID.IsEmpty() {
		group.GroupID = group.MasterKey.GroupID()
	}
	snapshot, err := msgpack.Marshal(&group.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal group snapshot: %w", err)
	}
	_, err = c.db.Exec(ctx, putGroupQuery, group.GroupID[:], group.MasterKey[:], group.Whitelisted, group.HideStory, snapshot)
	return err
}

func (c *Container) GetGroup(ctx context.Context, id types.GroupID) (*types.Group, error) {
	return queryOne(ctx, c.db, scanGroup, getGroupQuery, id[:])
}

func (c *Container) EnumerateGroups(ctx context.Context, fn store.EnumerateFunc[types.Group]) error {
	return enumerate(ctx, c.db, fn, scanGroup, enumerateGroupsQuery)
}
