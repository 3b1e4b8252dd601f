// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package recipient

import (
	"context"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/types"
)

// Restore inserts or updates the entity described by a recipient frame and binds the frame's recipient ID to it.
func (a *Archiver) Restore(ctx context.Context, recipient *backupProto.Recipient, rc *archive.RestoringContext) archive.RestoreFrameResult {
	id := archive.RecipientID(recipient.ID)
	if _, alreadyBound := rc.Recipients.Lookup(id); alreadyBound {
		return archive.RestoreFailure(archive.NewRestoreFrameError(archive.RestoreErrorDuplicateID, id))
	}
	switch dest := recipient.GetDestination().(type) {
	case *backupProto.Recipient_Self:
		return a.restoreSelf(ctx, id, rc)
	case *backupProto.Recipient_ReleaseNotes:
		rc.Recipients.Bind(id, archive.ReleaseNotesAddress())
		return archive.RestoreSuccess()
	case *backupProto.Recipient_Contact:
		return a.restoreContact(ctx, id, dest.Contact, rc)
	case *backupProto.Recipient_Group:
		return a.restoreGroup(ctx, id, dest.Group, rc)
	case *backupProto.Recipient_CallLink:
		return a.restoreCallLink(ctx, id, dest.CallLink, rc)
	default:
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorMissingDestination, id))
	}
}

func (a *Archiver) restoreSelf(ctx context.Context, id archive.RecipientID, rc *archive.RestoringContext) archive.RestoreFrameResult {
	local, err := a.Recipients.FetchRecipient(ctx, rc.Local.ACI, rc.Local.PNI, rc.Local.E164)
	if err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))
	} else if local == nil {
		local = &types.Recipient{ACI: rc.Local.ACI, PNI: rc.Local.PNI, E164: rc.Local.E164, ProfileSharing: true}
		if err = a.Recipients.PutRecipient(ctx, local); err != nil {
			return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))
		}
	}
	addr := archive.LocalAddress(rc.Local)
	addr.UniqueID = local.UniqueID
	rc.Recipients.Bind(id, addr)
	rc.LocalRecipientID = id
	return archive.RestoreSuccess()
}

func (a *Archiver) restoreContact(ctx context.Context, id archive.RecipientID, contact *backupProto.Contact, rc *archive.RestoringContext) archive.RestoreFrameResult {
	var aci types.ACI
	var pni types.PNI
	var e164 types.E164
	var err error
	if len(contact.Aci) > 0 {
		if aci, err = types.ParseACIBytes(contact.Aci); err != nil {
			return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidACI, id))
		}
	}
	if len(contact.Pni) > 0 {
		if pni, err = types.ParsePNIBytes(contact.Pni); err != nil {
			return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidPNI, id))
		}
	}
	if contact.E164 != 0 {
		if e164, err = types.E164FromUint(contact.E164); err != nil {
			return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidE164, id))
		}
	}
	if aci.IsEmpty() && pni.IsEmpty() && e164.IsEmpty() {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorContactWithoutIdentifiers, id))
	}

	recipient, err := a.Recipients.FetchRecipient(ctx, aci, pni, e164)
	if err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))
	} else if recipient == nil {
		recipient = &types.Recipient{}
	}
	// Identifiers from the backup only fill in what the existing row doesn't know yet.
	if recipient.ACI.IsEmpty() {
		recipient.ACI = aci
	}
	if recipient.PNI.IsEmpty() {
		recipient.PNI = pni
	}
	if recipient.E164.IsEmpty() {
		recipient.E164 = e164
	}
	recipient.Blocked = contact.Blocked
	recipient.ProfileSharing = contact.ProfileSharing
	recipient.HideStory = contact.HideStory
	if len(contact.ProfileKey) > 0 {
		recipient.ProfileKey = contact.ProfileKey
	}
	if contact.ProfileGivenName != "" || contact.ProfileFamilyName != "" {
		recipient.GivenName = contact.ProfileGivenName
		recipient.FamilyName = contact.ProfileFamilyName
	}
	if err = a.Recipients.PutRecipient(ctx, recipient); err != nil {
		return archive.RestoreFailure(archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))
	}
	rc.Recipients.Bind(id, archive.ContactAddress(recipient))
	return archive.RestoreSuccess()
}

func (a *Archiver) restoreGroup(ctx context.Context, id archive.RecipientID, group *backupProto.Group, rc *archive.RestoringContext) archive.RestoreFrameResult {
	masterKey, err := types.ParseGroupMasterKey(group.MasterKey)
	if err != nil {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidGroupMasterKey, id))
	}
	snapshot, errs := SnapshotFromProto(group.GetSnapshot(), id)
	stored := &types.Group{
		GroupID:     masterKey.GroupID(),
		MasterKey:   masterKey,
		Whitelisted: group.Whitelisted,
		HideStory:   group.HideStory,
		Snapshot:    *snapshot,
	}
	if err = a.Groups.PutGroup(ctx, stored); err != nil {
		return archive.RestoreFailure(append(errs, archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))...)
	}
	rc.Recipients.Bind(id, archive.GroupAddress(stored.GroupID))
	return archive.RestoreResultFromErrors(errs)
}

// SnapshotFromProto converts a group snapshot from the wire format. Members with invalid ACIs are dropped
// and reported as errors, the rest of the snapshot is still usable.
func SnapshotFromProto(snapshot *backupProto.GroupSnapshot, id archive.LoggableID) (*types.GroupSnapshot, []*archive.RestoreFrameError) {
	if snapshot == nil {
		return &types.GroupSnapshot{}, nil
	}
	var errs []*archive.RestoreFrameError
	converted := &types.GroupSnapshot{
		Title:               snapshot.Title,
		Description:         snapshot.Description,
		AvatarURL:           snapshot.AvatarURL,
		DisappearingTimerMs: snapshot.DisappearingTimerMs,
	}
	for _, member := range snapshot.Members {
		aci, err := types.ParseACIBytes(member.UserID)
		if err != nil {
			errs = append(errs, archive.NewInvalidProtoError(archive.ProtoErrorInvalidACI, id))
			continue
		}
		converted.Members = append(converted.Members, types.GroupMember{ACI: aci, Admin: member.Admin})
	}
	return converted, errs
}

var callLinkRestrictionsFromProto = map[backupProto.CallLink_Restrictions]types.CallLinkRestrictions{
	backupProto.CallLink_UNKNOWN:        types.CallLinkRestrictionsUnknown,
	backupProto.CallLink_NONE:           types.CallLinkRestrictionsNone,
	backupProto.CallLink_ADMIN_APPROVAL: types.CallLinkRestrictionsAdminApproval,
}

func (a *Archiver) restoreCallLink(ctx context.Context, id archive.RecipientID, link *backupProto.CallLink, rc *archive.RestoringContext) archive.RestoreFrameResult {
	if len(link.RootKey) == 0 {
		return archive.RestoreFailure(archive.NewInvalidProtoError(archive.ProtoErrorInvalidCallLinkRootKey, id))
	}
	var errs []*archive.RestoreFrameError
	restrictions, ok := callLinkRestrictionsFromProto[link.Restrictions]
	if !ok {
		errs = append(errs, archive.NewRestoreFrameError(archive.RestoreErrorUnrecognizedEnum, id))
	}
	record := &types.CallLinkRecord{
		RoomID:       types.DeriveCallLinkRoomID(link.RootKey),
		RootKey:      link.RootKey,
		AdminPasskey: link.AdminKey,
		Name:         link.Name,
		Restrictions: restrictions,
		ExpirationMs: link.ExpirationMs,
	}
	if err := a.CallLinks.PutCallLinkRecord(ctx, record); err != nil {
		return archive.RestoreFailure(append(errs, archive.WrapRestoreFrameError(archive.RestoreErrorDatabaseInsertionFailed, id, err))...)
	}
	rc.Recipients.Bind(id, archive.CallLinkAddress(record.RoomID))
	return archive.RestoreResultFromErrors(errs)
}
