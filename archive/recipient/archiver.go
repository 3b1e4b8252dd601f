// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package recipient archives the local user, contacts, groups and call links as recipient frames.
package recipient

import (
	"context"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

type Archiver struct {
	Recipients store.RecipientStore
	Groups     store.GroupStore
	CallLinks  store.CallLinkRecordStore
}

func NewArchiver(stores store.AllStores) *Archiver {
	return &Archiver{
		Recipients: stores.Recipients,
		Groups:     stores.Groups,
		CallLinks:  stores.CallLinks,
	}
}

func recipientFrame(recipient *backupProto.Recipient) *backupProto.Frame {
	return &backupProto.Frame{Item: &backupProto.Frame_Recipient{Recipient: recipient}}
}

// ArchiveAll writes the self recipient and the release notes channel, followed by every contact, group and call link.
//
// The local user always gets the first recipient ID, which is assigned when the archiving context is created.
func (a *Archiver) ArchiveAll(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	if ac.Local.ACI.IsEmpty() {
		return archive.ArchiveCompleteFailure(archive.NewFatalArchivingError(archive.FatalMissingLocalAddress, nil), nil), nil
	}
	var errs []*archive.ArchiveFrameError
	done := ac.Bencher.BeginFrame(archive.FrameKindRecipient)
	frameErr, err := archive.WriteFrame(w, recipientFrame(&backupProto.Recipient{
		ID:          uint64(ac.LocalRecipientID),
		Destination: &backupProto.Recipient_Self{Self: &backupProto.Self{}},
	}), ac.LocalRecipientID)
	done()
	if err != nil {
		return archive.FinishEnumeration(err, nil)
	} else if frameErr != nil {
		errs = append(errs, frameErr)
	}
	releaseNotesID := ac.Recipients.Assign(archive.ReleaseNotesAddress())
	done = ac.Bencher.BeginFrame(archive.FrameKindRecipient)
	frameErr, err = archive.WriteFrame(w, recipientFrame(&backupProto.Recipient{
		ID:          uint64(releaseNotesID),
		Destination: &backupProto.Recipient_ReleaseNotes{ReleaseNotes: &backupProto.ReleaseNotes{}},
	}), releaseNotesID)
	done()
	if err != nil {
		return archive.FinishEnumeration(err, errs)
	} else if frameErr != nil {
		errs = append(errs, frameErr)
	}

	contactResult, err := a.archiveContacts(ctx, w, ac)
	result := archive.ArchiveResultFromErrors(errs).Merge(contactResult)
	if err != nil || result.Fatal != nil {
		return result, err
	}
	groupResult, err := a.archiveGroups(ctx, w, ac)
	result = result.Merge(groupResult)
	if err != nil || result.Fatal != nil {
		return result, err
	}
	callLinkResult, err := a.archiveCallLinks(ctx, w, ac)
	return result.Merge(callLinkResult), err
}

func (a *Archiver) archiveContacts(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	var errs []*archive.ArchiveFrameError
	err := a.Recipients.EnumerateRecipients(ctx, func(recipient *types.Recipient) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		}
		if isLocalRecipient(recipient, ac.Local) {
			// The self frame was already written, but the local recipient row may have additional identifiers.
			ac.Recipients.Assign(archive.ContactAddress(recipient))
			return nil
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindRecipient)()
		if !recipient.HasIdentifier() {
			errs = append(errs, archive.NewArchiveFrameError(archive.ArchiveErrorContactMissingIdentifiers, recipient.UniqueID))
			return nil
		}
		id := ac.Recipients.Assign(archive.ContactAddress(recipient))
		frameErr, err := archive.WriteFrame(w, recipientFrame(&backupProto.Recipient{
			ID:          uint64(id),
			Destination: &backupProto.Recipient_Contact{Contact: contactToProto(recipient)},
		}), recipient.UniqueID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	return archive.FinishEnumeration(err, errs)
}

func isLocalRecipient(recipient *types.Recipient, local types.LocalIdentifiers) bool {
	return local.Contains(recipient.ACI) ||
		(!recipient.PNI.IsEmpty() && recipient.PNI == local.PNI) ||
		(recipient.ACI.IsEmpty() && !recipient.E164.IsEmpty() && recipient.E164 == local.E164)
}

func contactToProto(recipient *types.Recipient) *backupProto.Contact {
	contact := &backupProto.Contact{
		E164:              recipient.E164.Uint(),
		Blocked:           recipient.Blocked,
		ProfileKey:        recipient.ProfileKey,
		ProfileSharing:    recipient.ProfileSharing,
		ProfileGivenName:  recipient.GivenName,
		ProfileFamilyName: recipient.FamilyName,
		HideStory:         recipient.HideStory,
	}
	if !recipient.ACI.IsEmpty() {
		contact.Aci = recipient.ACI.Bytes()
	}
	if !recipient.PNI.IsEmpty() {
		contact.Pni = recipient.PNI.Bytes()
	}
	return contact
}

func (a *Archiver) archiveGroups(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	var errs []*archive.ArchiveFrameError
	err := a.Groups.EnumerateGroups(ctx, func(group *types.Group) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindRecipient)()
		id := ac.Recipients.Assign(archive.GroupAddress(group.GroupID))
		frameErr, err := archive.WriteFrame(w, recipientFrame(&backupProto.Recipient{
			ID: uint64(id),
			Destination: &backupProto.Recipient_Group{Group: &backupProto.Group{
				MasterKey:   group.MasterKey[:],
				Whitelisted: group.Whitelisted,
				HideStory:   group.HideStory,
				Snapshot:    SnapshotToProto(&group.Snapshot),
			}},
		}), group.GroupID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	return archive.FinishEnumeration(err, errs)
}

// SnapshotToProto converts a stored group snapshot into the wire format.
func SnapshotToProto(snapshot *types.GroupSnapshot) *backupProto.GroupSnapshot {
	members := make([]*backupProto.GroupSnapshot_Member, len(snapshot.Members))
	for i, member := range snapshot.Members {
		members[i] = &backupProto.GroupSnapshot_Member{UserID: member.ACI.Bytes(), Admin: member.Admin}
	}
	return &backupProto.GroupSnapshot{
		Title:               snapshot.Title,
		Description:         snapshot.Description,
		AvatarURL:           snapshot.AvatarURL,
		DisappearingTimerMs: snapshot.DisappearingTimerMs,
		Members:             members,
	}
}

var callLinkRestrictionsToProto = map[types.CallLinkRestrictions]backupProto.CallLink_Restrictions{
	types.CallLinkRestrictionsUnknown:       backupProto.CallLink_UNKNOWN,
	types.CallLinkRestrictionsNone:          backupProto.CallLink_NONE,
	types.CallLinkRestrictionsAdminApproval: backupProto.CallLink_ADMIN_APPROVAL,
}

func (a *Archiver) archiveCallLinks(ctx context.Context, w *stream.Writer, ac *archive.ArchivingContext) (archive.ArchiveMultiFrameResult, error) {
	var errs []*archive.ArchiveFrameError
	err := a.CallLinks.EnumerateCallLinkRecords(ctx, func(record *types.CallLinkRecord) error {
		if err := ac.Bencher.Checkpoint(); err != nil {
			return err
		}
		defer ac.Bencher.BeginFrame(archive.FrameKindRecipient)()
		id := ac.Recipients.Assign(archive.CallLinkAddress(record.RoomID))
		frameErr, err := archive.WriteFrame(w, recipientFrame(&backupProto.Recipient{
			ID: uint64(id),
			Destination: &backupProto.Recipient_CallLink{CallLink: &backupProto.CallLink{
				RootKey:      record.RootKey,
				AdminKey:     record.AdminPasskey,
				Name:         record.Name,
				Restrictions: callLinkRestrictionsToProto[record.Restrictions],
				ExpirationMs: record.ExpirationMs,
			}},
		}), record.RoomID)
		if frameErr != nil {
			errs = append(errs, frameErr)
		}
		return err
	})
	return archive.FinishEnumeration(err, errs)
}
