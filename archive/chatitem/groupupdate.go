// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatitem

import (
	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/types"
)

type groupUpdate = *backupProto.GroupChangeChatUpdate_Update

// archiveGroupUpdate converts a group update info message into a chat update.
func archiveGroupUpdate(interaction *types.Interaction, id archive.ChatItemID, ac *archive.ArchivingContext) archive.InteractionResult[*backupProto.ChatUpdateMessage] {
	meta := interaction.GroupUpdate
	if meta == nil {
		return archive.InteractionSkip[*backupProto.ChatUpdateMessage](archive.SkipGroupUpdateWithoutChangeInfo)
	}
	items := meta.Items
	if len(items) == 0 {
		switch {
		case meta.New != nil:
			items = BuildGroupUpdateItems(meta.Old, meta.New, meta.Updater, ac.UpdaterFromACI(meta.Updater))
		case meta.LegacyText != "":
			items = []types.GroupUpdateItem{{Type: types.GroupUpdateLegacyRawString, Text: meta.LegacyText}}
		}
	}

	var errs []*archive.ArchiveFrameError
	updates := make([]*backupProto.GroupChangeChatUpdate_Update, 0, len(items))
	var skipped int
	for _, item := range items {
		res := archiveGroupUpdateItem(item, ac.Local, id)
		var update groupUpdate
		var ok bool
		update, errs, ok = res.Bubble(errs)
		if ok {
			updates = append(updates, update)
			continue
		} else if !res.IsSkippable() {
			return archive.Abort[*backupProto.ChatUpdateMessage](res, errs)
		}
		skipped++
		// Invite friends items are recreated on restore, so dropping them doesn't lose anything.
		if res.SkipReason != archive.SkipInviteFriendsToNewGroup {
			errs = append(errs, archive.WrapArchiveFrameError(archive.ArchiveErrorSkippedGroupUpdate, id, skipError(res.SkipReason)))
		}
	}
	if len(updates) == 0 {
		if skipped > 0 {
			return archive.InteractionSkip[*backupProto.ChatUpdateMessage](archive.SkipAllGroupUpdatesSkippable)
		}
		return archive.InteractionFail[*backupProto.ChatUpdateMessage](append(errs, archive.NewArchiveFrameError(archive.ArchiveErrorEmptyGroupUpdate, id))...)
	}
	return archive.InteractionPartial(&backupProto.ChatUpdateMessage{
		Update: &backupProto.ChatUpdateMessage_GroupChange{GroupChange: &backupProto.GroupChangeChatUpdate{Updates: updates}},
	}, errs)
}

type skipError archive.SkipReason

func (se skipError) Error() string { return "skipped " + string(se) }

func aciBytes(aci types.ACI) []byte {
	if aci.IsEmpty() {
		return nil
	}
	return aci.Bytes()
}

func updaterBytes(updater types.Updater, local types.LocalIdentifiers) []byte {
	switch updater.Kind {
	case types.UpdaterLocalUser:
		return aciBytes(local.ACI)
	case types.UpdaterOtherUser:
		return aciBytes(updater.ACI)
	default:
		return nil
	}
}

func archiveGroupUpdateItem(item types.GroupUpdateItem, local types.LocalIdentifiers, id archive.ChatItemID) archive.InteractionResult[groupUpdate] {
	updater := updaterBytes(item.Updater, local)
	target := aciBytes(item.Target)
	ok := func(update *backupProto.GroupChangeChatUpdate_Update) archive.InteractionResult[groupUpdate] {
		return archive.InteractionOK(update)
	}
	missingMember := func() archive.InteractionResult[groupUpdate] {
		return archive.InteractionFail[groupUpdate](archive.NewArchiveFrameError(archive.ArchiveErrorGroupUpdateMissingMember, id))
	}
	switch item.Type {
	case types.GroupUpdateGeneric:
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GenericGroupUpdate{UpdaterAci: updater}})
	case types.GroupUpdateCreated:
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupCreationUpdate{UpdaterAci: updater}})
	case types.GroupUpdateInviteFriendsToNewlyCreatedGroup:
		return archive.InteractionSkip[groupUpdate](archive.SkipInviteFriendsToNewGroup)
	case types.GroupUpdateNameChanged, types.GroupUpdateNameRemoved:
		var name string
		if item.Type == types.GroupUpdateNameChanged {
			name = item.Text
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupNameUpdate{UpdaterAci: updater, NewGroupName: name}})
	case types.GroupUpdateDescriptionChanged, types.GroupUpdateDescriptionRemoved:
		var description string
		if item.Type == types.GroupUpdateDescriptionChanged {
			description = item.Text
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupDescriptionUpdate{UpdaterAci: updater, NewDescription: description}})
	case types.GroupUpdateAvatarChanged, types.GroupUpdateAvatarRemoved:
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupAvatarUpdate{
			UpdaterAci: updater,
			WasRemoved: item.Type == types.GroupUpdateAvatarRemoved,
		}})
	case types.GroupUpdateMemberJoined:
		if target == nil {
			target = updater
		}
		if target == nil {
			return missingMember()
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupMemberJoinedUpdate{NewMemberAci: target}})
	case types.GroupUpdateMemberAdded:
		if target == nil {
			return missingMember()
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupMemberAddedUpdate{UpdaterAci: updater, NewMemberAci: target}})
	case types.GroupUpdateMemberLeft:
		if target == nil {
			target = updater
		}
		if target == nil {
			return missingMember()
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupMemberLeftUpdate{Aci: target}})
	case types.GroupUpdateMemberRemoved:
		if target == nil {
			return missingMember()
		} else if updater == nil {
			return archive.InteractionFail[groupUpdate](archive.NewArchiveFrameError(archive.ArchiveErrorGroupUpdateMissingUpdater, id))
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupMemberRemovedUpdate{RemoverAci: updater, RemovedAci: target}})
	case types.GroupUpdateAdminStatusChanged:
		if target == nil {
			return missingMember()
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupAdminStatusUpdate{
			UpdaterAci:            updater,
			MemberAci:             target,
			WasAdminStatusGranted: item.Granted,
		}})
	case types.GroupUpdateDisappearingTimerChanged:
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupExpirationTimerUpdate{ExpiresInMs: item.TimerMs, UpdaterAci: updater}})
	case types.GroupUpdateWasMigrated:
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupV2MigrationUpdate{}})
	case types.GroupUpdateJoinRequest, types.GroupUpdateSequenceOfRequestsAndCancels:
		if target == nil {
			return missingMember()
		}
		if item.Type == types.GroupUpdateJoinRequest || item.Count == 0 {
			// A sequence with no cancels is just a request.
			return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupJoinRequestUpdate{RequestorAci: target}})
		}
		return ok(&backupProto.GroupChangeChatUpdate_Update{Update: &backupProto.GroupSequenceOfRequestsAndCancelsUpdate{RequestorAci: target, Count: item.Count}})
	case types.GroupUpdateLegacyRawString:
		return archive.InteractionSkip[groupUpdate](archive.SkipLegacyGroupUpdate)
	default:
		return archive.InteractionFail[groupUpdate](archive.NewArchiveFrameError(archive.ArchiveErrorUnknownGroupUpdateType, id))
	}
}

func parseOptionalACI(data []byte) (types.ACI, bool) {
	if len(data) == 0 {
		return types.ACI{}, true
	}
	aci, err := types.ParseACIBytes(data)
	return aci, err == nil
}

// restoreGroupUpdates converts wire group updates back into persistable items.
//
// A single update with an unknown variant or an invalid ACI makes the whole chat item unrestorable.
func restoreGroupUpdates(updates []*backupProto.GroupChangeChatUpdate_Update, id archive.ChatItemID, rc *archive.RestoringContext) ([]types.GroupUpdateItem, *archive.RestoreFrameError) {
	items := make([]types.GroupUpdateItem, 0, len(updates))
	for _, update := range updates {
		var acis [2][]byte
		var item types.GroupUpdateItem
		switch u := update.GetUpdate().(type) {
		case *backupProto.GenericGroupUpdate:
			acis[0] = u.UpdaterAci
			item.Type = types.GroupUpdateGeneric
		case *backupProto.GroupCreationUpdate:
			acis[0] = u.UpdaterAci
			item.Type = types.GroupUpdateCreated
		case *backupProto.GroupNameUpdate:
			acis[0] = u.UpdaterAci
			item.Type, item.Text = types.GroupUpdateNameChanged, u.NewGroupName
			if u.NewGroupName == "" {
				item.Type = types.GroupUpdateNameRemoved
			}
		case *backupProto.GroupDescriptionUpdate:
			acis[0] = u.UpdaterAci
			item.Type, item.Text = types.GroupUpdateDescriptionChanged, u.NewDescription
			if u.NewDescription == "" {
				item.Type = types.GroupUpdateDescriptionRemoved
			}
		case *backupProto.GroupAvatarUpdate:
			acis[0] = u.UpdaterAci
			item.Type = types.GroupUpdateAvatarChanged
			if u.WasRemoved {
				item.Type = types.GroupUpdateAvatarRemoved
			}
		case *backupProto.GroupMemberJoinedUpdate:
			acis[0], acis[1] = u.NewMemberAci, u.NewMemberAci
			item.Type = types.GroupUpdateMemberJoined
		case *backupProto.GroupMemberAddedUpdate:
			acis[0], acis[1] = u.UpdaterAci, u.NewMemberAci
			item.Type = types.GroupUpdateMemberAdded
		case *backupProto.GroupMemberLeftUpdate:
			acis[0], acis[1] = u.Aci, u.Aci
			item.Type = types.GroupUpdateMemberLeft
		case *backupProto.GroupMemberRemovedUpdate:
			acis[0], acis[1] = u.RemoverAci, u.RemovedAci
			item.Type = types.GroupUpdateMemberRemoved
		case *backupProto.GroupAdminStatusUpdate:
			acis[0], acis[1] = u.UpdaterAci, u.MemberAci
			item.Type, item.Granted = types.GroupUpdateAdminStatusChanged, u.WasAdminStatusGranted
		case *backupProto.GroupExpirationTimerUpdate:
			acis[0] = u.UpdaterAci
			item.Type, item.TimerMs = types.GroupUpdateDisappearingTimerChanged, u.ExpiresInMs
		case *backupProto.GroupV2MigrationUpdate:
			item.Type = types.GroupUpdateWasMigrated
		case *backupProto.GroupJoinRequestUpdate:
			acis[1] = u.RequestorAci
			item.Type = types.GroupUpdateJoinRequest
		case *backupProto.GroupSequenceOfRequestsAndCancelsUpdate:
			acis[1] = u.RequestorAci
			item.Type, item.Count = types.GroupUpdateSequenceOfRequestsAndCancels, u.Count
		default:
			return nil, archive.NewUnrecognizedEnumError(archive.ProtoErrorUnknownGroupUpdate, id)
		}
		updaterACI, validUpdater := parseOptionalACI(acis[0])
		target, validTarget := parseOptionalACI(acis[1])
		if !validUpdater || !validTarget {
			return nil, archive.NewInvalidProtoError(archive.ProtoErrorInvalidACI, id)
		}
		item.Updater = rc.UpdaterFromACI(updaterACI)
		item.Target = target
		items = append(items, item)
		if item.Type == types.GroupUpdateCreated && item.Updater.Kind == types.UpdaterLocalUser {
			items = append(items, types.GroupUpdateItem{Type: types.GroupUpdateInviteFriendsToNewlyCreatedGroup, Updater: item.Updater})
		}
	}
	return items, nil
}
