// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package types

type UpdaterKind uint8

const (
	UpdaterUnknown UpdaterKind = iota
	UpdaterLocalUser
	UpdaterOtherUser
)

// Updater describes who made a change to a group.
type Updater struct {
	Kind UpdaterKind `msgpack:"kind"`
	// Only set for UpdaterOtherUser.
	ACI ACI `msgpack:"aci,omitempty"`
}

var (
	UnknownUpdater   = Updater{Kind: UpdaterUnknown}
	LocalUserUpdater = Updater{Kind: UpdaterLocalUser}
)

func OtherUserUpdater(aci ACI) Updater {
	return Updater{Kind: UpdaterOtherUser, ACI: aci}
}

type GroupUpdateItemType uint8

const (
	GroupUpdateGeneric GroupUpdateItemType = iota + 1
	GroupUpdateCreated
	GroupUpdateInviteFriendsToNewlyCreatedGroup
	GroupUpdateNameChanged
	GroupUpdateNameRemoved
	GroupUpdateDescriptionChanged
	GroupUpdateDescriptionRemoved
	GroupUpdateAvatarChanged
	GroupUpdateAvatarRemoved
	GroupUpdateMemberJoined
	GroupUpdateMemberAdded
	GroupUpdateMemberLeft
	GroupUpdateMemberRemoved
	GroupUpdateAdminStatusChanged
	GroupUpdateDisappearingTimerChanged
	GroupUpdateWasMigrated
	GroupUpdateJoinRequest
	GroupUpdateSequenceOfRequestsAndCancels
	GroupUpdateLegacyRawString
)

var groupUpdateItemTypeNames = map[GroupUpdateItemType]string{
	GroupUpdateGeneric:                          "generic",
	GroupUpdateCreated:                          "created",
	GroupUpdateInviteFriendsToNewlyCreatedGroup: "invite_friends_to_newly_created_group",
	GroupUpdateNameChanged:                      "name_changed",
	GroupUpdateNameRemoved:                      "name_removed",
	GroupUpdateDescriptionChanged:               "description_changed",
	GroupUpdateDescriptionRemoved:               "description_removed",
	GroupUpdateAvatarChanged:                    "avatar_changed",
	GroupUpdateAvatarRemoved:                    "avatar_removed",
	GroupUpdateMemberJoined:                     "member_joined",
	GroupUpdateMemberAdded:                      "member_added",
	GroupUpdateMemberLeft:                       "member_left",
	GroupUpdateMemberRemoved:                    "member_removed",
	GroupUpdateAdminStatusChanged:               "admin_status_changed",
	GroupUpdateDisappearingTimerChanged:         "disappearing_timer_changed",
	GroupUpdateWasMigrated:                      "was_migrated",
	GroupUpdateJoinRequest:                      "join_request",
	GroupUpdateSequenceOfRequestsAndCancels:     "sequence_of_requests_and_cancels",
	GroupUpdateLegacyRawString:                  "legacy_raw_string",
}

func (t GroupUpdateItemType) String() string {
	name, ok := groupUpdateItemTypeNames[t]
	if !ok {
		return "unknown"
	}
	return name
}

// GroupUpdateItem is a single displayable change within a group update info message.
type GroupUpdateItem struct {
	Type    GroupUpdateItemType `msgpack:"type"`
	Updater Updater             `msgpack:"updater"`
	// The member affected by the change, if any.
	Target ACI `msgpack:"target,omitempty"`

	// New name or description, or the display text of legacy updates.
	Text string `msgpack:"text,omitempty"`
	// Whether admin status was granted (as opposed to revoked).
	Granted bool   `msgpack:"granted,omitempty"`
	Count   uint32 `msgpack:"count,omitempty"`
	TimerMs uint64 `msgpack:"timer_ms,omitempty"`
}
