// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatitem

import (
	"go.mau.fi/msgbackup/types"
)

// BuildGroupUpdateItems computes the displayable changes between two group snapshots.
//
// The updater is the author of the change relative to the local user, updaterACI is their raw ACI.
// A nil before snapshot means the group was created. If nothing that can be described changed,
// a single generic update is returned, so the result is never empty.
func BuildGroupUpdateItems(before, after *types.GroupSnapshot, updaterACI types.ACI, updater types.Updater) []types.GroupUpdateItem {
	if after == nil {
		return []types.GroupUpdateItem{{Type: types.GroupUpdateGeneric, Updater: updater}}
	}
	if before == nil {
		items := []types.GroupUpdateItem{{Type: types.GroupUpdateCreated, Updater: updater}}
		if updater.Kind == types.UpdaterLocalUser {
			items = append(items, types.GroupUpdateItem{Type: types.GroupUpdateInviteFriendsToNewlyCreatedGroup, Updater: updater})
		}
		return items
	}
	var items []types.GroupUpdateItem
	add := func(item types.GroupUpdateItem) {
		item.Updater = updater
		items = append(items, item)
	}

	if before.Title != after.Title {
		if after.Title == "" {
			add(types.GroupUpdateItem{Type: types.GroupUpdateNameRemoved})
		} else {
			add(types.GroupUpdateItem{Type: types.GroupUpdateNameChanged, Text: after.Title})
		}
	}
	if before.Description != after.Description {
		if after.Description == "" {
			add(types.GroupUpdateItem{Type: types.GroupUpdateDescriptionRemoved})
		} else {
			add(types.GroupUpdateItem{Type: types.GroupUpdateDescriptionChanged, Text: after.Description})
		}
	}
	if before.AvatarURL != after.AvatarURL {
		if after.AvatarURL == "" {
			add(types.GroupUpdateItem{Type: types.GroupUpdateAvatarRemoved})
		} else {
			add(types.GroupUpdateItem{Type: types.GroupUpdateAvatarChanged})
		}
	}
	if before.DisappearingTimerMs != after.DisappearingTimerMs {
		add(types.GroupUpdateItem{Type: types.GroupUpdateDisappearingTimerChanged, TimerMs: after.DisappearingTimerMs})
	}

	isUpdater := func(aci types.ACI) bool {
		return !updaterACI.IsEmpty() && updaterACI == aci
	}
	for _, member := range after.Members {
		prev := before.Member(member.ACI)
		switch {
		case prev == nil && isUpdater(member.ACI):
			add(types.GroupUpdateItem{Type: types.GroupUpdateMemberJoined, Target: member.ACI})
		case prev == nil:
			add(types.GroupUpdateItem{Type: types.GroupUpdateMemberAdded, Target: member.ACI})
		case prev.Admin != member.Admin:
			add(types.GroupUpdateItem{Type: types.GroupUpdateAdminStatusChanged, Target: member.ACI, Granted: member.Admin})
		}
	}
	for _, member := range before.Members {
		if after.Member(member.ACI) != nil {
			continue
		} else if isUpdater(member.ACI) {
			add(types.GroupUpdateItem{Type: types.GroupUpdateMemberLeft, Target: member.ACI})
		} else {
			add(types.GroupUpdateItem{Type: types.GroupUpdateMemberRemoved, Target: member.ACI})
		}
	}

	if len(items) == 0 {
		add(types.GroupUpdateItem{Type: types.GroupUpdateGeneric})
	}
	return items
}
