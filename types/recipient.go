// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package types

// Recipient is a contact known to the local account.
type Recipient struct {
	UniqueID RecipientUniqueID

	ACI  ACI
	PNI  PNI
	E164 E164

	Blocked        bool
	ProfileSharing bool
	HideStory      bool
	ProfileKey     []byte
	GivenName      string
	FamilyName     string
}

// HasServiceID returns true if the recipient has at least one identifier other than the phone number.
func (r *Recipient) HasServiceID() bool {
	return !r.ACI.IsEmpty() || !r.PNI.IsEmpty()
}

// HasIdentifier returns true if the recipient can be addressed at all.
func (r *Recipient) HasIdentifier() bool {
	return r.HasServiceID() || !r.E164.IsEmpty()
}

// Group is a group thread model.
type Group struct {
	GroupID     GroupID
	MasterKey   GroupMasterKey
	Whitelisted bool
	HideStory   bool
	Snapshot    GroupSnapshot
}

// GroupSnapshot is the state of a group at a point in time.
type GroupSnapshot struct {
	Title               string        `msgpack:"title,omitempty"`
	Description         string        `msgpack:"description,omitempty"`
	AvatarURL           string        `msgpack:"avatar_url,omitempty"`
	Members             []GroupMember `msgpack:"members,omitempty"`
	DisappearingTimerMs uint64        `msgpack:"disappearing_timer_ms,omitempty"`
}

type GroupMember struct {
	ACI   ACI  `msgpack:"aci"`
	Admin bool `msgpack:"admin,omitempty"`
}

// Member returns the member with the given ACI, or nil if the ACI is not a member.
func (gs *GroupSnapshot) Member(aci ACI) *GroupMember {
	if gs == nil {
		return nil
	}
	for i := range gs.Members {
		if gs.Members[i].ACI == aci {
			return &gs.Members[i]
		}
	}
	return nil
}

type CallLinkRestrictions uint8

const (
	CallLinkRestrictionsUnknown CallLinkRestrictions = iota
	CallLinkRestrictionsNone
	CallLinkRestrictionsAdminApproval
)

// CallLinkRecord is a call link the local user created or joined.
type CallLinkRecord struct {
	RoomID       CallLinkRoomID
	RootKey      []byte
	AdminPasskey []byte
	Name         string
	Restrictions CallLinkRestrictions
	Revoked      bool
	ExpirationMs uint64
	HasAnyCall   bool
}
