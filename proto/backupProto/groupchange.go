// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backupProto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

type GroupChangeChatUpdate_Update struct {
	Update isGroupChangeChatUpdate_Update_Update
}

// isGroupChangeChatUpdate_Update_Update is implemented by the update variant messages themselves,
// each variant knows its own field number.
type isGroupChangeChatUpdate_Update_Update interface {
	Message
	fieldNumber() protowire.Number
}

func (x *GroupChangeChatUpdate_Update) GetUpdate() isGroupChangeChatUpdate_Update_Update {
	if x == nil {
		return nil
	}
	return x.Update
}

func (x *GroupChangeChatUpdate_Update) appendTo(b []byte) []byte {
	if x.Update != nil {
		b = appendMessage(b, x.Update.fieldNumber(), x.Update)
	}
	return b
}

func newGroupChangeVariant(num protowire.Number) isGroupChangeChatUpdate_Update_Update {
	switch num {
	case 1:
		return &GenericGroupUpdate{}
	case 2:
		return &GroupCreationUpdate{}
	case 3:
		return &GroupNameUpdate{}
	case 4:
		return &GroupAvatarUpdate{}
	case 5:
		return &GroupDescriptionUpdate{}
	case 10:
		return &GroupMemberJoinedUpdate{}
	case 11:
		return &GroupMemberAddedUpdate{}
	case 12:
		return &GroupMemberLeftUpdate{}
	case 13:
		return &GroupMemberRemovedUpdate{}
	case 14:
		return &GroupAdminStatusUpdate{}
	case 20:
		return &GroupJoinRequestUpdate{}
	case 21:
		return &GroupSequenceOfRequestsAndCancelsUpdate{}
	case 30:
		return &GroupV2MigrationUpdate{}
	case 40:
		return &GroupExpirationTimerUpdate{}
	default:
		return nil
	}
}

func (x *GroupChangeChatUpdate_Update) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if variant := newGroupChangeVariant(f.num); variant != nil {
			f.Message(variant)
			x.Update = variant
		}
	})
}

type GenericGroupUpdate struct {
	UpdaterAci []byte
}

func (*GenericGroupUpdate) fieldNumber() protowire.Number { return 1 }
func (x *GenericGroupUpdate) appendTo(b []byte) []byte {
	return appendBytes(b, 1, x.UpdaterAci)
}
func (x *GenericGroupUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			x.UpdaterAci = f.Bytes()
		}
	})
}

type GroupCreationUpdate struct {
	UpdaterAci []byte
}

func (*GroupCreationUpdate) fieldNumber() protowire.Number { return 2 }
func (x *GroupCreationUpdate) appendTo(b []byte) []byte {
	return appendBytes(b, 1, x.UpdaterAci)
}
func (x *GroupCreationUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			x.UpdaterAci = f.Bytes()
		}
	})
}

// GroupNameUpdate with an empty name means the name was removed.
type GroupNameUpdate struct {
	UpdaterAci   []byte
	NewGroupName string
}

func (*GroupNameUpdate) fieldNumber() protowire.Number { return 3 }
func (x *GroupNameUpdate) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.UpdaterAci)
	return appendString(b, 2, x.NewGroupName)
}
func (x *GroupNameUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.UpdaterAci = f.Bytes()
		case 2:
			x.NewGroupName = f.String()
		}
	})
}

type GroupAvatarUpdate struct {
	UpdaterAci []byte
	WasRemoved bool
}

func (*GroupAvatarUpdate) fieldNumber() protowire.Number { return 4 }
func (x *GroupAvatarUpdate) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.UpdaterAci)
	return appendBool(b, 2, x.WasRemoved)
}
func (x *GroupAvatarUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.UpdaterAci = f.Bytes()
		case 2:
			x.WasRemoved = f.Bool()
		}
	})
}

// GroupDescriptionUpdate with an empty description means the description was removed.
type GroupDescriptionUpdate struct {
	UpdaterAci     []byte
	NewDescription string
}

func (*GroupDescriptionUpdate) fieldNumber() protowire.Number { return 5 }
func (x *GroupDescriptionUpdate) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.UpdaterAci)
	return appendString(b, 2, x.NewDescription)
}
func (x *GroupDescriptionUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.UpdaterAci = f.Bytes()
		case 2:
			x.NewDescription = f.String()
		}
	})
}

type GroupMemberJoinedUpdate struct {
	NewMemberAci []byte
}

func (*GroupMemberJoinedUpdate) fieldNumber() protowire.Number { return 10 }
func (x *GroupMemberJoinedUpdate) appendTo(b []byte) []byte {
	return appendBytes(b, 1, x.NewMemberAci)
}
func (x *GroupMemberJoinedUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			x.NewMemberAci = f.Bytes()
		}
	})
}

type GroupMemberAddedUpdate struct {
	UpdaterAci   []byte
	NewMemberAci []byte
}

func (*GroupMemberAddedUpdate) fieldNumber() protowire.Number { return 11 }
func (x *GroupMemberAddedUpdate) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.UpdaterAci)
	return appendBytes(b, 2, x.NewMemberAci)
}
func (x *GroupMemberAddedUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.UpdaterAci = f.Bytes()
		case 2:
			x.NewMemberAci = f.Bytes()
		}
	})
}

type GroupMemberLeftUpdate struct {
	Aci []byte
}

func (*GroupMemberLeftUpdate) fieldNumber() protowire.Number { return 12 }
func (x *GroupMemberLeftUpdate) appendTo(b []byte) []byte {
	return appendBytes(b, 1, x.Aci)
}
func (x *GroupMemberLeftUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			x.Aci = f.Bytes()
		}
	})
}

type GroupMemberRemovedUpdate struct {
	RemoverAci []byte
	RemovedAci []byte
}

func (*GroupMemberRemovedUpdate) fieldNumber() protowire.Number { return 13 }
func (x *GroupMemberRemovedUpdate) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.RemoverAci)
	return appendBytes(b, 2, x.RemovedAci)
}
func (x *GroupMemberRemovedUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.RemoverAci = f.Bytes()
		case 2:
			x.RemovedAci = f.Bytes()
		}
	})
}

type GroupAdminStatusUpdate struct {
	UpdaterAci            []byte
	MemberAci             []byte
	WasAdminStatusGranted bool
}

func (*GroupAdminStatusUpdate) fieldNumber() protowire.Number { return 14 }
func (x *GroupAdminStatusUpdate) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.UpdaterAci)
	b = appendBytes(b, 2, x.MemberAci)
	return appendBool(b, 3, x.WasAdminStatusGranted)
}
func (x *GroupAdminStatusUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.UpdaterAci = f.Bytes()
		case 2:
			x.MemberAci = f.Bytes()
		case 3:
			x.WasAdminStatusGranted = f.Bool()
		}
	})
}

type GroupJoinRequestUpdate struct {
	RequestorAci []byte
}

func (*GroupJoinRequestUpdate) fieldNumber() protowire.Number { return 20 }
func (x *GroupJoinRequestUpdate) appendTo(b []byte) []byte {
	return appendBytes(b, 1, x.RequestorAci)
}
func (x *GroupJoinRequestUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			x.RequestorAci = f.Bytes()
		}
	})
}

type GroupSequenceOfRequestsAndCancelsUpdate struct {
	RequestorAci []byte
	Count        uint32
}

func (*GroupSequenceOfRequestsAndCancelsUpdate) fieldNumber() protowire.Number { return 21 }
func (x *GroupSequenceOfRequestsAndCancelsUpdate) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.RequestorAci)
	return appendVarint(b, 2, uint64(x.Count))
}
func (x *GroupSequenceOfRequestsAndCancelsUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.RequestorAci = f.Bytes()
		case 2:
			x.Count = f.Uint32()
		}
	})
}

type GroupV2MigrationUpdate struct{}

func (*GroupV2MigrationUpdate) fieldNumber() protowire.Number { return 30 }
func (x *GroupV2MigrationUpdate) appendTo(b []byte) []byte    { return b }
func (x *GroupV2MigrationUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(field) {})
}

type GroupExpirationTimerUpdate struct {
	ExpiresInMs uint64
	UpdaterAci  []byte
}

func (*GroupExpirationTimerUpdate) fieldNumber() protowire.Number { return 40 }
func (x *GroupExpirationTimerUpdate) appendTo(b []byte) []byte {
	b = appendVarint(b, 1, x.ExpiresInMs)
	return appendBytes(b, 2, x.UpdaterAci)
}
func (x *GroupExpirationTimerUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.ExpiresInMs = f.Uint64()
		case 2:
			x.UpdaterAci = f.Bytes()
		}
	})
}
