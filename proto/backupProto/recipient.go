// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backupProto

type Recipient struct {
	ID          uint64
	Destination isRecipient_Destination
}

type isRecipient_Destination interface {
	isRecipient_Destination()
}

type Recipient_Contact struct {
	Contact *Contact
}

type Recipient_Group struct {
	Group *Group
}

type Recipient_Self struct {
	Self *Self
}

type Recipient_ReleaseNotes struct {
	ReleaseNotes *ReleaseNotes
}

type Recipient_CallLink struct {
	CallLink *CallLink
}

func (*Recipient_Contact) isRecipient_Destination()      {}
func (*Recipient_Group) isRecipient_Destination()        {}
func (*Recipient_Self) isRecipient_Destination()         {}
func (*Recipient_ReleaseNotes) isRecipient_Destination() {}
func (*Recipient_CallLink) isRecipient_Destination()     {}

func (x *Recipient) GetDestination() isRecipient_Destination {
	if x == nil {
		return nil
	}
	return x.Destination
}

func (x *Recipient) appendTo(b []byte) []byte {
	b = appendVarint(b, 1, x.ID)
	switch dest := x.Destination.(type) {
	case *Recipient_Contact:
		if dest.Contact != nil {
			b = appendMessage(b, 2, dest.Contact)
		}
	case *Recipient_Group:
		if dest.Group != nil {
			b = appendMessage(b, 3, dest.Group)
		}
	case *Recipient_Self:
		if dest.Self != nil {
			b = appendMessage(b, 5, dest.Self)
		}
	case *Recipient_ReleaseNotes:
		if dest.ReleaseNotes != nil {
			b = appendMessage(b, 6, dest.ReleaseNotes)
		}
	case *Recipient_CallLink:
		if dest.CallLink != nil {
			b = appendMessage(b, 7, dest.CallLink)
		}
	}
	return b
}

func (x *Recipient) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.ID = f.Uint64()
		case 2:
			var msg Contact
			f.Message(&msg)
			x.Destination = &Recipient_Contact{Contact: &msg}
		case 3:
			var msg Group
			f.Message(&msg)
			x.Destination = &Recipient_Group{Group: &msg}
		case 5:
			var msg Self
			f.Message(&msg)
			x.Destination = &Recipient_Self{Self: &msg}
		case 6:
			var msg ReleaseNotes
			f.Message(&msg)
			x.Destination = &Recipient_ReleaseNotes{ReleaseNotes: &msg}
		case 7:
			var msg CallLink
			f.Message(&msg)
			x.Destination = &Recipient_CallLink{CallLink: &msg}
		}
	})
}

type Contact struct {
	Aci               []byte
	Pni               []byte
	E164              uint64
	Blocked           bool
	ProfileKey        []byte
	ProfileSharing    bool
	ProfileGivenName  string
	ProfileFamilyName string
	HideStory         bool
}

func (x *Contact) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.Aci)
	b = appendBytes(b, 2, x.Pni)
	b = appendVarint(b, 4, x.E164)
	b = appendBool(b, 5, x.Blocked)
	b = appendBytes(b, 9, x.ProfileKey)
	b = appendBool(b, 10, x.ProfileSharing)
	b = appendString(b, 11, x.ProfileGivenName)
	b = appendString(b, 12, x.ProfileFamilyName)
	b = appendBool(b, 13, x.HideStory)
	return b
}

func (x *Contact) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.Aci = f.Bytes()
		case 2:
			x.Pni = f.Bytes()
		case 4:
			x.E164 = f.Uint64()
		case 5:
			x.Blocked = f.Bool()
		case 9:
			x.ProfileKey = f.Bytes()
		case 10:
			x.ProfileSharing = f.Bool()
		case 11:
			x.ProfileGivenName = f.String()
		case 12:
			x.ProfileFamilyName = f.String()
		case 13:
			x.HideStory = f.Bool()
		}
	})
}

type Group struct {
	MasterKey   []byte
	Whitelisted bool
	HideStory   bool
	Snapshot    *GroupSnapshot
}

func (x *Group) GetSnapshot() *GroupSnapshot {
	if x == nil {
		return nil
	}
	return x.Snapshot
}

func (x *Group) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.MasterKey)
	b = appendBool(b, 2, x.Whitelisted)
	b = appendBool(b, 3, x.HideStory)
	if x.Snapshot != nil {
		b = appendMessage(b, 5, x.Snapshot)
	}
	return b
}

func (x *Group) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.MasterKey = f.Bytes()
		case 2:
			x.Whitelisted = f.Bool()
		case 3:
			x.HideStory = f.Bool()
		case 5:
			x.Snapshot = &GroupSnapshot{}
			f.Message(x.Snapshot)
		}
	})
}

type GroupSnapshot struct {
	Title               string
	Description         string
	AvatarURL           string
	DisappearingTimerMs uint64
	Members             []*GroupSnapshot_Member
}

func (x *GroupSnapshot) GetTitle() string {
	if x == nil {
		return ""
	}
	return x.Title
}

func (x *GroupSnapshot) appendTo(b []byte) []byte {
	b = appendString(b, 1, x.Title)
	b = appendString(b, 2, x.Description)
	b = appendString(b, 3, x.AvatarURL)
	b = appendVarint(b, 4, x.DisappearingTimerMs)
	for _, member := range x.Members {
		if member != nil {
			b = appendMessage(b, 5, member)
		}
	}
	return b
}

func (x *GroupSnapshot) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.Title = f.String()
		case 2:
			x.Description = f.String()
		case 3:
			x.AvatarURL = f.String()
		case 4:
			x.DisappearingTimerMs = f.Uint64()
		case 5:
			var member GroupSnapshot_Member
			f.Message(&member)
			x.Members = append(x.Members, &member)
		}
	})
}

type GroupSnapshot_Member struct {
	UserID []byte
	Admin  bool
}

func (x *GroupSnapshot_Member) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.UserID)
	b = appendBool(b, 2, x.Admin)
	return b
}

func (x *GroupSnapshot_Member) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.UserID = f.Bytes()
		case 2:
			x.Admin = f.Bool()
		}
	})
}

type Self struct{}

func (x *Self) appendTo(b []byte) []byte { return b }
func (x *Self) unmarshal(b []byte) error { return rangeFields(b, func(field) {}) }

type ReleaseNotes struct{}

func (x *ReleaseNotes) appendTo(b []byte) []byte { return b }
func (x *ReleaseNotes) unmarshal(b []byte) error { return rangeFields(b, func(field) {}) }

type CallLink_Restrictions int32

const (
	CallLink_UNKNOWN        CallLink_Restrictions = 0
	CallLink_NONE           CallLink_Restrictions = 1
	CallLink_ADMIN_APPROVAL CallLink_Restrictions = 2
)

type CallLink struct {
	RootKey      []byte
	AdminKey     []byte
	Name         string
	Restrictions CallLink_Restrictions
	ExpirationMs uint64
}

func (x *CallLink) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.RootKey)
	b = appendBytes(b, 2, x.AdminKey)
	b = appendString(b, 3, x.Name)
	b = appendVarint(b, 4, uint64(x.Restrictions))
	b = appendVarint(b, 5, x.ExpirationMs)
	return b
}

func (x *CallLink) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.RootKey = f.Bytes()
		case 2:
			x.AdminKey = f.Bytes()
		case 3:
			x.Name = f.String()
		case 4:
			x.Restrictions = CallLink_Restrictions(f.Uint64())
		case 5:
			x.ExpirationMs = f.Uint64()
		}
	})
}

type Chat struct {
	ID                uint64
	RecipientID       uint64
	Archived          bool
	PinnedOrder       uint32
	ExpirationTimerMs uint64
	MuteUntilMs       uint64
	MarkedUnread      bool
}

func (x *Chat) appendTo(b []byte) []byte {
	b = appendVarint(b, 1, x.ID)
	b = appendVarint(b, 2, x.RecipientID)
	b = appendBool(b, 3, x.Archived)
	b = appendVarint(b, 4, uint64(x.PinnedOrder))
	b = appendVarint(b, 5, x.ExpirationTimerMs)
	b = appendVarint(b, 6, x.MuteUntilMs)
	b = appendBool(b, 7, x.MarkedUnread)
	return b
}

func (x *Chat) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.ID = f.Uint64()
		case 2:
			x.RecipientID = f.Uint64()
		case 3:
			x.Archived = f.Bool()
		case 4:
			x.PinnedOrder = f.Uint32()
		case 5:
			x.ExpirationTimerMs = f.Uint64()
		case 6:
			x.MuteUntilMs = f.Uint64()
		case 7:
			x.MarkedUnread = f.Bool()
		}
	})
}

var (
	_ Message = (*Recipient)(nil)
	_ Message = (*Contact)(nil)
	_ Message = (*Group)(nil)
	_ Message = (*GroupSnapshot)(nil)
	_ Message = (*GroupSnapshot_Member)(nil)
	_ Message = (*Self)(nil)
	_ Message = (*ReleaseNotes)(nil)
	_ Message = (*CallLink)(nil)
	_ Message = (*Chat)(nil)
)
