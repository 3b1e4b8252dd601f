// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

import (
	"encoding/hex"

	"go.mau.fi/msgbackup/types"
)

type AddressKind uint8

const (
	AddressLocal AddressKind = iota + 1
	AddressContact
	AddressGroup
	AddressCallLink
	AddressReleaseNotes
)

func (ak AddressKind) String() string {
	switch ak {
	case AddressLocal:
		return "local"
	case AddressContact:
		return "contact"
	case AddressGroup:
		return "group"
	case AddressCallLink:
		return "call link"
	case AddressReleaseNotes:
		return "release notes"
	default:
		return "unknown"
	}
}

// RecipientAddress is a domain reference to something a recipient frame can describe.
type RecipientAddress struct {
	Kind AddressKind

	// Set for AddressContact, and for AddressLocal with the local identifiers.
	ACI  types.ACI
	PNI  types.PNI
	E164 types.E164
	// The database row of the contact. This is not part of the identity of the address.
	UniqueID types.RecipientUniqueID

	// Only set for AddressGroup.
	GroupID types.GroupID
	// Only set for AddressCallLink.
	RoomID types.CallLinkRoomID
}

func LocalAddress(local types.LocalIdentifiers) RecipientAddress {
	return RecipientAddress{Kind: AddressLocal, ACI: local.ACI, PNI: local.PNI, E164: local.E164}
}

func ContactAddress(recipient *types.Recipient) RecipientAddress {
	return RecipientAddress{
		Kind:     AddressContact,
		ACI:      recipient.ACI,
		PNI:      recipient.PNI,
		E164:     recipient.E164,
		UniqueID: recipient.UniqueID,
	}
}

func GroupAddress(groupID types.GroupID) RecipientAddress {
	return RecipientAddress{Kind: AddressGroup, GroupID: groupID}
}

func CallLinkAddress(roomID types.CallLinkRoomID) RecipientAddress {
	return RecipientAddress{Kind: AddressCallLink, RoomID: roomID}
}

func ReleaseNotesAddress() RecipientAddress {
	return RecipientAddress{Kind: AddressReleaseNotes}
}

// keys returns the normalized registry keys of the address. Contacts have one key per identifier.
func (ra RecipientAddress) keys() []string {
	switch ra.Kind {
	case AddressLocal:
		return append([]string{"local"}, ra.contactKeys()...)
	case AddressContact:
		return ra.contactKeys()
	case AddressGroup:
		return []string{"group:" + hex.EncodeToString(ra.GroupID[:])}
	case AddressCallLink:
		return []string{"calllink:" + hex.EncodeToString(ra.RoomID[:])}
	case AddressReleaseNotes:
		return []string{"releasenotes"}
	default:
		return nil
	}
}

func (ra RecipientAddress) contactKeys() []string {
	keys := make([]string, 0, 3)
	if !ra.ACI.IsEmpty() {
		keys = append(keys, "aci:"+ra.ACI.String())
	}
	if !ra.PNI.IsEmpty() {
		keys = append(keys, "pni:"+ra.PNI.String())
	}
	if !ra.E164.IsEmpty() {
		keys = append(keys, "e164:"+string(ra.E164))
	}
	return keys
}

func (ra RecipientAddress) TypeLogString() string {
	return "RecipientAddress/" + ra.Kind.String()
}

func (ra RecipientAddress) IDLogString() string {
	switch ra.Kind {
	case AddressContact:
		switch {
		case !ra.ACI.IsEmpty():
			return ra.ACI.IDLogString()
		case !ra.PNI.IsEmpty():
			return ra.PNI.IDLogString()
		default:
			return ra.E164.IDLogString()
		}
	case AddressGroup:
		return ra.GroupID.IDLogString()
	case AddressCallLink:
		return ra.RoomID.IDLogString()
	default:
		return ra.Kind.String()
	}
}
