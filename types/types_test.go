// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package types

import (
	"errors"
	"testing"
)

func TestParseE164(t *testing.T) {
	testCases := []struct {
		input string
		valid bool
	}{
		{"+15551234567", true},
		{"+358401234567", true},
		{"15551234567", false},
		{"+0551234567", false},
		{"+1555", false},
		{"+1555abc4567", false},
		{"", false},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := ParseE164(tc.input)
			if tc.valid && err != nil {
				t.Errorf("Expected %q to be valid, got %v", tc.input, err)
			} else if !tc.valid && !errors.Is(err, ErrInvalidE164) {
				t.Errorf("Expected %q to be invalid, got %v", tc.input, err)
			}
		})
	}
}

func TestE164Uint(t *testing.T) {
	e164, err := E164FromUint(15551234567)
	if err != nil {
		t.Fatalf("Failed to parse numeric phone number: %v", err)
	}
	if e164 != "+15551234567" {
		t.Errorf("Unexpected phone number %q", e164)
	}
	if e164.Uint() != 15551234567 {
		t.Errorf("Unexpected numeric phone number %d", e164.Uint())
	}
	if E164("").Uint() != 0 {
		t.Error("Expected empty phone number to convert to 0")
	}
	if _, err = E164FromUint(0); err == nil {
		t.Error("Expected 0 to be rejected")
	}
}

func TestE164IsRedacted(t *testing.T) {
	if logged := E164("+15551234567").IDLogString(); logged != "+***67" {
		t.Errorf("Unexpected redacted phone number %q", logged)
	}
}

func TestDerivedIdentifiers(t *testing.T) {
	var mk1, mk2 GroupMasterKey
	mk2[0] = 1
	if mk1.GroupID() == mk2.GroupID() {
		t.Error("Expected different master keys to produce different group IDs")
	}
	if mk2.GroupID() != mk2.GroupID() {
		t.Error("Expected group ID derivation to be deterministic")
	}
	if DeriveCallLinkRoomID([]byte{1}) == DeriveCallLinkRoomID([]byte{2}) {
		t.Error("Expected different root keys to produce different room IDs")
	}
	if _, err := ParseGroupMasterKey(make([]byte, 16)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength for short master key, got %v", err)
	}
	if _, err := ParseStickerPackID(make([]byte, 32)); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength for long sticker pack ID, got %v", err)
	}
	if _, err := ParseACIBytes([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Expected ErrInvalidLength for short ACI, got %v", err)
	}
}

func TestConversationKeys(t *testing.T) {
	thread := CallConversationID{Kind: CallConversationThread, ThreadID: "abc"}
	if thread.Key() != "thread:abc" {
		t.Errorf("Unexpected thread conversation key %q", thread.Key())
	}
	var room CallLinkRoomID
	room[31] = 0xff
	link := CallConversationID{Kind: CallConversationCallLink, RoomID: room}
	if link.Key() != "calllink:"+room.String() {
		t.Errorf("Unexpected call link conversation key %q", link.Key())
	}
}

func TestSnapshotMember(t *testing.T) {
	aci := NewACI()
	snapshot := &GroupSnapshot{Members: []GroupMember{{ACI: aci, Admin: true}}}
	if member := snapshot.Member(aci); member == nil || !member.Admin {
		t.Errorf("Expected admin member, got %+v", member)
	}
	if snapshot.Member(NewACI()) != nil {
		t.Error("Expected unknown ACI to not be a member")
	}
	var nilSnapshot *GroupSnapshot
	if nilSnapshot.Member(aci) != nil {
		t.Error("Expected nil snapshot to have no members")
	}
}
