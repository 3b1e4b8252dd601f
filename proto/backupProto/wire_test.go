// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backupProto

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestFrameRoundTrip(t *testing.T) {
	aci := []byte("0123456789abcdef")
	frames := []*Frame{
		{Item: &Frame_Recipient{Recipient: &Recipient{ID: 1, Destination: &Recipient_Self{Self: &Self{}}}}},
		{Item: &Frame_Recipient{Recipient: &Recipient{ID: 2, Destination: &Recipient_Contact{Contact: &Contact{
			Aci:              aci,
			E164:             15551234567,
			ProfileSharing:   true,
			ProfileGivenName: "Alice",
		}}}}},
		{Item: &Frame_Recipient{Recipient: &Recipient{ID: 3, Destination: &Recipient_Group{Group: &Group{
			MasterKey: make([]byte, 32),
			Snapshot: &GroupSnapshot{
				Title:   "Group",
				Members: []*GroupSnapshot_Member{{UserID: aci, Admin: true}},
			},
		}}}}},
		{Item: &Frame_Chat{Chat: &Chat{ID: 1, RecipientID: 2, PinnedOrder: 3, Archived: true}}},
		{Item: &Frame_ChatItem{ChatItem: &ChatItem{
			ChatID:             1,
			AuthorID:           2,
			DateSent:           1700000000000,
			DirectionalDetails: &ChatItem_Directionless{Directionless: &ChatItem_DirectionlessMessageDetails{}},
			Item: &ChatItem_UpdateMessage{UpdateMessage: &ChatUpdateMessage{
				Update: &ChatUpdateMessage_GroupChange{GroupChange: &GroupChangeChatUpdate{
					Updates: []*GroupChangeChatUpdate_Update{
						{Update: &GroupCreationUpdate{UpdaterAci: aci}},
						{Update: &GroupNameUpdate{UpdaterAci: aci, NewGroupName: "New name"}},
						{Update: &GroupV2MigrationUpdate{}},
						{Update: &GroupSequenceOfRequestsAndCancelsUpdate{RequestorAci: aci, Count: 4}},
					},
				}},
			}},
		}}},
		{Item: &Frame_ChatItem{ChatItem: &ChatItem{
			ChatID:   1,
			AuthorID: 2,
			DateSent: 1700000000001,
			DirectionalDetails: &ChatItem_Incoming{Incoming: &ChatItem_IncomingMessageDetails{
				DateReceived: 1700000000002,
				Read:         true,
			}},
			Item: &ChatItem_StandardMessage{StandardMessage: &StandardMessage{Text: &Text{Body: "hello"}}},
		}}},
		{Item: &Frame_ChatItem{ChatItem: &ChatItem{
			ChatID:             1,
			AuthorID:           1,
			DateSent:           1700000000003,
			DirectionalDetails: &ChatItem_Outgoing{Outgoing: &ChatItem_OutgoingMessageDetails{}},
			Item: &ChatItem_StandardMessage{StandardMessage: &StandardMessage{Attachments: []*MessageAttachment{{
				Pointer: &FilePointer{
					Locator: &FilePointer_AttachmentLocator_{AttachmentLocator: &FilePointer_AttachmentLocator{
						CDNKey:    "abc",
						CDNNumber: 3,
						Key:       make([]byte, 64),
						Digest:    []byte("digest"),
						Size:      1234,
					}},
					ContentType: "image/png",
					Width:       640,
					Height:      480,
				},
				Flag:       MessageAttachment_BORDERLESS,
				ClientUUID: aci,
			}, {
				Pointer: &FilePointer{
					Locator:  &FilePointer_InvalidAttachmentLocator_{InvalidAttachmentLocator: &FilePointer_InvalidAttachmentLocator{}},
					FileName: "notes.txt",
				},
				WasDownloaded: true,
			}}}},
		}}},
		{Item: &Frame_StickerPack{StickerPack: &StickerPack{PackID: make([]byte, 16), PackKey: make([]byte, 32)}}},
		{Item: &Frame_AdHocCall{AdHocCall: &AdHocCall{CallID: 5, RecipientID: 4, State: AdHocCall_GENERIC, CallTimestamp: 1}}},
	}
	for _, frame := range frames {
		var parsed Frame
		if err := Unmarshal(Marshal(frame), &parsed); err != nil {
			t.Fatalf("Failed to unmarshal %T: %v", frame.Item, err)
		}
		// Empty byte slices are not encoded, so zero-filled keys need special treatment.
		if diff := cmp.Diff(frame, &parsed, cmp.Comparer(func(a, b []byte) bool {
			return string(a) == string(b)
		})); diff != "" {
			t.Errorf("Round trip of %T mismatch (-want +got):\n%s", frame.Item, diff)
		}
	}
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	data := Marshal(&AdHocCall{CallID: 1, RecipientID: 2, State: AdHocCall_GENERIC, CallTimestamp: 3})
	data = protowire.AppendTag(data, 99, protowire.BytesType)
	data = protowire.AppendString(data, "from the future")
	data = protowire.AppendTag(data, 100, protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, 12345)
	var parsed AdHocCall
	if err := Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if parsed.CallID != 1 || parsed.RecipientID != 2 || parsed.CallTimestamp != 3 {
		t.Errorf("Unexpected parsed value %+v", parsed)
	}
}

func TestUnknownFrameVariant(t *testing.T) {
	data := protowire.AppendTag(nil, 50, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte{0x08, 0x01})
	var parsed Frame
	if err := Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if parsed.Item != nil {
		t.Errorf("Expected nil item for unknown variant, got %T", parsed.Item)
	}
}

func TestWrongWireType(t *testing.T) {
	data := protowire.AppendTag(nil, 1, protowire.BytesType)
	data = protowire.AppendString(data, "not a varint")
	var parsed AdHocCall
	if err := Unmarshal(data, &parsed); !errors.Is(err, ErrWrongWireType) {
		t.Errorf("Expected ErrWrongWireType, got %v", err)
	}
}

func TestTruncatedMessage(t *testing.T) {
	data := Marshal(&Chat{ID: 1, RecipientID: 300})
	var parsed Chat
	if err := Unmarshal(data[:len(data)-1], &parsed); err == nil {
		t.Error("Expected error for truncated message")
	}
}
