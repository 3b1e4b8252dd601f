// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backupProto

// BackupInfo is the header at the start of every backup stream.
type BackupInfo struct {
	Version           uint64
	BackupTimeMs      uint64
	CurrentAppVersion string
	FirstAppVersion   string
}

func (x *BackupInfo) appendTo(b []byte) []byte {
	b = appendVarint(b, 1, x.Version)
	b = appendVarint(b, 2, x.BackupTimeMs)
	b = appendString(b, 4, x.CurrentAppVersion)
	b = appendString(b, 5, x.FirstAppVersion)
	return b
}

func (x *BackupInfo) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.Version = f.Uint64()
		case 2:
			x.BackupTimeMs = f.Uint64()
		case 4:
			x.CurrentAppVersion = f.String()
		case 5:
			x.FirstAppVersion = f.String()
		}
	})
}

// Frame is a single unit of the backup stream. Exactly one Item variant is set,
// unless the frame was written by a newer version with a variant this version doesn't know.
type Frame struct {
	Item isFrame_Item
}

type isFrame_Item interface {
	isFrame_Item()
}

type Frame_Recipient struct {
	Recipient *Recipient
}

type Frame_Chat struct {
	Chat *Chat
}

type Frame_ChatItem struct {
	ChatItem *ChatItem
}

type Frame_StickerPack struct {
	StickerPack *StickerPack
}

type Frame_AdHocCall struct {
	AdHocCall *AdHocCall
}

func (*Frame_Recipient) isFrame_Item()   {}
func (*Frame_Chat) isFrame_Item()        {}
func (*Frame_ChatItem) isFrame_Item()    {}
func (*Frame_StickerPack) isFrame_Item() {}
func (*Frame_AdHocCall) isFrame_Item()   {}

func (x *Frame) GetRecipient() *Recipient {
	if item, ok := x.GetItem().(*Frame_Recipient); ok {
		return item.Recipient
	}
	return nil
}

func (x *Frame) GetChat() *Chat {
	if item, ok := x.GetItem().(*Frame_Chat); ok {
		return item.Chat
	}
	return nil
}

func (x *Frame) GetChatItem() *ChatItem {
	if item, ok := x.GetItem().(*Frame_ChatItem); ok {
		return item.ChatItem
	}
	return nil
}

func (x *Frame) GetStickerPack() *StickerPack {
	if item, ok := x.GetItem().(*Frame_StickerPack); ok {
		return item.StickerPack
	}
	return nil
}

func (x *Frame) GetAdHocCall() *AdHocCall {
	if item, ok := x.GetItem().(*Frame_AdHocCall); ok {
		return item.AdHocCall
	}
	return nil
}

func (x *Frame) GetItem() isFrame_Item {
	if x == nil {
		return nil
	}
	return x.Item
}

func (x *Frame) appendTo(b []byte) []byte {
	switch item := x.Item.(type) {
	case *Frame_Recipient:
		if item.Recipient != nil {
			b = appendMessage(b, 2, item.Recipient)
		}
	case *Frame_Chat:
		if item.Chat != nil {
			b = appendMessage(b, 3, item.Chat)
		}
	case *Frame_ChatItem:
		if item.ChatItem != nil {
			b = appendMessage(b, 4, item.ChatItem)
		}
	case *Frame_StickerPack:
		if item.StickerPack != nil {
			b = appendMessage(b, 5, item.StickerPack)
		}
	case *Frame_AdHocCall:
		if item.AdHocCall != nil {
			b = appendMessage(b, 6, item.AdHocCall)
		}
	}
	return b
}

func (x *Frame) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 2:
			var msg Recipient
			f.Message(&msg)
			x.Item = &Frame_Recipient{Recipient: &msg}
		case 3:
			var msg Chat
			f.Message(&msg)
			x.Item = &Frame_Chat{Chat: &msg}
		case 4:
			var msg ChatItem
			f.Message(&msg)
			x.Item = &Frame_ChatItem{ChatItem: &msg}
		case 5:
			var msg StickerPack
			f.Message(&msg)
			x.Item = &Frame_StickerPack{StickerPack: &msg}
		case 6:
			var msg AdHocCall
			f.Message(&msg)
			x.Item = &Frame_AdHocCall{AdHocCall: &msg}
		}
	})
}

type StickerPack struct {
	PackID  []byte
	PackKey []byte
}

func (x *StickerPack) appendTo(b []byte) []byte {
	b = appendBytes(b, 1, x.PackID)
	b = appendBytes(b, 2, x.PackKey)
	return b
}

func (x *StickerPack) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.PackID = f.Bytes()
		case 2:
			x.PackKey = f.Bytes()
		}
	})
}

type AdHocCall_State int32

const (
	AdHocCall_UNKNOWN_STATE AdHocCall_State = 0
	AdHocCall_GENERIC       AdHocCall_State = 1
)

func (s AdHocCall_State) String() string {
	switch s {
	case AdHocCall_UNKNOWN_STATE:
		return "UNKNOWN_STATE"
	case AdHocCall_GENERIC:
		return "GENERIC"
	default:
		return "UNRECOGNIZED"
	}
}

type AdHocCall struct {
	CallID        uint64
	RecipientID   uint64
	State         AdHocCall_State
	CallTimestamp uint64
}

func (x *AdHocCall) appendTo(b []byte) []byte {
	b = appendVarint(b, 1, x.CallID)
	b = appendVarint(b, 2, x.RecipientID)
	b = appendVarint(b, 3, uint64(x.State))
	b = appendVarint(b, 4, x.CallTimestamp)
	return b
}

func (x *AdHocCall) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.CallID = f.Uint64()
		case 2:
			x.RecipientID = f.Uint64()
		case 3:
			x.State = AdHocCall_State(f.Uint64())
		case 4:
			x.CallTimestamp = f.Uint64()
		}
	})
}

var (
	_ Message = (*BackupInfo)(nil)
	_ Message = (*Frame)(nil)
	_ Message = (*StickerPack)(nil)
	_ Message = (*AdHocCall)(nil)
)
