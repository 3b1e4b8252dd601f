// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package types

import (
	"encoding/hex"
	"time"
)

type CallConversationKind uint8

const (
	CallConversationThread CallConversationKind = iota + 1
	CallConversationCallLink
)

// CallConversationID is the conversation a call happened in.
type CallConversationID struct {
	Kind     CallConversationKind
	ThreadID ThreadUniqueID
	RoomID   CallLinkRoomID
}

// Key returns the string form used as the database key.
func (c CallConversationID) Key() string {
	switch c.Kind {
	case CallConversationThread:
		return "thread:" + string(c.ThreadID)
	case CallConversationCallLink:
		return "calllink:" + hex.EncodeToString(c.RoomID[:])
	default:
		return ""
	}
}

type CallType uint8

const (
	CallTypeAudio CallType = iota + 1
	CallTypeVideo
	CallTypeGroup
	CallTypeAdHoc
)

type CallDirection uint8

const (
	CallDirectionIncoming CallDirection = iota + 1
	CallDirectionOutgoing
)

type CallStatus uint8

const (
	CallStatusGeneric CallStatus = iota + 1
	CallStatusJoined
	CallStatusAccepted
	CallStatusMissed
	CallStatusDeclined
)

// CallRecord is an entry in the call log.
type CallRecord struct {
	CallID             CallID
	Conversation       CallConversationID
	Type               CallType
	Direction          CallDirection
	Status             CallStatus
	CallBeganTimestamp uint64
}

// StickerPack is an installed sticker pack.
type StickerPack struct {
	PackID    StickerPackID
	PackKey   StickerPackKey
	Title     string
	Author    string
	Installed bool
}

// QueuedStickerPackDownload is a sticker pack that was restored from a backup but hasn't been downloaded yet.
type QueuedStickerPackDownload struct {
	PackID   StickerPackID
	PackKey  StickerPackKey
	QueuedAt time.Time
}
