// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package types

type ThreadKind uint8

const (
	ThreadKindContact ThreadKind = iota + 1
	ThreadKindGroup
)

func (tk ThreadKind) String() string {
	switch tk {
	case ThreadKindContact:
		return "contact"
	case ThreadKindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Thread is a conversation with either a single contact or a group.
type Thread struct {
	UniqueID ThreadUniqueID
	Kind     ThreadKind

	// Only set for contact threads.
	ContactRecipient RecipientUniqueID
	// Only set for group threads.
	GroupID GroupID

	Archived          bool
	MarkedUnread      bool
	PinnedOrder       uint32
	MuteUntilMs       uint64
	ExpirationTimerMs uint64
}

type InteractionKind uint8

const (
	InteractionIncoming InteractionKind = iota + 1
	InteractionOutgoing
	InteractionInfo
)

func (ik InteractionKind) String() string {
	switch ik {
	case InteractionIncoming:
		return "incoming"
	case InteractionOutgoing:
		return "outgoing"
	case InteractionInfo:
		return "info"
	default:
		return "unknown"
	}
}

type InfoMessageType uint8

const (
	InfoTypeSimple InfoMessageType = iota + 1
	InfoTypeGroupUpdate
)

// SimpleUpdateType is the type of a non-group chat update.
type SimpleUpdateType uint8

const (
	SimpleUpdateUnknown SimpleUpdateType = iota
	SimpleUpdateJoinedSignal
	SimpleUpdateIdentityUpdate
	SimpleUpdateIdentityVerified
	SimpleUpdateIdentityDefault
	SimpleUpdateChangeNumber
	SimpleUpdateEndSession
	SimpleUpdateChatSessionRefresh
	SimpleUpdateBadDecrypt
	SimpleUpdatePaymentsActivated
	SimpleUpdatePaymentActivationRequest
	SimpleUpdateUnsupportedProtocolMessage
	SimpleUpdateReportedSpam
	SimpleUpdateBlocked
	SimpleUpdateUnblocked
	SimpleUpdateMessageRequestAccepted
)

// Interaction is a single item in a thread: a message or an info message.
type Interaction struct {
	UniqueID InteractionUniqueID
	SortID   int64
	ThreadID ThreadUniqueID
	Kind     InteractionKind

	// Sent timestamp in milliseconds.
	Timestamp    uint64
	ReceivedAtMs uint64
	// The author is only set for incoming messages. Outgoing messages are always from the local user.
	Author RecipientUniqueID

	Body         string
	Attachments  []MessageAttachment
	Read         bool
	SealedSender bool

	ExpiresInMs       uint64
	ExpireStartedAtMs uint64

	InfoType     InfoMessageType
	SimpleUpdate SimpleUpdateType
	GroupUpdate  *GroupUpdateMetadata
}

// GroupUpdateMetadata is persisted with group update info messages.
//
// Newer messages store precomputed Items. Older messages only store the old and new
// snapshots, and the oldest ones only have a legacy display string.
type GroupUpdateMetadata struct {
	Items      []GroupUpdateItem `msgpack:"items,omitempty"`
	Old        *GroupSnapshot    `msgpack:"old,omitempty"`
	New        *GroupSnapshot    `msgpack:"new,omitempty"`
	Updater    ACI               `msgpack:"updater,omitempty"`
	LegacyText string            `msgpack:"legacy_text,omitempty"`
}
