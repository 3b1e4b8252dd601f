// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package store contains interfaces for the data that is included in backups.
//
// Every method takes a context as the first parameter. If the context carries a
// database transaction, the method runs inside that transaction.
package store

import (
	"context"

	"go.mau.fi/msgbackup/types"
)

// EnumerateFunc is called for each row when enumerating a table. Returning an error stops the enumeration
// and the same error is returned from the enumerate method.
type EnumerateFunc[T any] func(item *T) error

type RecipientStore interface {
	PutRecipient(ctx context.Context, recipient *types.Recipient) error
	GetRecipient(ctx context.Context, id types.RecipientUniqueID) (*types.Recipient, error)
	// FetchRecipient returns the recipient matching any of the given identifiers, or nil if there is none.
	FetchRecipient(ctx context.Context, aci types.ACI, pni types.PNI, e164 types.E164) (*types.Recipient, error)
	EnumerateRecipients(ctx context.Context, fn EnumerateFunc[types.Recipient]) error
}

type GroupStore interface {
	PutGroup(ctx context.Context, group *types.Group) error
	GetGroup(ctx context.Context, id types.GroupID) (*types.Group, error)
	EnumerateGroups(ctx context.Context, fn EnumerateFunc[types.Group]) error
}

type ThreadStore interface {
	PutThread(ctx context.Context, thread *types.Thread) error
	GetThread(ctx context.Context, id types.ThreadUniqueID) (*types.Thread, error)
	GetContactThread(ctx context.Context, recipient types.RecipientUniqueID) (*types.Thread, error)
	GetGroupThread(ctx context.Context, group types.GroupID) (*types.Thread, error)
	EnumerateThreads(ctx context.Context, fn EnumerateFunc[types.Thread]) error
}

type InteractionStore interface {
	// PutInteraction inserts the interaction unless an identical one (same thread, timestamp, author, kind
	// and content) already exists. The returned bool is false if the interaction already existed.
	PutInteraction(ctx context.Context, interaction *types.Interaction) (bool, error)
	GetThreadInteractions(ctx context.Context, thread types.ThreadUniqueID) ([]*types.Interaction, error)
	EnumerateInteractions(ctx context.Context, fn EnumerateFunc[types.Interaction]) error
}

type CallRecordStore interface {
	PutCallRecord(ctx context.Context, record *types.CallRecord) error
	GetCallRecord(ctx context.Context, callID types.CallID, conversation types.CallConversationID) (*types.CallRecord, error)
	// EnumerateAdHocCallRecords enumerates call records whose conversation is a call link.
	EnumerateAdHocCallRecords(ctx context.Context, fn EnumerateFunc[types.CallRecord]) error
}

type CallLinkRecordStore interface {
	PutCallLinkRecord(ctx context.Context, record *types.CallLinkRecord) error
	GetCallLinkRecord(ctx context.Context, roomID types.CallLinkRoomID) (*types.CallLinkRecord, error)
	MarkCallLinkHasAnyCall(ctx context.Context, roomID types.CallLinkRoomID) error
	EnumerateCallLinkRecords(ctx context.Context, fn EnumerateFunc[types.CallLinkRecord]) error
}

type StickerPackStore interface {
	PutStickerPack(ctx context.Context, pack *types.StickerPack) error
	GetStickerPack(ctx context.Context, id types.StickerPackID) (*types.StickerPack, error)
	EnumerateInstalledStickerPacks(ctx context.Context, fn EnumerateFunc[types.StickerPack]) error
}

// StickerPackDownloadStore is the queue of sticker packs that were restored but not yet downloaded.
type StickerPackDownloadStore interface {
	// EnqueueStickerPackDownload adds the pack to the queue. The returned bool is false if it was already queued.
	EnqueueStickerPackDownload(ctx context.Context, id types.StickerPackID, key types.StickerPackKey) (bool, error)
	EnumerateQueuedStickerPacks(ctx context.Context, fn EnumerateFunc[types.QueuedStickerPackDownload]) error
	// PeekQueuedStickerPacks returns up to count of the oldest queued packs without removing them.
	PeekQueuedStickerPacks(ctx context.Context, count int) ([]*types.QueuedStickerPackDownload, error)
	RemoveQueuedStickerPack(ctx context.Context, id types.StickerPackID) error
}

// AttachmentDownloadStore is the queue of message attachments that were restored but not yet downloaded.
type AttachmentDownloadStore interface {
	// EnqueueAttachmentDownload adds the attachment at the given index of the interaction to the queue.
	// The returned bool is false if it was already queued.
	EnqueueAttachmentDownload(ctx context.Context, interaction types.InteractionUniqueID, index int, pointer *types.AttachmentPointer) (bool, error)
	EnumerateQueuedAttachments(ctx context.Context, fn EnumerateFunc[types.QueuedAttachmentDownload]) error
	// PeekQueuedAttachments returns up to count of the oldest queued attachments without removing them.
	PeekQueuedAttachments(ctx context.Context, count int) ([]*types.QueuedAttachmentDownload, error)
	RemoveQueuedAttachment(ctx context.Context, interaction types.InteractionUniqueID, index int) error
}

type KeyValueStore interface {
	// GetValue returns an empty string if the key doesn't exist.
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

// Transactor runs functions inside a database transaction. The transaction is carried in the context
// passed to fn, and is committed if fn returns nil and rolled back otherwise.
type Transactor interface {
	DoTxn(ctx context.Context, fn func(ctx context.Context) error) error
}

// AllStores contains every store needed for exporting and importing backups.
type AllStores struct {
	Recipients           RecipientStore
	Groups               GroupStore
	Threads              ThreadStore
	Interactions         InteractionStore
	CallRecords          CallRecordStore
	CallLinks            CallLinkRecordStore
	StickerPacks         StickerPackStore
	StickerPackDownloads StickerPackDownloadStore
	AttachmentDownloads  AttachmentDownloadStore
	KeyValue             KeyValueStore
	Transactor           Transactor
}
