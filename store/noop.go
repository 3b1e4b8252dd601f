// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package store

import (
	"context"

	"go.mau.fi/msgbackup/types"
)

// NoopStore implements every store interface without any data. Reads return nothing and writes return Error.
//
// It's mostly useful as a base for test fakes that only override a few methods.
type NoopStore struct {
	Error error
}

// NoopStores returns an AllStores where every store is the given NoopStore.
func NoopStores(n *NoopStore) AllStores {
	return AllStores{
		Recipients:           n,
		Groups:               n,
		Threads:              n,
		Interactions:         n,
		CallRecords:          n,
		CallLinks:            n,
		StickerPacks:         n,
		StickerPackDownloads: n,
		AttachmentDownloads:  n,
		KeyValue:             n,
		Transactor:           n,
	}
}

var (
	_ RecipientStore           = (*NoopStore)(nil)
	_ GroupStore               = (*NoopStore)(nil)
	_ ThreadStore              = (*NoopStore)(nil)
	_ InteractionStore         = (*NoopStore)(nil)
	_ CallRecordStore          = (*NoopStore)(nil)
	_ CallLinkRecordStore      = (*NoopStore)(nil)
	_ StickerPackStore         = (*NoopStore)(nil)
	_ StickerPackDownloadStore = (*NoopStore)(nil)
	_ AttachmentDownloadStore  = (*NoopStore)(nil)
	_ KeyValueStore            = (*NoopStore)(nil)
	_ Transactor               = (*NoopStore)(nil)
)

func (n *NoopStore) PutRecipient(ctx context.Context, recipient *types.Recipient) error {
	return n.Error
}

func (n *NoopStore) GetRecipient(ctx context.Context, id types.RecipientUniqueID) (*types.Recipient, error) {
	return nil, nil
}

func (n *NoopStore) FetchRecipient(ctx context.Context, aci types.ACI, pni types.PNI, e164 types.E164) (*types.Recipient, error) {
	return nil, nil
}

func (n *NoopStore) EnumerateRecipients(ctx context.Context, fn EnumerateFunc[types.Recipient]) error {
	return nil
}

func (n *NoopStore) PutGroup(ctx context.Context, group *types.Group) error {
	return n.Error
}

func (n *NoopStore) GetGroup(ctx context.Context, id types.GroupID) (*types.Group, error) {
	return nil, nil
}

func (n *NoopStore) EnumerateGroups(ctx context.Context, fn EnumerateFunc[types.Group]) error {
	return nil
}

func (n *NoopStore) PutThread(ctx context.Context, thread *types.Thread) error {
	return n.Error
}

func (n *NoopStore) GetThread(ctx context.Context, id types.ThreadUniqueID) (*types.Thread, error) {
	return nil, nil
}

func (n *NoopStore) GetContactThread(ctx context.Context, recipient types.RecipientUniqueID) (*types.Thread, error) {
	return nil, nil
}

func (n *NoopStore) GetGroupThread(ctx context.Context, group types.GroupID) (*types.Thread, error) {
	return nil, nil
}

func (n *NoopStore) EnumerateThreads(ctx context.Context, fn EnumerateFunc[types.Thread]) error {
	return nil
}

func (n *NoopStore) PutInteraction(ctx context.Context, interaction *types.Interaction) (bool, error) {
	return false, n.Error
}

func (n *NoopStore) GetThreadInteractions(ctx context.Context, thread types.ThreadUniqueID) ([]*types.Interaction, error) {
	return nil, nil
}

func (n *NoopStore) EnumerateInteractions(ctx context.Context, fn EnumerateFunc[types.Interaction]) error {
	return nil
}

func (n *NoopStore) PutCallRecord(ctx context.Context, record *types.CallRecord) error {
	return n.Error
}

func (n *NoopStore) GetCallRecord(ctx context.Context, callID types.CallID, conversation types.CallConversationID) (*types.CallRecord, error) {
	return nil, nil
}

func (n *NoopStore) EnumerateAdHocCallRecords(ctx context.Context, fn EnumerateFunc[types.CallRecord]) error {
	return nil
}

func (n *NoopStore) PutCallLinkRecord(ctx context.Context, record *types.CallLinkRecord) error {
	return n.Error
}

func (n *NoopStore) GetCallLinkRecord(ctx context.Context, roomID types.CallLinkRoomID) (*types.CallLinkRecord, error) {
	return nil, nil
}

func (n *NoopStore) MarkCallLinkHasAnyCall(ctx context.Context, roomID types.CallLinkRoomID) error {
	return n.Error
}

func (n *NoopStore) EnumerateCallLinkRecords(ctx context.Context, fn EnumerateFunc[types.CallLinkRecord]) error {
	return nil
}

func (n *NoopStore) PutStickerPack(ctx context.Context, pack *types.StickerPack) error {
	return n.Error
}

func (n *NoopStore) GetStickerPack(ctx context.Context, id types.StickerPackID) (*types.StickerPack, error) {
	return nil, nil
}

func (n *NoopStore) EnumerateInstalledStickerPacks(ctx context.Context, fn EnumerateFunc[types.StickerPack]) error {
	return nil
}

func (n *NoopStore) EnqueueStickerPackDownload(ctx context.Context, id types.StickerPackID, key types.StickerPackKey) (bool, error) {
	return false, n.Error
}

func (n *NoopStore) EnumerateQueuedStickerPacks(ctx context.Context, fn EnumerateFunc[types.QueuedStickerPackDownload]) error {
	return nil
}

func (n *NoopStore) PeekQueuedStickerPacks(ctx context.Context, count int) ([]*types.QueuedStickerPackDownload, error) {
	return nil, nil
}

func (n *NoopStore) RemoveQueuedStickerPack(ctx context.Context, id types.StickerPackID) error {
	return n.Error
}

func (n *NoopStore) EnqueueAttachmentDownload(ctx context.Context, interaction types.InteractionUniqueID, index int, pointer *types.AttachmentPointer) (bool, error) {
	return false, n.Error
}

func (n *NoopStore) EnumerateQueuedAttachments(ctx context.Context, fn EnumerateFunc[types.QueuedAttachmentDownload]) error {
	return nil
}

func (n *NoopStore) PeekQueuedAttachments(ctx context.Context, count int) ([]*types.QueuedAttachmentDownload, error) {
	return nil, nil
}

func (n *NoopStore) RemoveQueuedAttachment(ctx context.Context, interaction types.InteractionUniqueID, index int) error {
	return n.Error
}

func (n *NoopStore) GetValue(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (n *NoopStore) SetValue(ctx context.Context, key, value string) error {
	return n.Error
}

// DoTxn runs fn directly without a transaction.
func (n *NoopStore) DoTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
