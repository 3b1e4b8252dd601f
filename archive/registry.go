// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

import (
	"go.mau.fi/msgbackup/types"
)

// RecipientArchivingContext assigns recipient IDs during an export. It's not safe for concurrent use.
type RecipientArchivingContext struct {
	byKey  map[string]RecipientID
	nextID RecipientID
}

func NewRecipientArchivingContext() *RecipientArchivingContext {
	return &RecipientArchivingContext{
		byKey:  make(map[string]RecipientID),
		nextID: 1,
	}
}

// Assign returns the ID of the given address, allocating a new one if none of the address's
// identifiers have been seen before. Any new identifiers of a known contact are attached to the existing ID.
func (rac *RecipientArchivingContext) Assign(addr RecipientAddress) RecipientID {
	keys := addr.keys()
	id, found := rac.lookupKeys(keys)
	if !found {
		id = rac.nextID
		rac.nextID++
	}
	for _, key := range keys {
		if _, exists := rac.byKey[key]; !exists {
			rac.byKey[key] = id
		}
	}
	return id
}

func (rac *RecipientArchivingContext) lookupKeys(keys []string) (RecipientID, bool) {
	for _, key := range keys {
		if id, ok := rac.byKey[key]; ok {
			return id, true
		}
	}
	return 0, false
}

// Lookup returns the ID previously assigned to the address.
func (rac *RecipientArchivingContext) Lookup(addr RecipientAddress) (RecipientID, bool) {
	return rac.lookupKeys(addr.keys())
}

// LookupACI returns the ID previously assigned to a contact or the local user with the given ACI.
func (rac *RecipientArchivingContext) LookupACI(aci types.ACI) (RecipientID, bool) {
	return rac.Lookup(RecipientAddress{Kind: AddressContact, ACI: aci})
}

// Count returns the number of distinct IDs assigned.
func (rac *RecipientArchivingContext) Count() int {
	return int(rac.nextID - 1)
}

// ChatArchivingContext assigns chat IDs during an export. It's not safe for concurrent use.
type ChatArchivingContext struct {
	byThread map[types.ThreadUniqueID]ChatID
	nextID   ChatID
}

func NewChatArchivingContext() *ChatArchivingContext {
	return &ChatArchivingContext{
		byThread: make(map[types.ThreadUniqueID]ChatID),
		nextID:   1,
	}
}

// Assign returns the chat ID of the thread, allocating a new one on first use.
func (cac *ChatArchivingContext) Assign(thread types.ThreadUniqueID) ChatID {
	if id, ok := cac.byThread[thread]; ok {
		return id
	}
	id := cac.nextID
	cac.nextID++
	cac.byThread[thread] = id
	return id
}

func (cac *ChatArchivingContext) Lookup(thread types.ThreadUniqueID) (ChatID, bool) {
	id, ok := cac.byThread[thread]
	return id, ok
}

// RecipientRestoringContext maps recipient IDs seen in a backup to addresses. It's not safe for concurrent use.
type RecipientRestoringContext struct {
	byID map[RecipientID]RecipientAddress
}

func NewRecipientRestoringContext() *RecipientRestoringContext {
	return &RecipientRestoringContext{byID: make(map[RecipientID]RecipientAddress)}
}

// Bind records the address of a recipient ID. It returns false if the ID was already bound,
// in which case the existing binding is kept.
func (rrc *RecipientRestoringContext) Bind(id RecipientID, addr RecipientAddress) bool {
	if _, exists := rrc.byID[id]; exists {
		return false
	}
	rrc.byID[id] = addr
	return true
}

func (rrc *RecipientRestoringContext) Lookup(id RecipientID) (RecipientAddress, bool) {
	addr, ok := rrc.byID[id]
	return addr, ok
}

// BoundChat is the thread a restored chat ID refers to.
type BoundChat struct {
	ThreadID    types.ThreadUniqueID
	RecipientID RecipientID
}

// ChatRestoringContext maps chat IDs seen in a backup to threads. It's not safe for concurrent use.
type ChatRestoringContext struct {
	byID map[ChatID]BoundChat
}

func NewChatRestoringContext() *ChatRestoringContext {
	return &ChatRestoringContext{byID: make(map[ChatID]BoundChat)}
}

// Bind records the thread of a chat ID. It returns false if the ID was already bound.
func (crc *ChatRestoringContext) Bind(id ChatID, thread types.ThreadUniqueID, recipient RecipientID) bool {
	if _, exists := crc.byID[id]; exists {
		return false
	}
	crc.byID[id] = BoundChat{ThreadID: thread, RecipientID: recipient}
	return true
}

func (crc *ChatRestoringContext) Lookup(id ChatID) (BoundChat, bool) {
	bound, ok := crc.byID[id]
	return bound, ok
}
