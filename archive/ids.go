// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package archive contains the shared state and result types used by the per-entity archivers.
package archive

import (
	"fmt"
	"strconv"
)

// LoggableID is implemented by every identifier that may appear in backup error logs.
// IDLogString must never include sensitive data like phone numbers or secret keys.
type LoggableID interface {
	TypeLogString() string
	IDLogString() string
}

// RecipientID is the session-scoped identifier of a recipient frame.
type RecipientID uint64

func (id RecipientID) TypeLogString() string { return "RecipientId" }
func (id RecipientID) IDLogString() string   { return strconv.FormatUint(uint64(id), 10) }

// ChatID is the session-scoped identifier of a chat frame.
type ChatID uint64

func (id ChatID) TypeLogString() string { return "ChatId" }
func (id ChatID) IDLogString() string   { return strconv.FormatUint(uint64(id), 10) }

// ChatItemID identifies a chat item in a backup, which doesn't have an identifier of its own.
type ChatItemID struct {
	ChatID   ChatID
	DateSent uint64
}

func (id ChatItemID) TypeLogString() string { return "ChatItemId" }
func (id ChatItemID) IDLogString() string {
	return fmt.Sprintf("%d:%d", id.ChatID, id.DateSent)
}

// AdHocCallID identifies an ad-hoc call frame.
type AdHocCallID struct {
	CallID      uint64
	RecipientID RecipientID
}

func (id AdHocCallID) TypeLogString() string { return "AdHocCallId" }
func (id AdHocCallID) IDLogString() string {
	return fmt.Sprintf("%d@%d", id.CallID, id.RecipientID)
}

// FrameIndex is the position of a frame in the stream, used for frames that can't be identified otherwise.
type FrameIndex int

func (idx FrameIndex) TypeLogString() string { return "FrameIndex" }
func (idx FrameIndex) IDLogString() string   { return strconv.Itoa(int(idx)) }

// MaxTimestampMs is the largest timestamp that can be represented as a date.
const MaxTimestampMs = 8_640_000_000_000_000

// ValidTimestamp checks that the given millisecond timestamp is positive and representable.
func ValidTimestamp(ts uint64) bool {
	return ts > 0 && ts <= MaxTimestampMs
}
