// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package types contains the domain structs and identifiers used by msgbackup.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrInvalidLength = errors.New("identifier has invalid length")
	ErrInvalidE164   = errors.New("invalid E164 phone number")
)

// logHash returns a short hash of the given data that is safe to include in logs.
func logHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:4])
}

// ACI is an account identifier: the stable UUID of an account.
type ACI uuid.UUID

// PNI is a phone number identifier.
type PNI uuid.UUID

func ParseACIBytes(data []byte) (ACI, error) {
	u, err := uuid.FromBytes(data)
	if err != nil {
		return ACI{}, fmt.Errorf("%w: ACI with %d bytes", ErrInvalidLength, len(data))
	}
	return ACI(u), nil
}

func ParsePNIBytes(data []byte) (PNI, error) {
	u, err := uuid.FromBytes(data)
	if err != nil {
		return PNI{}, fmt.Errorf("%w: PNI with %d bytes", ErrInvalidLength, len(data))
	}
	return PNI(u), nil
}

func NewACI() ACI { return ACI(uuid.New()) }
func NewPNI() PNI { return PNI(uuid.New()) }

func (aci ACI) IsEmpty() bool  { return aci == ACI{} }
func (aci ACI) String() string { return uuid.UUID(aci).String() }
func (aci ACI) Bytes() []byte {
	u := uuid.UUID(aci)
	return u[:]
}
func (aci ACI) TypeLogString() string { return "ACI" }
func (aci ACI) IDLogString() string   { return aci.String() }

func (pni PNI) IsEmpty() bool  { return pni == PNI{} }
func (pni PNI) String() string { return "PNI:" + uuid.UUID(pni).String() }
func (pni PNI) Bytes() []byte {
	u := uuid.UUID(pni)
	return u[:]
}
func (pni PNI) TypeLogString() string { return "PNI" }
func (pni PNI) IDLogString() string   { return pni.String() }

// E164 is a phone number in E.164 format, including the leading plus.
type E164 string

var e164Regex = regexp.MustCompile(`^\+[1-9]\d{5,18}$`)

func ParseE164(number string) (E164, error) {
	if !e164Regex.MatchString(number) {
		return "", ErrInvalidE164
	}
	return E164(number), nil
}

// E164FromUint converts the numeric wire representation of a phone number.
func E164FromUint(number uint64) (E164, error) {
	return ParseE164("+" + strconv.FormatUint(number, 10))
}

func (e E164) IsEmpty() bool { return e == "" }

// Uint returns the numeric wire representation, or 0 if the number is invalid.
func (e E164) Uint() uint64 {
	if len(e) < 2 {
		return 0
	}
	n, _ := strconv.ParseUint(string(e[1:]), 10, 64)
	return n
}

func (e E164) TypeLogString() string { return "E164" }

// IDLogString redacts everything except the last two digits.
func (e E164) IDLogString() string {
	if len(e) <= 3 {
		return "+**"
	}
	return "+***" + string(e[len(e)-2:])
}

// GroupMasterKey is the secret from which every other group secret is derived.
type GroupMasterKey [32]byte

// GroupID is the public identifier of a group, derived from its master key.
type GroupID [32]byte

func ParseGroupMasterKey(data []byte) (GroupMasterKey, error) {
	if len(data) != len(GroupMasterKey{}) {
		return GroupMasterKey{}, fmt.Errorf("%w: group master key with %d bytes", ErrInvalidLength, len(data))
	}
	return GroupMasterKey(data), nil
}

// GroupID returns the group identifier derived from the master key.
func (mk GroupMasterKey) GroupID() GroupID {
	return blake2b.Sum256(append([]byte("msgbackup group id\x00"), mk[:]...))
}

func (gid GroupID) IsEmpty() bool         { return gid == GroupID{} }
func (gid GroupID) TypeLogString() string { return "GroupID" }
func (gid GroupID) IDLogString() string   { return logHash(gid[:]) }

// CallLinkRoomID identifies a call link. It is derived from the call link's root key.
type CallLinkRoomID [32]byte

func DeriveCallLinkRoomID(rootKey []byte) CallLinkRoomID {
	return blake2b.Sum256(append([]byte("msgbackup call link room id\x00"), rootKey...))
}

func (rid CallLinkRoomID) IsEmpty() bool         { return rid == CallLinkRoomID{} }
func (rid CallLinkRoomID) String() string        { return hex.EncodeToString(rid[:]) }
func (rid CallLinkRoomID) TypeLogString() string { return "CallLinkRecord" }
func (rid CallLinkRoomID) IDLogString() string   { return logHash(rid[:]) }

// StickerPackID is the 16-byte public identifier of a sticker pack.
type StickerPackID [16]byte

// StickerPackKey is the 32-byte key used to decrypt a sticker pack manifest.
type StickerPackKey [32]byte

func ParseStickerPackID(data []byte) (StickerPackID, error) {
	if len(data) != len(StickerPackID{}) {
		return StickerPackID{}, fmt.Errorf("%w: sticker pack ID with %d bytes", ErrInvalidLength, len(data))
	}
	return StickerPackID(data), nil
}

func ParseStickerPackKey(data []byte) (StickerPackKey, error) {
	if len(data) != len(StickerPackKey{}) {
		return StickerPackKey{}, fmt.Errorf("%w: sticker pack key with %d bytes", ErrInvalidLength, len(data))
	}
	return StickerPackKey(data), nil
}

func (id StickerPackID) TypeLogString() string { return "StickerPack" }

// IDLogString only includes a hash, sticker pack IDs can be used to fetch the pack.
func (id StickerPackID) IDLogString() string { return logHash(id[:]) }

type ThreadUniqueID string

func (id ThreadUniqueID) TypeLogString() string { return "TSThread" }
func (id ThreadUniqueID) IDLogString() string   { return string(id) }

type InteractionUniqueID string

func (id InteractionUniqueID) TypeLogString() string { return "TSInteraction" }
func (id InteractionUniqueID) IDLogString() string   { return string(id) }

type RecipientUniqueID string

func (id RecipientUniqueID) TypeLogString() string { return "SignalRecipient" }
func (id RecipientUniqueID) IDLogString() string   { return string(id) }

// NewUniqueID generates a new random unique ID for threads, interactions and recipients.
func NewUniqueID() string {
	return uuid.NewString()
}

// CallID is the identifier of a call, shared between all participants.
type CallID uint64

func (id CallID) TypeLogString() string { return "CallRecord" }
func (id CallID) IDLogString() string   { return strconv.FormatUint(uint64(id), 10) }

// LocalIdentifiers contains the identifiers of the account that owns the data being backed up.
type LocalIdentifiers struct {
	ACI  ACI
	PNI  PNI
	E164 E164
}

func (li LocalIdentifiers) Contains(aci ACI) bool {
	return !aci.IsEmpty() && li.ACI == aci
}
