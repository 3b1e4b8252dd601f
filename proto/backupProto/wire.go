// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package backupProto contains the messages of the backup frame wire format.
//
// The messages are encoded as protobuf. Unknown fields are skipped when decoding,
// which means an unknown oneof variant leaves the corresponding interface field nil.
// The schema of every message is in Backup.proto.
package backupProto

import (
	"errors"
	"fmt"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrWrongWireType = errors.New("wrong wire type for field")

// Message is implemented by every message in this package.
type Message interface {
	appendTo(b []byte) []byte
	unmarshal(b []byte) error
}

// Marshal encodes the given message.
func Marshal(m Message) []byte {
	return m.appendTo(nil)
}

// Unmarshal decodes the given bytes into the message, which should be freshly allocated.
func Unmarshal(b []byte, m Message) error {
	return m.unmarshal(b)
}

type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
	err    *error
}

func (f field) fail(expected protowire.Type) {
	if *f.err == nil {
		*f.err = fmt.Errorf("%w %d (expected %d, got %d)", ErrWrongWireType, f.num, expected, f.typ)
	}
}

func (f field) Uint64() uint64 {
	if f.typ != protowire.VarintType {
		f.fail(protowire.VarintType)
		return 0
	}
	return f.varint
}

func (f field) Uint32() uint32 {
	return uint32(f.Uint64())
}

func (f field) Bool() bool {
	return f.Uint64() != 0
}

func (f field) Bytes() []byte {
	if f.typ != protowire.BytesType {
		f.fail(protowire.BytesType)
		return nil
	}
	return slices.Clone(f.bytes)
}

func (f field) String() string {
	if f.typ != protowire.BytesType {
		f.fail(protowire.BytesType)
		return ""
	}
	return string(f.bytes)
}

func (f field) Message(m Message) {
	if f.typ != protowire.BytesType {
		f.fail(protowire.BytesType)
		return
	}
	if err := m.unmarshal(f.bytes); err != nil && *f.err == nil {
		*f.err = fmt.Errorf("failed to parse field %d: %w", f.num, err)
	}
}

// rangeFields calls fn for every field in b. Unknown fields are simply ignored by fn.
func rangeFields(b []byte, fn func(f field)) error {
	var fieldErr error
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		f := field{num: num, typ: typ, err: &fieldErr}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		fn(f)
		if fieldErr != nil {
			return fieldErr
		}
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendMessage always writes the field if m is non-nil, even if the message itself is empty,
// so that empty oneof variants keep their presence.
func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendTo(nil))
}
