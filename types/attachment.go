// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package types

import (
	"time"

	"github.com/google/uuid"
)

// AttachmentFlag changes how an attachment is rendered.
type AttachmentFlag uint8

const (
	AttachmentFlagNone AttachmentFlag = iota
	AttachmentFlagVoiceMessage
	AttachmentFlagBorderless
	AttachmentFlagGIF
)

// AttachmentPointer points at the encrypted attachment blob on the attachment CDN.
//
// Attachments that were never uploaded or whose upload expired have an empty CDNKey.
type AttachmentPointer struct {
	ContentType string `msgpack:"content_type,omitempty"`
	FileName    string `msgpack:"file_name,omitempty"`
	Caption     string `msgpack:"caption,omitempty"`
	BlurHash    string `msgpack:"blur_hash,omitempty"`
	Width       uint32 `msgpack:"width,omitempty"`
	Height      uint32 `msgpack:"height,omitempty"`

	CDNKey          string `msgpack:"cdn_key,omitempty"`
	CDNNumber       uint32 `msgpack:"cdn_number,omitempty"`
	UploadTimestamp uint64 `msgpack:"upload_ts,omitempty"`
	Key             []byte `msgpack:"key,omitempty"`
	Digest          []byte `msgpack:"digest,omitempty"`
	Size            uint32 `msgpack:"size,omitempty"`
}

// IsDownloadable returns true if the pointer has everything needed to fetch and decrypt the blob.
func (ap *AttachmentPointer) IsDownloadable() bool {
	return ap.CDNKey != "" && len(ap.Key) > 0 && len(ap.Digest) > 0
}

// MessageAttachment is an attachment in the body of a message.
type MessageAttachment struct {
	// ClientUUID is the sender-generated ID of the attachment. It's the zero UUID if the sender didn't set one.
	ClientUUID    uuid.UUID         `msgpack:"client_uuid,omitempty"`
	Pointer       AttachmentPointer `msgpack:"pointer"`
	Flag          AttachmentFlag    `msgpack:"flag,omitempty"`
	WasDownloaded bool              `msgpack:"was_downloaded,omitempty"`
}

// QueuedAttachmentDownload is a message attachment that was restored from a backup but hasn't been downloaded yet.
type QueuedAttachmentDownload struct {
	InteractionID InteractionUniqueID
	Index         int
	Pointer       AttachmentPointer
	QueuedAt      time.Time
}
