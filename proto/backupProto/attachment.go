// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backupProto

type MessageAttachment_Flag int32

const (
	MessageAttachment_NONE          MessageAttachment_Flag = 0
	MessageAttachment_VOICE_MESSAGE MessageAttachment_Flag = 1
	MessageAttachment_BORDERLESS    MessageAttachment_Flag = 2
	MessageAttachment_GIF           MessageAttachment_Flag = 3
)

type MessageAttachment struct {
	Pointer       *FilePointer
	Flag          MessageAttachment_Flag
	WasDownloaded bool
	ClientUUID    []byte
}

func (x *MessageAttachment) GetPointer() *FilePointer {
	if x == nil {
		return nil
	}
	return x.Pointer
}

func (x *MessageAttachment) appendTo(b []byte) []byte {
	if x.Pointer != nil {
		b = appendMessage(b, 1, x.Pointer)
	}
	b = appendVarint(b, 2, uint64(x.Flag))
	b = appendBool(b, 3, x.WasDownloaded)
	b = appendBytes(b, 4, x.ClientUUID)
	return b
}

func (x *MessageAttachment) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.Pointer = &FilePointer{}
			f.Message(x.Pointer)
		case 2:
			x.Flag = MessageAttachment_Flag(f.Uint64())
		case 3:
			x.WasDownloaded = f.Bool()
		case 4:
			x.ClientUUID = f.Bytes()
		}
	})
}

type FilePointer struct {
	Locator isFilePointer_Locator

	ContentType string
	FileName    string
	Width       uint32
	Height      uint32
	Caption     string
	BlurHash    string
}

type isFilePointer_Locator interface {
	isFilePointer_Locator()
}

type FilePointer_AttachmentLocator_ struct {
	AttachmentLocator *FilePointer_AttachmentLocator
}

type FilePointer_InvalidAttachmentLocator_ struct {
	InvalidAttachmentLocator *FilePointer_InvalidAttachmentLocator
}

func (*FilePointer_AttachmentLocator_) isFilePointer_Locator()        {}
func (*FilePointer_InvalidAttachmentLocator_) isFilePointer_Locator() {}

func (x *FilePointer) GetLocator() isFilePointer_Locator {
	if x == nil {
		return nil
	}
	return x.Locator
}

func (x *FilePointer) GetAttachmentLocator() *FilePointer_AttachmentLocator {
	if loc, ok := x.GetLocator().(*FilePointer_AttachmentLocator_); ok {
		return loc.AttachmentLocator
	}
	return nil
}

func (x *FilePointer) appendTo(b []byte) []byte {
	switch loc := x.Locator.(type) {
	case *FilePointer_AttachmentLocator_:
		if loc.AttachmentLocator != nil {
			b = appendMessage(b, 2, loc.AttachmentLocator)
		}
	case *FilePointer_InvalidAttachmentLocator_:
		if loc.InvalidAttachmentLocator != nil {
			b = appendMessage(b, 3, loc.InvalidAttachmentLocator)
		}
	}
	b = appendString(b, 4, x.ContentType)
	b = appendString(b, 7, x.FileName)
	b = appendVarint(b, 8, uint64(x.Width))
	b = appendVarint(b, 9, uint64(x.Height))
	b = appendString(b, 10, x.Caption)
	b = appendString(b, 11, x.BlurHash)
	return b
}

func (x *FilePointer) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 2:
			var msg FilePointer_AttachmentLocator
			f.Message(&msg)
			x.Locator = &FilePointer_AttachmentLocator_{AttachmentLocator: &msg}
		case 3:
			var msg FilePointer_InvalidAttachmentLocator
			f.Message(&msg)
			x.Locator = &FilePointer_InvalidAttachmentLocator_{InvalidAttachmentLocator: &msg}
		case 4:
			x.ContentType = f.String()
		case 7:
			x.FileName = f.String()
		case 8:
			x.Width = f.Uint32()
		case 9:
			x.Height = f.Uint32()
		case 10:
			x.Caption = f.String()
		case 11:
			x.BlurHash = f.String()
		}
	})
}

// FilePointer_AttachmentLocator locates an attachment on the transit tier CDN.
type FilePointer_AttachmentLocator struct {
	CDNKey          string
	CDNNumber       uint32
	UploadTimestamp uint64
	Key             []byte
	Digest          []byte
	Size            uint32
}

func (x *FilePointer_AttachmentLocator) appendTo(b []byte) []byte {
	b = appendString(b, 1, x.CDNKey)
	b = appendVarint(b, 2, uint64(x.CDNNumber))
	b = appendVarint(b, 3, x.UploadTimestamp)
	b = appendBytes(b, 4, x.Key)
	b = appendBytes(b, 5, x.Digest)
	b = appendVarint(b, 6, uint64(x.Size))
	return b
}

func (x *FilePointer_AttachmentLocator) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.CDNKey = f.String()
		case 2:
			x.CDNNumber = f.Uint32()
		case 3:
			x.UploadTimestamp = f.Uint64()
		case 4:
			x.Key = f.Bytes()
		case 5:
			x.Digest = f.Bytes()
		case 6:
			x.Size = f.Uint32()
		}
	})
}

// FilePointer_InvalidAttachmentLocator marks an attachment that can't be downloaded.
type FilePointer_InvalidAttachmentLocator struct{}

func (x *FilePointer_InvalidAttachmentLocator) appendTo(b []byte) []byte { return b }
func (x *FilePointer_InvalidAttachmentLocator) unmarshal(b []byte) error {
	return rangeFields(b, func(field) {})
}

var (
	_ Message = (*MessageAttachment)(nil)
	_ Message = (*FilePointer)(nil)
	_ Message = (*FilePointer_AttachmentLocator)(nil)
	_ Message = (*FilePointer_InvalidAttachmentLocator)(nil)
)
