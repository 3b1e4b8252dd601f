// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backupProto

type ChatItem struct {
	ChatID          uint64
	AuthorID        uint64
	DateSent        uint64
	ExpireStartDate uint64
	ExpiresInMs     uint64

	DirectionalDetails isChatItem_DirectionalDetails
	Item               isChatItem_Item
}

type isChatItem_DirectionalDetails interface {
	isChatItem_DirectionalDetails()
}

type ChatItem_Incoming struct {
	Incoming *ChatItem_IncomingMessageDetails
}

type ChatItem_Outgoing struct {
	Outgoing *ChatItem_OutgoingMessageDetails
}

type ChatItem_Directionless struct {
	Directionless *ChatItem_DirectionlessMessageDetails
}

func (*ChatItem_Incoming) isChatItem_DirectionalDetails()      {}
func (*ChatItem_Outgoing) isChatItem_DirectionalDetails()      {}
func (*ChatItem_Directionless) isChatItem_DirectionalDetails() {}

type isChatItem_Item interface {
	isChatItem_Item()
}

type ChatItem_StandardMessage struct {
	StandardMessage *StandardMessage
}

type ChatItem_UpdateMessage struct {
	UpdateMessage *ChatUpdateMessage
}

func (*ChatItem_StandardMessage) isChatItem_Item() {}
func (*ChatItem_UpdateMessage) isChatItem_Item()   {}

func (x *ChatItem) GetDirectionalDetails() isChatItem_DirectionalDetails {
	if x == nil {
		return nil
	}
	return x.DirectionalDetails
}

func (x *ChatItem) GetItem() isChatItem_Item {
	if x == nil {
		return nil
	}
	return x.Item
}

func (x *ChatItem) GetIncoming() *ChatItem_IncomingMessageDetails {
	if dd, ok := x.GetDirectionalDetails().(*ChatItem_Incoming); ok {
		return dd.Incoming
	}
	return nil
}

func (x *ChatItem) GetUpdateMessage() *ChatUpdateMessage {
	if item, ok := x.GetItem().(*ChatItem_UpdateMessage); ok {
		return item.UpdateMessage
	}
	return nil
}

func (x *ChatItem) GetStandardMessage() *StandardMessage {
	if item, ok := x.GetItem().(*ChatItem_StandardMessage); ok {
		return item.StandardMessage
	}
	return nil
}

func (x *ChatItem) appendTo(b []byte) []byte {
	b = appendVarint(b, 1, x.ChatID)
	b = appendVarint(b, 2, x.AuthorID)
	b = appendVarint(b, 3, x.DateSent)
	b = appendVarint(b, 4, x.ExpireStartDate)
	b = appendVarint(b, 5, x.ExpiresInMs)
	switch dd := x.DirectionalDetails.(type) {
	case *ChatItem_Incoming:
		if dd.Incoming != nil {
			b = appendMessage(b, 8, dd.Incoming)
		}
	case *ChatItem_Outgoing:
		if dd.Outgoing != nil {
			b = appendMessage(b, 9, dd.Outgoing)
		}
	case *ChatItem_Directionless:
		if dd.Directionless != nil {
			b = appendMessage(b, 10, dd.Directionless)
		}
	}
	switch item := x.Item.(type) {
	case *ChatItem_StandardMessage:
		if item.StandardMessage != nil {
			b = appendMessage(b, 11, item.StandardMessage)
		}
	case *ChatItem_UpdateMessage:
		if item.UpdateMessage != nil {
			b = appendMessage(b, 15, item.UpdateMessage)
		}
	}
	return b
}

func (x *ChatItem) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.ChatID = f.Uint64()
		case 2:
			x.AuthorID = f.Uint64()
		case 3:
			x.DateSent = f.Uint64()
		case 4:
			x.ExpireStartDate = f.Uint64()
		case 5:
			x.ExpiresInMs = f.Uint64()
		case 8:
			var msg ChatItem_IncomingMessageDetails
			f.Message(&msg)
			x.DirectionalDetails = &ChatItem_Incoming{Incoming: &msg}
		case 9:
			var msg ChatItem_OutgoingMessageDetails
			f.Message(&msg)
			x.DirectionalDetails = &ChatItem_Outgoing{Outgoing: &msg}
		case 10:
			var msg ChatItem_DirectionlessMessageDetails
			f.Message(&msg)
			x.DirectionalDetails = &ChatItem_Directionless{Directionless: &msg}
		case 11:
			var msg StandardMessage
			f.Message(&msg)
			x.Item = &ChatItem_StandardMessage{StandardMessage: &msg}
		case 15:
			var msg ChatUpdateMessage
			f.Message(&msg)
			x.Item = &ChatItem_UpdateMessage{UpdateMessage: &msg}
		}
	})
}

type ChatItem_IncomingMessageDetails struct {
	DateReceived   uint64
	DateServerSent uint64
	Read           bool
	SealedSender   bool
}

func (x *ChatItem_IncomingMessageDetails) appendTo(b []byte) []byte {
	b = appendVarint(b, 1, x.DateReceived)
	b = appendVarint(b, 2, x.DateServerSent)
	b = appendBool(b, 3, x.Read)
	b = appendBool(b, 4, x.SealedSender)
	return b
}

func (x *ChatItem_IncomingMessageDetails) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.DateReceived = f.Uint64()
		case 2:
			x.DateServerSent = f.Uint64()
		case 3:
			x.Read = f.Bool()
		case 4:
			x.SealedSender = f.Bool()
		}
	})
}

type ChatItem_OutgoingMessageDetails struct{}

func (x *ChatItem_OutgoingMessageDetails) appendTo(b []byte) []byte { return b }
func (x *ChatItem_OutgoingMessageDetails) unmarshal(b []byte) error {
	return rangeFields(b, func(field) {})
}

type ChatItem_DirectionlessMessageDetails struct{}

func (x *ChatItem_DirectionlessMessageDetails) appendTo(b []byte) []byte { return b }
func (x *ChatItem_DirectionlessMessageDetails) unmarshal(b []byte) error {
	return rangeFields(b, func(field) {})
}

type StandardMessage struct {
	Text        *Text
	Attachments []*MessageAttachment
}

func (x *StandardMessage) GetText() *Text {
	if x == nil {
		return nil
	}
	return x.Text
}

func (x *StandardMessage) GetAttachments() []*MessageAttachment {
	if x == nil {
		return nil
	}
	return x.Attachments
}

func (x *StandardMessage) appendTo(b []byte) []byte {
	if x.Text != nil {
		b = appendMessage(b, 1, x.Text)
	}
	for _, attachment := range x.Attachments {
		if attachment != nil {
			b = appendMessage(b, 3, attachment)
		}
	}
	return b
}

func (x *StandardMessage) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			x.Text = &Text{}
			f.Message(x.Text)
		case 3:
			var msg MessageAttachment
			f.Message(&msg)
			x.Attachments = append(x.Attachments, &msg)
		}
	})
}

type Text struct {
	Body string
}

func (x *Text) GetBody() string {
	if x == nil {
		return ""
	}
	return x.Body
}

func (x *Text) appendTo(b []byte) []byte {
	return appendString(b, 1, x.Body)
}

func (x *Text) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			x.Body = f.String()
		}
	})
}

type ChatUpdateMessage struct {
	Update isChatUpdateMessage_Update
}

type isChatUpdateMessage_Update interface {
	isChatUpdateMessage_Update()
}

type ChatUpdateMessage_SimpleUpdate struct {
	SimpleUpdate *SimpleChatUpdate
}

type ChatUpdateMessage_GroupChange struct {
	GroupChange *GroupChangeChatUpdate
}

func (*ChatUpdateMessage_SimpleUpdate) isChatUpdateMessage_Update() {}
func (*ChatUpdateMessage_GroupChange) isChatUpdateMessage_Update()  {}

func (x *ChatUpdateMessage) GetUpdate() isChatUpdateMessage_Update {
	if x == nil {
		return nil
	}
	return x.Update
}

func (x *ChatUpdateMessage) GetSimpleUpdate() *SimpleChatUpdate {
	if update, ok := x.GetUpdate().(*ChatUpdateMessage_SimpleUpdate); ok {
		return update.SimpleUpdate
	}
	return nil
}

func (x *ChatUpdateMessage) GetGroupChange() *GroupChangeChatUpdate {
	if update, ok := x.GetUpdate().(*ChatUpdateMessage_GroupChange); ok {
		return update.GroupChange
	}
	return nil
}

func (x *ChatUpdateMessage) appendTo(b []byte) []byte {
	switch update := x.Update.(type) {
	case *ChatUpdateMessage_SimpleUpdate:
		if update.SimpleUpdate != nil {
			b = appendMessage(b, 1, update.SimpleUpdate)
		}
	case *ChatUpdateMessage_GroupChange:
		if update.GroupChange != nil {
			b = appendMessage(b, 2, update.GroupChange)
		}
	}
	return b
}

func (x *ChatUpdateMessage) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		switch f.num {
		case 1:
			var msg SimpleChatUpdate
			f.Message(&msg)
			x.Update = &ChatUpdateMessage_SimpleUpdate{SimpleUpdate: &msg}
		case 2:
			var msg GroupChangeChatUpdate
			f.Message(&msg)
			x.Update = &ChatUpdateMessage_GroupChange{GroupChange: &msg}
		}
	})
}

type SimpleChatUpdate_Type int32

const (
	SimpleChatUpdate_UNKNOWN                          SimpleChatUpdate_Type = 0
	SimpleChatUpdate_JOINED_SIGNAL                    SimpleChatUpdate_Type = 1
	SimpleChatUpdate_IDENTITY_UPDATE                  SimpleChatUpdate_Type = 2
	SimpleChatUpdate_IDENTITY_VERIFIED                SimpleChatUpdate_Type = 3
	SimpleChatUpdate_IDENTITY_DEFAULT                 SimpleChatUpdate_Type = 4
	SimpleChatUpdate_CHANGE_NUMBER                    SimpleChatUpdate_Type = 5
	SimpleChatUpdate_RELEASE_CHANNEL_DONATION_REQUEST SimpleChatUpdate_Type = 6
	SimpleChatUpdate_END_SESSION                      SimpleChatUpdate_Type = 7
	SimpleChatUpdate_CHAT_SESSION_REFRESH             SimpleChatUpdate_Type = 8
	SimpleChatUpdate_BAD_DECRYPT                      SimpleChatUpdate_Type = 9
	SimpleChatUpdate_PAYMENTS_ACTIVATED               SimpleChatUpdate_Type = 10
	SimpleChatUpdate_PAYMENT_ACTIVATION_REQUEST       SimpleChatUpdate_Type = 11
	SimpleChatUpdate_UNSUPPORTED_PROTOCOL_MESSAGE     SimpleChatUpdate_Type = 12
	SimpleChatUpdate_REPORTED_SPAM                    SimpleChatUpdate_Type = 13
	SimpleChatUpdate_BLOCKED                          SimpleChatUpdate_Type = 14
	SimpleChatUpdate_UNBLOCKED                        SimpleChatUpdate_Type = 15
	SimpleChatUpdate_MESSAGE_REQUEST_ACCEPTED         SimpleChatUpdate_Type = 16
)

type SimpleChatUpdate struct {
	Type SimpleChatUpdate_Type
}

func (x *SimpleChatUpdate) appendTo(b []byte) []byte {
	return appendVarint(b, 1, uint64(x.Type))
}

func (x *SimpleChatUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			x.Type = SimpleChatUpdate_Type(f.Uint64())
		}
	})
}

type GroupChangeChatUpdate struct {
	Updates []*GroupChangeChatUpdate_Update
}

func (x *GroupChangeChatUpdate) GetUpdates() []*GroupChangeChatUpdate_Update {
	if x == nil {
		return nil
	}
	return x.Updates
}

func (x *GroupChangeChatUpdate) appendTo(b []byte) []byte {
	for _, update := range x.Updates {
		if update != nil {
			b = appendMessage(b, 1, update)
		}
	}
	return b
}

func (x *GroupChangeChatUpdate) unmarshal(b []byte) error {
	return rangeFields(b, func(f field) {
		if f.num == 1 {
			var msg GroupChangeChatUpdate_Update
			f.Message(&msg)
			x.Updates = append(x.Updates, &msg)
		}
	})
}

var (
	_ Message = (*ChatItem)(nil)
	_ Message = (*ChatItem_IncomingMessageDetails)(nil)
	_ Message = (*ChatItem_OutgoingMessageDetails)(nil)
	_ Message = (*ChatItem_DirectionlessMessageDetails)(nil)
	_ Message = (*StandardMessage)(nil)
	_ Message = (*Text)(nil)
	_ Message = (*ChatUpdateMessage)(nil)
	_ Message = (*SimpleChatUpdate)(nil)
	_ Message = (*GroupChangeChatUpdate)(nil)
)
