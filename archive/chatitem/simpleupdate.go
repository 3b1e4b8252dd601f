// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package chatitem

import (
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/types"
)

var simpleUpdateToProto = map[types.SimpleUpdateType]backupProto.SimpleChatUpdate_Type{
	types.SimpleUpdateJoinedSignal:               backupProto.SimpleChatUpdate_JOINED_SIGNAL,
	types.SimpleUpdateIdentityUpdate:             backupProto.SimpleChatUpdate_IDENTITY_UPDATE,
	types.SimpleUpdateIdentityVerified:           backupProto.SimpleChatUpdate_IDENTITY_VERIFIED,
	types.SimpleUpdateIdentityDefault:            backupProto.SimpleChatUpdate_IDENTITY_DEFAULT,
	types.SimpleUpdateChangeNumber:               backupProto.SimpleChatUpdate_CHANGE_NUMBER,
	types.SimpleUpdateEndSession:                 backupProto.SimpleChatUpdate_END_SESSION,
	types.SimpleUpdateChatSessionRefresh:         backupProto.SimpleChatUpdate_CHAT_SESSION_REFRESH,
	types.SimpleUpdateBadDecrypt:                 backupProto.SimpleChatUpdate_BAD_DECRYPT,
	types.SimpleUpdatePaymentsActivated:          backupProto.SimpleChatUpdate_PAYMENTS_ACTIVATED,
	types.SimpleUpdatePaymentActivationRequest:   backupProto.SimpleChatUpdate_PAYMENT_ACTIVATION_REQUEST,
	types.SimpleUpdateUnsupportedProtocolMessage: backupProto.SimpleChatUpdate_UNSUPPORTED_PROTOCOL_MESSAGE,
	types.SimpleUpdateReportedSpam:               backupProto.SimpleChatUpdate_REPORTED_SPAM,
	types.SimpleUpdateBlocked:                    backupProto.SimpleChatUpdate_BLOCKED,
	types.SimpleUpdateUnblocked:                  backupProto.SimpleChatUpdate_UNBLOCKED,
	types.SimpleUpdateMessageRequestAccepted:     backupProto.SimpleChatUpdate_MESSAGE_REQUEST_ACCEPTED,
}

var simpleUpdateFromProto = make(map[backupProto.SimpleChatUpdate_Type]types.SimpleUpdateType, len(simpleUpdateToProto))

func init() {
	for local, wire := range simpleUpdateToProto {
		simpleUpdateFromProto[wire] = local
	}
}
