// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
)

// ErrCancelled is returned by Bencher.Checkpoint when the pass was cancelled.
var ErrCancelled = errors.New("backup pass was cancelled")

// LoggableError is an error that can be logged without leaking personal data.
type LoggableError interface {
	error
	TypeLogString() string
	IDLogString() string
	CallsiteLogString() string
	// CollapseKey is used to group errors of the same kind from the same place.
	CollapseKey() string
	LogLevel() zerolog.Level
}

func callsite(skip int) string {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return fmt.Sprintf("%s:%d %s", filepath.Base(file), line, filepath.Base(fn.Name()))
}

func idLogString(id LoggableID) string {
	if id == nil {
		return "none"
	}
	return id.TypeLogString() + ":" + id.IDLogString()
}

type ArchiveFrameErrorType string

const (
	ArchiveErrorInvalidAdHocCallTimestamp    ArchiveFrameErrorType = "InvalidAdHocCallTimestamp"
	ArchiveErrorInvalidChatItemTimestamp     ArchiveFrameErrorType = "InvalidChatItemTimestamp"
	ArchiveErrorAdHocCallMissingRecipient    ArchiveFrameErrorType = "AdHocCallMissingRecipient"
	ArchiveErrorReferencedRecipientIDMissing ArchiveFrameErrorType = "ReferencedRecipientIdMissing"
	ArchiveErrorReferencedChatIDMissing      ArchiveFrameErrorType = "ReferencedChatIdMissing"
	ArchiveErrorContactThreadMissingAddress  ArchiveFrameErrorType = "ContactThreadMissingAddress"
	ArchiveErrorGroupThreadMissingGroup      ArchiveFrameErrorType = "GroupThreadMissingGroup"
	ArchiveErrorContactMissingIdentifiers    ArchiveFrameErrorType = "ContactMissingIdentifiers"
	ArchiveErrorEmptyGroupUpdate             ArchiveFrameErrorType = "EmptyGroupUpdate"
	ArchiveErrorSkippedGroupUpdate           ArchiveFrameErrorType = "SkippedGroupUpdate"
	ArchiveErrorGroupUpdateMissingUpdater    ArchiveFrameErrorType = "GroupUpdateMissingUpdater"
	ArchiveErrorGroupUpdateMissingMember     ArchiveFrameErrorType = "GroupUpdateMissingMember"
	ArchiveErrorUnknownGroupUpdateType       ArchiveFrameErrorType = "UnknownGroupUpdateType"
	ArchiveErrorEmptyMessageBody             ArchiveFrameErrorType = "EmptyMessageBody"
	ArchiveErrorUnknownInteractionKind       ArchiveFrameErrorType = "UnknownInteractionKind"
	ArchiveErrorUnknownSimpleUpdate          ArchiveFrameErrorType = "UnknownSimpleUpdate"
	ArchiveErrorMissingAuthor                ArchiveFrameErrorType = "MissingAuthor"
	ArchiveErrorDatabaseError                ArchiveFrameErrorType = "DatabaseError"
	ArchiveErrorFrameTooLarge                ArchiveFrameErrorType = "FrameTooLarge"
)

// ArchiveFrameError is a recoverable failure to archive a single row.
type ArchiveFrameError struct {
	Type     ArchiveFrameErrorType
	ID       LoggableID
	Raw      error
	Callsite string
}

// NewArchiveFrameError creates an error for the given row. The callsite is the caller of this function.
func NewArchiveFrameError(typ ArchiveFrameErrorType, id LoggableID) *ArchiveFrameError {
	return &ArchiveFrameError{Type: typ, ID: id, Callsite: callsite(1)}
}

// WrapArchiveFrameError creates an error for the given row caused by another error, usually from the database.
func WrapArchiveFrameError(typ ArchiveFrameErrorType, id LoggableID, err error) *ArchiveFrameError {
	return &ArchiveFrameError{Type: typ, ID: id, Raw: err, Callsite: callsite(1)}
}

func (afe *ArchiveFrameError) Error() string {
	if afe.Raw != nil {
		return fmt.Sprintf("%s (%s): %v", afe.Type, idLogString(afe.ID), afe.Raw)
	}
	return fmt.Sprintf("%s (%s)", afe.Type, idLogString(afe.ID))
}

func (afe *ArchiveFrameError) Unwrap() error             { return afe.Raw }
func (afe *ArchiveFrameError) TypeLogString() string     { return string(afe.Type) }
func (afe *ArchiveFrameError) IDLogString() string       { return idLogString(afe.ID) }
func (afe *ArchiveFrameError) CallsiteLogString() string { return afe.Callsite }
func (afe *ArchiveFrameError) CollapseKey() string       { return string(afe.Type) + "@" + afe.Callsite }

func (afe *ArchiveFrameError) LogLevel() zerolog.Level {
	switch afe.Type {
	case ArchiveErrorSkippedGroupUpdate:
		return zerolog.InfoLevel
	case ArchiveErrorDatabaseError:
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

type FatalErrorType string

const (
	FatalEnumerationFailed   FatalErrorType = "EnumerationFailed"
	FatalStreamWriteFailed   FatalErrorType = "StreamWriteFailed"
	FatalMissingLocalAddress FatalErrorType = "MissingLocalAddress"
)

// FatalArchivingError stops an archiver completely.
type FatalArchivingError struct {
	Type     FatalErrorType
	Raw      error
	Callsite string
}

func NewFatalArchivingError(typ FatalErrorType, err error) *FatalArchivingError {
	return &FatalArchivingError{Type: typ, Raw: err, Callsite: callsite(1)}
}

func (fae *FatalArchivingError) Error() string {
	if fae.Raw != nil {
		return fmt.Sprintf("fatal %s: %v", fae.Type, fae.Raw)
	}
	return "fatal " + string(fae.Type)
}

func (fae *FatalArchivingError) Unwrap() error             { return fae.Raw }
func (fae *FatalArchivingError) TypeLogString() string     { return string(fae.Type) }
func (fae *FatalArchivingError) IDLogString() string       { return "none" }
func (fae *FatalArchivingError) CallsiteLogString() string { return fae.Callsite }
func (fae *FatalArchivingError) CollapseKey() string       { return string(fae.Type) + "@" + fae.Callsite }
func (fae *FatalArchivingError) LogLevel() zerolog.Level   { return zerolog.ErrorLevel }

type RestoreFrameErrorType string

const (
	RestoreErrorInvalidProto               RestoreFrameErrorType = "InvalidProtoData"
	RestoreErrorReferencedRecipientMissing RestoreFrameErrorType = "IdentifierNotFound/Recipient"
	RestoreErrorReferencedChatMissing      RestoreFrameErrorType = "IdentifierNotFound/Chat"
	RestoreErrorUnrecognizedEnum           RestoreFrameErrorType = "UnrecognizedEnum"
	RestoreErrorDatabaseInsertionFailed    RestoreFrameErrorType = "DatabaseInsertionFailed"
	RestoreErrorDatabaseUpdateFailed       RestoreFrameErrorType = "DatabaseUpdateFailed"
	RestoreErrorDuplicateID                RestoreFrameErrorType = "DuplicateIdentifier"
	RestoreErrorEnqueueDownloadFailed      RestoreFrameErrorType = "FailedToEnqueueAttachmentDownload"
)

// ProtoError describes what exactly was invalid in a frame with RestoreErrorInvalidProto.
type ProtoError string

const (
	ProtoErrorMissingDestination          ProtoError = "RecipientMissingDestination"
	ProtoErrorContactWithoutIdentifiers   ProtoError = "ContactWithoutIdentifiers"
	ProtoErrorInvalidACI                  ProtoError = "InvalidAci"
	ProtoErrorInvalidPNI                  ProtoError = "InvalidPni"
	ProtoErrorInvalidE164                 ProtoError = "InvalidE164"
	ProtoErrorInvalidGroupMasterKey       ProtoError = "InvalidGroupMasterKey"
	ProtoErrorInvalidCallLinkRootKey      ProtoError = "InvalidCallLinkRootKey"
	ProtoErrorChatRecipientNotChattable   ProtoError = "ChatRecipientIsNotContactOrGroup"
	ProtoErrorInvalidTimestamp            ProtoError = "InvalidTimestamp"
	ProtoErrorMissingDirectionalDetails   ProtoError = "ChatItemMissingDirectionalDetails"
	ProtoErrorMissingItem                 ProtoError = "ChatItemMissingItem"
	ProtoErrorIncomingAuthorNotContact    ProtoError = "IncomingMessageAuthorNotContact"
	ProtoErrorOutgoingAuthorNotLocal      ProtoError = "OutgoingMessageAuthorNotLocalUser"
	ProtoErrorEmptyMessageBody            ProtoError = "EmptyStandardMessage"
	ProtoErrorUpdateNotDirectionless      ProtoError = "UpdateMessageNotDirectionless"
	ProtoErrorEmptyGroupUpdate            ProtoError = "EmptyGroupUpdates"
	ProtoErrorGroupUpdateInNonGroupChat   ProtoError = "GroupUpdateInNonGroupChat"
	ProtoErrorUnknownGroupUpdate          ProtoError = "UnrecognizedGroupUpdate"
	ProtoErrorUnknownSimpleUpdate         ProtoError = "UnrecognizedSimpleUpdate"
	ProtoErrorInvalidStickerPackID        ProtoError = "InvalidStickerPackId"
	ProtoErrorInvalidStickerPackKey       ProtoError = "InvalidStickerPackKey"
	ProtoErrorAdHocCallRecipientNotLink   ProtoError = "AdHocCallRecipientNotCallLink"
	ProtoErrorAdHocCallMissingCallID      ProtoError = "AdHocCallMissingCallId"
	ProtoErrorUnknownFrameType            ProtoError = "UnknownFrameType"
	ProtoErrorInvalidAttachmentClientUUID ProtoError = "InvalidAttachmentClientUUID"
	ProtoErrorAttachmentMissingPointer    ProtoError = "MessageAttachmentMissingFilePointer"
	ProtoErrorFilePointerMissingCDNKey    ProtoError = "FilePointerMissingTransitCdnKey"
	ProtoErrorFilePointerMissingKey       ProtoError = "FilePointerMissingEncryptionKey"
	ProtoErrorFilePointerMissingDigest    ProtoError = "FilePointerMissingDigest"
)

// RestoreFrameError is a failure to restore (part of) a single frame.
type RestoreFrameError struct {
	Type       RestoreFrameErrorType
	ProtoError ProtoError
	ID         LoggableID
	Raw        error
	Callsite   string
}

func NewRestoreFrameError(typ RestoreFrameErrorType, id LoggableID) *RestoreFrameError {
	return &RestoreFrameError{Type: typ, ID: id, Callsite: callsite(1)}
}

// NewInvalidProtoError creates an error for a frame that contains invalid data.
func NewInvalidProtoError(protoErr ProtoError, id LoggableID) *RestoreFrameError {
	return &RestoreFrameError{Type: RestoreErrorInvalidProto, ProtoError: protoErr, ID: id, Callsite: callsite(1)}
}

// NewUnrecognizedEnumError is used for values from newer versions that this version can't restore.
func NewUnrecognizedEnumError(protoErr ProtoError, id LoggableID) *RestoreFrameError {
	return &RestoreFrameError{Type: RestoreErrorUnrecognizedEnum, ProtoError: protoErr, ID: id, Callsite: callsite(1)}
}

// WrapRestoreFrameError creates an error for a frame caused by another error, usually from the database.
func WrapRestoreFrameError(typ RestoreFrameErrorType, id LoggableID, err error) *RestoreFrameError {
	return &RestoreFrameError{Type: typ, ID: id, Raw: err, Callsite: callsite(1)}
}

func (rfe *RestoreFrameError) Error() string {
	typ := rfe.TypeLogString()
	if rfe.Raw != nil {
		return fmt.Sprintf("%s (%s): %v", typ, idLogString(rfe.ID), rfe.Raw)
	}
	return fmt.Sprintf("%s (%s)", typ, idLogString(rfe.ID))
}

func (rfe *RestoreFrameError) Unwrap() error { return rfe.Raw }

func (rfe *RestoreFrameError) TypeLogString() string {
	if rfe.ProtoError != "" {
		return string(rfe.Type) + "/" + string(rfe.ProtoError)
	}
	return string(rfe.Type)
}

func (rfe *RestoreFrameError) IDLogString() string       { return idLogString(rfe.ID) }
func (rfe *RestoreFrameError) CallsiteLogString() string { return rfe.Callsite }
func (rfe *RestoreFrameError) CollapseKey() string       { return rfe.TypeLogString() + "@" + rfe.Callsite }

func (rfe *RestoreFrameError) LogLevel() zerolog.Level {
	switch rfe.Type {
	case RestoreErrorUnrecognizedEnum:
		return zerolog.InfoLevel
	case RestoreErrorDatabaseInsertionFailed, RestoreErrorDatabaseUpdateFailed, RestoreErrorEnqueueDownloadFailed:
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

var (
	_ LoggableError = (*ArchiveFrameError)(nil)
	_ LoggableError = (*FatalArchivingError)(nil)
	_ LoggableError = (*RestoreFrameError)(nil)
)
