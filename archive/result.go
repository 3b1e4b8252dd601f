// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

type ResultStatus int

const (
	StatusSuccess ResultStatus = iota
	StatusPartialSuccess
	StatusCompleteFailure
)

func (rs ResultStatus) String() string {
	switch rs {
	case StatusSuccess:
		return "success"
	case StatusPartialSuccess:
		return "partial success"
	case StatusCompleteFailure:
		return "complete failure"
	default:
		return "unknown"
	}
}

// ArchiveMultiFrameResult is the outcome of archiving a whole family of entities.
type ArchiveMultiFrameResult struct {
	Errors []*ArchiveFrameError
	Fatal  *FatalArchivingError
}

func ArchiveSuccess() ArchiveMultiFrameResult {
	return ArchiveMultiFrameResult{}
}

// ArchiveResultFromErrors returns a success if there are no errors and a partial success otherwise.
func ArchiveResultFromErrors(errs []*ArchiveFrameError) ArchiveMultiFrameResult {
	return ArchiveMultiFrameResult{Errors: errs}
}

// ArchiveCompleteFailure returns a failed result. Errors collected before the failure are kept for logging.
func ArchiveCompleteFailure(fatal *FatalArchivingError, errs []*ArchiveFrameError) ArchiveMultiFrameResult {
	return ArchiveMultiFrameResult{Fatal: fatal, Errors: errs}
}

func (r ArchiveMultiFrameResult) Status() ResultStatus {
	if r.Fatal != nil {
		return StatusCompleteFailure
	} else if len(r.Errors) > 0 {
		return StatusPartialSuccess
	}
	return StatusSuccess
}

// ArchiveSingleFrameResult is the outcome of converting one row into a frame or a frame part.
type ArchiveSingleFrameResult[T any] struct {
	Value T
	Err   *ArchiveFrameError
}

func SingleFrameSuccess[T any](value T) ArchiveSingleFrameResult[T] {
	return ArchiveSingleFrameResult[T]{Value: value}
}

func SingleFrameFailure[T any](err *ArchiveFrameError) ArchiveSingleFrameResult[T] {
	return ArchiveSingleFrameResult[T]{Err: err}
}

func (r ArchiveSingleFrameResult[T]) Get() (T, *ArchiveFrameError) {
	return r.Value, r.Err
}

type interactionResultKind int

const (
	interactionSuccess interactionResultKind = iota
	interactionPartialFailure
	interactionSkippable
	interactionMessageFailure
)

// SkipReason describes why an interaction was intentionally left out of the backup.
type SkipReason string

const (
	SkipLegacyGroupUpdate            SkipReason = "LegacyGroupUpdate"
	SkipInviteFriendsToNewGroup      SkipReason = "InviteFriendsToNewlyCreatedGroup"
	SkipAllGroupUpdatesSkippable     SkipReason = "AllGroupUpdatesSkippable"
	SkipUnsupportedInteractionType   SkipReason = "UnsupportedInteractionType"
	SkipExpiredDisappearingMessage   SkipReason = "ExpiredDisappearingMessage"
	SkipGroupUpdateWithoutChangeInfo SkipReason = "GroupUpdateWithoutChangeInfo"
)

// InteractionResult is the outcome of archiving one interaction or one component of an interaction.
type InteractionResult[T any] struct {
	kind       interactionResultKind
	Value      T
	Errors     []*ArchiveFrameError
	SkipReason SkipReason
}

func InteractionOK[T any](value T) InteractionResult[T] {
	return InteractionResult[T]{kind: interactionSuccess, Value: value}
}

// InteractionPartial returns a usable value with some recoverable errors.
// If errs is empty, the result is a plain success.
func InteractionPartial[T any](value T, errs []*ArchiveFrameError) InteractionResult[T] {
	if len(errs) == 0 {
		return InteractionOK(value)
	}
	return InteractionResult[T]{kind: interactionPartialFailure, Value: value, Errors: errs}
}

func InteractionSkip[T any](reason SkipReason) InteractionResult[T] {
	return InteractionResult[T]{kind: interactionSkippable, SkipReason: reason}
}

func InteractionFail[T any](errs ...*ArchiveFrameError) InteractionResult[T] {
	return InteractionResult[T]{kind: interactionMessageFailure, Errors: errs}
}

func (r InteractionResult[T]) IsSkippable() bool { return r.kind == interactionSkippable }
func (r InteractionResult[T]) IsFailure() bool   { return r.kind == interactionMessageFailure }

// Bubble folds the result into the accumulated error list.
//
// If ok is false, the result is either skippable or a message failure,
// and the caller must stop and return Abort(result, errs).
func (r InteractionResult[T]) Bubble(errs []*ArchiveFrameError) (value T, newErrs []*ArchiveFrameError, ok bool) {
	switch r.kind {
	case interactionSuccess:
		return r.Value, errs, true
	case interactionPartialFailure:
		return r.Value, append(errs, r.Errors...), true
	default:
		return value, errs, false
	}
}

// Abort forwards a skippable or failed result to a parent result of a different type,
// carrying over the errors accumulated so far.
func Abort[U, T any](r InteractionResult[T], errs []*ArchiveFrameError) InteractionResult[U] {
	switch r.kind {
	case interactionSkippable:
		return InteractionSkip[U](r.SkipReason)
	case interactionMessageFailure:
		return InteractionFail[U](append(errs, r.Errors...)...)
	default:
		panic("archive.Abort called with a successful result")
	}
}

// RestoreFrameResult is the outcome of restoring a single frame.
type RestoreFrameResult struct {
	failed bool
	Errors []*RestoreFrameError
}

func RestoreSuccess() RestoreFrameResult {
	return RestoreFrameResult{}
}

// RestoreResultFromErrors returns a success if there are no errors and a partial restore otherwise.
func RestoreResultFromErrors(errs []*RestoreFrameError) RestoreFrameResult {
	return RestoreFrameResult{Errors: errs}
}

// RestoreFailure means nothing meaningful could be restored from the frame.
func RestoreFailure(errs ...*RestoreFrameError) RestoreFrameResult {
	return RestoreFrameResult{failed: true, Errors: errs}
}

func (r RestoreFrameResult) Status() ResultStatus {
	if r.failed {
		return StatusCompleteFailure
	} else if len(r.Errors) > 0 {
		return StatusPartialSuccess
	}
	return StatusSuccess
}
