// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package adhoccall

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

type fakeCallStore struct {
	store.NoopStore
	records      []*types.CallRecord
	enumerateErr error
	markErr      error
	put          []*types.CallRecord
	marked       []types.CallLinkRoomID
}

func (f *fakeCallStore) EnumerateAdHocCallRecords(ctx context.Context, fn store.EnumerateFunc[types.CallRecord]) error {
	for _, record := range f.records {
		if err := fn(record); err != nil {
			return err
		}
	}
	return f.enumerateErr
}

func (f *fakeCallStore) MarkCallLinkHasAnyCall(ctx context.Context, roomID types.CallLinkRoomID) error {
	f.marked = append(f.marked, roomID)
	return f.markErr
}

func (f *fakeCallStore) PutCallRecord(ctx context.Context, record *types.CallRecord) error {
	f.put = append(f.put, record)
	return f.Error
}

var testLocal = types.LocalIdentifiers{ACI: types.NewACI()}

func newTestArchiver(f *fakeCallStore) *Archiver {
	return &Archiver{CallRecords: f, CallLinks: f}
}

func TestArchiveAll(t *testing.T) {
	roomID := types.DeriveCallLinkRoomID([]byte("root key"))
	f := &fakeCallStore{records: []*types.CallRecord{{
		CallID:       1,
		Conversation: types.CallConversationID{Kind: types.CallConversationCallLink, RoomID: roomID},
	}, {
		CallID:             2,
		Conversation:       types.CallConversationID{Kind: types.CallConversationCallLink, RoomID: roomID},
		Status:             types.CallStatusJoined,
		CallBeganTimestamp: 1700000000000,
	}}}
	ac := archive.NewArchivingContext(context.Background(), testLocal, nil)
	linkID := ac.Recipients.Assign(archive.CallLinkAddress(roomID))

	var buf bytes.Buffer
	w := stream.NewWriter(&buf, stream.Options{}, nil)
	if err := w.WriteHeader(&backupProto.BackupInfo{Version: 1}); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	result, err := newTestArchiver(f).ArchiveAll(context.Background(), w, ac)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Status() != archive.StatusPartialSuccess {
		t.Errorf("Expected partial success, got %s", result.Status())
	}
	if len(result.Errors) != 1 || result.Errors[0].Type != archive.ArchiveErrorInvalidAdHocCallTimestamp {
		t.Errorf("Expected one invalid timestamp error, got %v", result.Errors)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("Failed to close stream: %v", err)
	}

	r, err := stream.NewReader(&buf, stream.Options{}, nil)
	if err != nil {
		t.Fatalf("Failed to open reader: %v", err)
	}
	if _, err = r.ReadHeader(); err != nil {
		t.Fatalf("Failed to read header: %v", err)
	}
	frame, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	expected := &backupProto.AdHocCall{CallID: 2, RecipientID: uint64(linkID), State: backupProto.AdHocCall_GENERIC, CallTimestamp: 1700000000000}
	if diff := cmp.Diff(expected, frame.GetAdHocCall()); diff != "" {
		t.Errorf("Unexpected ad-hoc call frame (-want +got):\n%s", diff)
	}
	if frame, err = r.ReadFrame(); frame != nil || err != nil {
		t.Errorf("Expected end of stream, got %v / %v", frame, err)
	}
}

func TestArchiveAllMissingCallLink(t *testing.T) {
	f := &fakeCallStore{records: []*types.CallRecord{{
		CallID:             3,
		Conversation:       types.CallConversationID{Kind: types.CallConversationCallLink, RoomID: types.DeriveCallLinkRoomID([]byte("unknown"))},
		CallBeganTimestamp: 1700000000000,
	}}}
	ac := archive.NewArchivingContext(context.Background(), testLocal, nil)
	w := stream.NewWriter(&bytes.Buffer{}, stream.Options{}, nil)
	_ = w.WriteHeader(&backupProto.BackupInfo{Version: 1})
	result, err := newTestArchiver(f).ArchiveAll(context.Background(), w, ac)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Type != archive.ArchiveErrorAdHocCallMissingRecipient {
		t.Errorf("Expected one missing recipient error, got %v", result.Errors)
	}
	if w.FrameCount() != 0 {
		t.Errorf("Expected no frames, got %d", w.FrameCount())
	}
}

func TestArchiveAllEnumerationFailure(t *testing.T) {
	f := &fakeCallStore{enumerateErr: errors.New("database is on fire")}
	ac := archive.NewArchivingContext(context.Background(), testLocal, nil)
	w := stream.NewWriter(&bytes.Buffer{}, stream.Options{}, nil)
	_ = w.WriteHeader(&backupProto.BackupInfo{Version: 1})
	result, err := newTestArchiver(f).ArchiveAll(context.Background(), w, ac)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Status() != archive.StatusCompleteFailure || result.Fatal.Type != archive.FatalEnumerationFailed {
		t.Errorf("Expected enumeration failure, got %s / %v", result.Status(), result.Fatal)
	}
}

func TestArchiveAllCancelled(t *testing.T) {
	f := &fakeCallStore{records: []*types.CallRecord{{CallID: 1, CallBeganTimestamp: 1700000000000}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ac := archive.NewArchivingContext(ctx, testLocal, nil)
	w := stream.NewWriter(&bytes.Buffer{}, stream.Options{}, nil)
	_ = w.WriteHeader(&backupProto.BackupInfo{Version: 1})
	_, err := newTestArchiver(f).ArchiveAll(ctx, w, ac)
	if !errors.Is(err, archive.ErrCancelled) {
		t.Errorf("Expected ErrCancelled, got %v", err)
	}
}

func TestRestore(t *testing.T) {
	roomID := types.DeriveCallLinkRoomID([]byte("root key"))
	newContext := func() *archive.RestoringContext {
		rc := archive.NewRestoringContext(context.Background(), testLocal, nil)
		rc.Recipients.Bind(1, archive.CallLinkAddress(roomID))
		rc.Recipients.Bind(2, archive.ReleaseNotesAddress())
		return rc
	}
	testCases := []struct {
		name           string
		call           *backupProto.AdHocCall
		markErr        error
		putErr         error
		expectedStatus archive.ResultStatus
		expectedErr    archive.RestoreFrameErrorType
	}{
		{"Success", &backupProto.AdHocCall{CallID: 5, RecipientID: 1, CallTimestamp: 1700000000000}, nil, nil, archive.StatusSuccess, ""},
		{"Missing call ID", &backupProto.AdHocCall{RecipientID: 1, CallTimestamp: 1700000000000}, nil, nil, archive.StatusCompleteFailure, archive.RestoreErrorInvalidProto},
		{"Zero timestamp", &backupProto.AdHocCall{CallID: 5, RecipientID: 1}, nil, nil, archive.StatusCompleteFailure, archive.RestoreErrorInvalidProto},
		{"Missing recipient", &backupProto.AdHocCall{CallID: 5, RecipientID: 9, CallTimestamp: 1700000000000}, nil, nil, archive.StatusCompleteFailure, archive.RestoreErrorReferencedRecipientMissing},
		{"Recipient not a call link", &backupProto.AdHocCall{CallID: 5, RecipientID: 2, CallTimestamp: 1700000000000}, nil, nil, archive.StatusCompleteFailure, archive.RestoreErrorInvalidProto},
		{"Mark fails", &backupProto.AdHocCall{CallID: 5, RecipientID: 1, CallTimestamp: 1700000000000}, errors.New("oops"), nil, archive.StatusPartialSuccess, archive.RestoreErrorDatabaseUpdateFailed},
		{"Insert fails", &backupProto.AdHocCall{CallID: 5, RecipientID: 1, CallTimestamp: 1700000000000}, nil, errors.New("oops"), archive.StatusCompleteFailure, archive.RestoreErrorDatabaseInsertionFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeCallStore{markErr: tc.markErr}
			f.Error = tc.putErr
			result := newTestArchiver(f).Restore(context.Background(), tc.call, newContext())
			if result.Status() != tc.expectedStatus {
				t.Errorf("Expected %s, got %s", tc.expectedStatus, result.Status())
			}
			if tc.expectedErr == "" {
				if len(result.Errors) != 0 {
					t.Errorf("Expected no errors, got %v", result.Errors)
				}
			} else if len(result.Errors) != 1 || result.Errors[0].Type != tc.expectedErr {
				t.Errorf("Expected one %s error, got %v", tc.expectedErr, result.Errors)
			}
		})
	}
}

func TestRestoreNormalizesRecord(t *testing.T) {
	roomID := types.DeriveCallLinkRoomID([]byte("root key"))
	rc := archive.NewRestoringContext(context.Background(), testLocal, nil)
	rc.Recipients.Bind(1, archive.CallLinkAddress(roomID))
	f := &fakeCallStore{}
	call := &backupProto.AdHocCall{CallID: 1 << 63, RecipientID: 1, State: backupProto.AdHocCall_UNKNOWN_STATE, CallTimestamp: 1700000000000}
	if result := newTestArchiver(f).Restore(context.Background(), call, rc); result.Status() != archive.StatusSuccess {
		t.Fatalf("Expected success, got %s: %v", result.Status(), result.Errors)
	}
	expected := []*types.CallRecord{{
		CallID:             types.CallID(1 << 63),
		Conversation:       types.CallConversationID{Kind: types.CallConversationCallLink, RoomID: roomID},
		Type:               types.CallTypeAdHoc,
		Direction:          types.CallDirectionIncoming,
		Status:             types.CallStatusGeneric,
		CallBeganTimestamp: 1700000000000,
	}}
	if diff := cmp.Diff(expected, f.put); diff != "" {
		t.Errorf("Unexpected call records (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]types.CallLinkRoomID{roomID}, f.marked); diff != "" {
		t.Errorf("Unexpected marked call links (-want +got):\n%s", diff)
	}
}
