// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package msgbackup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"go.mau.fi/util/random"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store/sqlstore"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

func newTestContainer(t *testing.T) *sqlstore.Container {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate", nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Close()
	})
	return container
}

func newTestLocal() types.LocalIdentifiers {
	return types.LocalIdentifiers{ACI: types.NewACI(), PNI: types.NewPNI(), E164: "+15550001111"}
}

type testData struct {
	alice        *types.Recipient
	group        *types.Group
	aliceThread  *types.Thread
	groupThread  *types.Thread
	interactions map[types.ThreadUniqueID][]*types.Interaction
	link         *types.CallLinkRecord
	call         *types.CallRecord
	pack         *types.StickerPack
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Failed to seed database: %v", err)
	}
}

func seedTestData(t *testing.T, c *sqlstore.Container, local types.LocalIdentifiers) *testData {
	t.Helper()
	ctx := context.Background()
	td := &testData{interactions: make(map[types.ThreadUniqueID][]*types.Interaction)}
	must(t, c.PutRecipient(ctx, &types.Recipient{ACI: local.ACI, E164: local.E164, ProfileSharing: true}))
	td.alice = &types.Recipient{
		ACI:            types.NewACI(),
		E164:           "+15551234567",
		ProfileSharing: true,
		ProfileKey:     random.Bytes(32),
		GivenName:      "Alice",
		FamilyName:     "Liddell",
	}
	must(t, c.PutRecipient(ctx, td.alice))
	td.group = &types.Group{
		MasterKey:   types.GroupMasterKey(random.Bytes(32)),
		Whitelisted: true,
		Snapshot: types.GroupSnapshot{
			Title:               "Tea party",
			Description:         "Unbirthday celebrations",
			Members:             []types.GroupMember{{ACI: local.ACI, Admin: true}, {ACI: td.alice.ACI}},
			DisappearingTimerMs: 86400000,
		},
	}
	must(t, c.PutGroup(ctx, td.group))
	td.aliceThread = &types.Thread{Kind: types.ThreadKindContact, ContactRecipient: td.alice.UniqueID, PinnedOrder: 1, ExpirationTimerMs: 3600000}
	must(t, c.PutThread(ctx, td.aliceThread))
	td.groupThread = &types.Thread{Kind: types.ThreadKindGroup, GroupID: td.group.GroupID, MuteUntilMs: 1900000000000}
	must(t, c.PutThread(ctx, td.groupThread))

	addInteraction := func(interaction *types.Interaction) {
		_, err := c.PutInteraction(ctx, interaction)
		must(t, err)
		td.interactions[interaction.ThreadID] = append(td.interactions[interaction.ThreadID], interaction)
	}
	addInteraction(&types.Interaction{
		ThreadID:     td.aliceThread.UniqueID,
		Kind:         types.InteractionIncoming,
		Timestamp:    1700000001000,
		ReceivedAtMs: 1700000001500,
		Author:       td.alice.UniqueID,
		Body:         "Hello",
		Read:         true,
		SealedSender: true,
	})
	addInteraction(&types.Interaction{
		ThreadID:  td.aliceThread.UniqueID,
		Kind:      types.InteractionOutgoing,
		Timestamp: 1700000002000,
		Body:      "Hi Alice",
		Attachments: []types.MessageAttachment{{
			ClientUUID: uuid.New(),
			Pointer: types.AttachmentPointer{
				ContentType: "image/png",
				Width:       320,
				Height:      240,
				CDNKey:      "rabbit-hole",
				CDNNumber:   3,
				Key:         random.Bytes(64),
				Digest:      random.Bytes(32),
				Size:        2048,
			},
			Flag: types.AttachmentFlagBorderless,
		}, {
			Pointer:       types.AttachmentPointer{ContentType: "text/plain", FileName: "expired.txt"},
			WasDownloaded: true,
		}},
		Read: true,
	})
	addInteraction(&types.Interaction{
		ThreadID:     td.aliceThread.UniqueID,
		Kind:         types.InteractionInfo,
		Timestamp:    1700000003000,
		Read:         true,
		InfoType:     types.InfoTypeSimple,
		SimpleUpdate: types.SimpleUpdateIdentityVerified,
	})
	addInteraction(&types.Interaction{
		ThreadID:  td.groupThread.UniqueID,
		Kind:      types.InteractionInfo,
		Timestamp: 1700000004000,
		Read:      true,
		InfoType:  types.InfoTypeGroupUpdate,
		GroupUpdate: &types.GroupUpdateMetadata{Items: []types.GroupUpdateItem{{
			Type:    types.GroupUpdateNameChanged,
			Updater: types.LocalUserUpdater,
			Text:    "Tea party",
		}}},
	})

	td.link = &types.CallLinkRecord{
		RootKey:      random.Bytes(16),
		AdminPasskey: random.Bytes(16),
		Name:         "Standup",
		Restrictions: types.CallLinkRestrictionsAdminApproval,
		ExpirationMs: 1800000000000,
	}
	must(t, c.PutCallLinkRecord(ctx, td.link))
	td.call = &types.CallRecord{
		CallID:             types.CallID(1<<63 + 42),
		Conversation:       types.CallConversationID{Kind: types.CallConversationCallLink, RoomID: td.link.RoomID},
		Type:               types.CallTypeAdHoc,
		Direction:          types.CallDirectionIncoming,
		Status:             types.CallStatusGeneric,
		CallBeganTimestamp: 1700000005000,
	}
	must(t, c.PutCallRecord(ctx, td.call))
	td.pack = &types.StickerPack{
		PackID:    types.StickerPackID(random.Bytes(16)),
		PackKey:   types.StickerPackKey(random.Bytes(32)),
		Title:     "Cats",
		Installed: true,
	}
	must(t, c.PutStickerPack(ctx, td.pack))
	return td
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	local := newTestLocal()
	src := newTestContainer(t)
	td := seedTestData(t, src, local)

	var phases []Phase
	exporter := NewManager(src.Stores(), local, nil)
	exporter.OnPhase = func(direction archive.Direction, phase Phase) {
		if direction != archive.DirectionExport {
			t.Errorf("Unexpected direction %s", direction)
		}
		phases = append(phases, phase)
	}
	var buf bytes.Buffer
	out, err := exporter.Export(ctx, &buf, ExportOptions{AppVersion: "1.2.3", FirstAppVersion: "1.0.0", Compress: true})
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	if out.Status != archive.StatusSuccess || len(out.Errors) != 0 {
		t.Fatalf("Expected clean export, got %s with %d errors", out.Status, len(out.Errors))
	}
	// self, release notes, alice, group, call link, 2 chats, 4 chat items, sticker pack, ad-hoc call
	if out.Frames != 13 {
		t.Errorf("Expected 13 frames, got %d", out.Frames)
	}
	if out.BytesWritten != int64(buf.Len()) {
		t.Errorf("Expected %d bytes written, got %d", buf.Len(), out.BytesWritten)
	}
	expectedPhases := []Phase{PhaseRecipients, PhaseChats, PhaseChatItems, PhaseStickerPacks, PhaseAdHocCalls, PhaseCompleted}
	if diff := cmp.Diff(expectedPhases, phases); diff != "" {
		t.Errorf("Unexpected phases (-want +got):\n%s", diff)
	}

	dst := newTestContainer(t)
	importer := NewManager(dst.Stores(), local, nil)
	out, err = importer.Import(ctx, bytes.NewReader(buf.Bytes()), ImportOptions{Compress: true})
	if err != nil {
		t.Fatalf("Failed to import: %v", err)
	}
	if out.Status != archive.StatusSuccess {
		t.Fatalf("Expected clean import, got %s: %+v", out.Status, out.Summary)
	}
	if out.Header.CurrentAppVersion != "1.2.3" || out.Header.FirstAppVersion != "1.0.0" {
		t.Errorf("Unexpected header %+v", out.Header)
	}
	if out.Phase != PhaseCompleted {
		t.Errorf("Expected completed phase, got %s", out.Phase)
	}

	alice, err := dst.FetchRecipient(ctx, td.alice.ACI, types.PNI{}, "")
	if err != nil || alice == nil {
		t.Fatalf("Expected Alice to be restored, got %v / %v", alice, err)
	}
	if diff := cmp.Diff(td.alice, alice, cmpopts.IgnoreFields(types.Recipient{}, "UniqueID")); diff != "" {
		t.Errorf("Unexpected recipient (-want +got):\n%s", diff)
	}
	self, err := dst.FetchRecipient(ctx, local.ACI, types.PNI{}, "")
	if err != nil || self == nil {
		t.Fatalf("Expected local recipient to be created, got %v / %v", self, err)
	}

	group, err := dst.GetGroup(ctx, td.group.GroupID)
	if err != nil {
		t.Fatalf("Failed to get group: %v", err)
	}
	if diff := cmp.Diff(td.group, group); diff != "" {
		t.Errorf("Unexpected group (-want +got):\n%s", diff)
	}

	ignoreThreadIDs := cmpopts.IgnoreFields(types.Thread{}, "UniqueID", "ContactRecipient")
	aliceThread, err := dst.GetContactThread(ctx, alice.UniqueID)
	if err != nil || aliceThread == nil {
		t.Fatalf("Expected contact thread to be restored, got %v / %v", aliceThread, err)
	}
	if diff := cmp.Diff(td.aliceThread, aliceThread, ignoreThreadIDs); diff != "" {
		t.Errorf("Unexpected contact thread (-want +got):\n%s", diff)
	}
	groupThread, err := dst.GetGroupThread(ctx, td.group.GroupID)
	if err != nil || groupThread == nil {
		t.Fatalf("Expected group thread to be restored, got %v / %v", groupThread, err)
	}
	if diff := cmp.Diff(td.groupThread, groupThread, ignoreThreadIDs); diff != "" {
		t.Errorf("Unexpected group thread (-want +got):\n%s", diff)
	}

	ignoreInteractionIDs := cmpopts.IgnoreFields(types.Interaction{}, "UniqueID", "SortID", "ThreadID", "Author")
	threads := map[types.ThreadUniqueID]types.ThreadUniqueID{
		td.aliceThread.UniqueID: aliceThread.UniqueID,
		td.groupThread.UniqueID: groupThread.UniqueID,
	}
	for srcThread, dstThread := range threads {
		restored, err := dst.GetThreadInteractions(ctx, dstThread)
		if err != nil {
			t.Fatalf("Failed to get interactions: %v", err)
		}
		if diff := cmp.Diff(td.interactions[srcThread], restored, ignoreInteractionIDs); diff != "" {
			t.Errorf("Unexpected interactions (-want +got):\n%s", diff)
		}
		for _, interaction := range restored {
			if interaction.Kind == types.InteractionIncoming && interaction.Author != alice.UniqueID {
				t.Errorf("Expected incoming message to be authored by Alice, got %q", interaction.Author)
			}
		}
	}

	link, err := dst.GetCallLinkRecord(ctx, td.link.RoomID)
	if err != nil || link == nil {
		t.Fatalf("Expected call link to be restored, got %v / %v", link, err)
	}
	td.link.HasAnyCall = true
	if diff := cmp.Diff(td.link, link); diff != "" {
		t.Errorf("Unexpected call link (-want +got):\n%s", diff)
	}
	call, err := dst.GetCallRecord(ctx, td.call.CallID, td.call.Conversation)
	if err != nil {
		t.Fatalf("Failed to get call record: %v", err)
	}
	if diff := cmp.Diff(td.call, call); diff != "" {
		t.Errorf("Unexpected call record (-want +got):\n%s", diff)
	}

	var queued []types.StickerPackID
	err = dst.EnumerateQueuedStickerPacks(ctx, func(q *types.QueuedStickerPackDownload) error {
		queued = append(queued, q.PackID)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to enumerate sticker queue: %v", err)
	}
	if diff := cmp.Diff([]types.StickerPackID{td.pack.PackID}, queued); diff != "" {
		t.Errorf("Unexpected sticker pack queue (-want +got):\n%s", diff)
	}

	restoredOutgoing, err := dst.GetThreadInteractions(ctx, aliceThread.UniqueID)
	if err != nil || len(restoredOutgoing) < 2 {
		t.Fatalf("Expected restored outgoing message, got %d / %v", len(restoredOutgoing), err)
	}
	queuedAttachments, err := dst.PeekQueuedAttachments(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to peek attachment queue: %v", err)
	}
	// The expired attachment has no CDN locator and isn't queued.
	if len(queuedAttachments) != 1 || queuedAttachments[0].InteractionID != restoredOutgoing[1].UniqueID || queuedAttachments[0].Index != 0 {
		t.Fatalf("Unexpected attachment queue %+v", queuedAttachments)
	}
	if diff := cmp.Diff(td.interactions[td.aliceThread.UniqueID][1].Attachments[0].Pointer, queuedAttachments[0].Pointer); diff != "" {
		t.Errorf("Unexpected queued attachment (-want +got):\n%s", diff)
	}
}

func TestRestoreStateTransitions(t *testing.T) {
	ctx := context.Background()
	local := newTestLocal()
	src := newTestContainer(t)
	seedTestData(t, src, local)
	var buf bytes.Buffer
	if _, err := NewManager(src.Stores(), local, nil).Export(ctx, &buf, ExportOptions{}); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	dst := newTestContainer(t)
	mgr := NewManager(dst.Stores(), local, nil)
	if err := mgr.FinalizeImport(ctx); !errors.Is(err, ErrNothingToFinalize) {
		t.Errorf("Expected ErrNothingToFinalize before import, got %v", err)
	}
	if _, err := mgr.Import(ctx, bytes.NewReader(buf.Bytes()), ImportOptions{}); err != nil {
		t.Fatalf("Failed to import: %v", err)
	}
	if state, err := mgr.GetRestoreState(ctx); err != nil || state != RestoreStateUnfinalized {
		t.Errorf("Expected unfinalized state, got %q / %v", state, err)
	}
	if _, err := mgr.Import(ctx, bytes.NewReader(buf.Bytes()), ImportOptions{}); !errors.Is(err, ErrAlreadyRestored) {
		t.Errorf("Expected ErrAlreadyRestored, got %v", err)
	}
	if err := mgr.FinalizeImport(ctx); err != nil {
		t.Fatalf("Failed to finalize: %v", err)
	}
	if state, err := mgr.GetRestoreState(ctx); err != nil || state != RestoreStateFinalized {
		t.Errorf("Expected finalized state, got %q / %v", state, err)
	}
	if err := mgr.FinalizeImport(ctx); !errors.Is(err, ErrNothingToFinalize) {
		t.Errorf("Expected ErrNothingToFinalize after finalizing, got %v", err)
	}
}

func TestExportRequiresLocalACI(t *testing.T) {
	c := newTestContainer(t)
	_, err := NewManager(c.Stores(), types.LocalIdentifiers{E164: "+15550001111"}, nil).Export(context.Background(), &bytes.Buffer{}, ExportOptions{})
	if !errors.Is(err, ErrMissingLocalIdentifiers) {
		t.Errorf("Expected ErrMissingLocalIdentifiers, got %v", err)
	}
}

func TestExportSkipsOversizedFrame(t *testing.T) {
	ctx := context.Background()
	local := newTestLocal()
	src := newTestContainer(t)
	td := seedTestData(t, src, local)
	_, err := src.PutInteraction(ctx, &types.Interaction{
		ThreadID:  td.aliceThread.UniqueID,
		Kind:      types.InteractionOutgoing,
		Timestamp: 1700000009000,
		Body:      strings.Repeat("a", 5000),
		Read:      true,
	})
	must(t, err)

	var buf bytes.Buffer
	out, err := NewManager(src.Stores(), local, nil).Export(ctx, &buf, ExportOptions{MaxFrameSize: 4096})
	if err != nil {
		t.Fatalf("Expected oversized row to not fail the export, got %v", err)
	}
	if out.Status != archive.StatusPartialSuccess || out.Phase != PhaseCompleted {
		t.Errorf("Expected completed partial success, got %s in phase %s", out.Status, out.Phase)
	}
	if out.Frames != 13 {
		t.Errorf("Expected the 13 other frames to be written, got %d", out.Frames)
	}
	if len(out.Errors) != 1 || out.Errors[0].Example.TypeLogString() != string(archive.ArchiveErrorFrameTooLarge) {
		t.Fatalf("Expected one FrameTooLarge error, got %+v", out.Errors)
	}

	dst := newTestContainer(t)
	out, err = NewManager(dst.Stores(), local, nil).Import(ctx, bytes.NewReader(buf.Bytes()), ImportOptions{MaxFrameSize: 4096})
	if err != nil {
		t.Fatalf("Failed to import: %v", err)
	} else if out.Status != archive.StatusSuccess {
		t.Errorf("Expected clean import, got %s: %+v", out.Status, out.Summary)
	}
}

func writeRawStream(t *testing.T, version uint64, frames ...*backupProto.Frame) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := stream.NewWriter(&buf, stream.Options{}, nil)
	if err := w.WriteHeader(&backupProto.BackupInfo{Version: version, BackupTimeMs: 1700000000000}); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	for _, frame := range frames {
		if err := w.WriteFrame(frame); err != nil {
			t.Fatalf("Failed to write frame: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close stream: %v", err)
	}
	return buf.Bytes()
}

func selfFrame(id uint64) *backupProto.Frame {
	return &backupProto.Frame{Item: &backupProto.Frame_Recipient{Recipient: &backupProto.Recipient{
		ID:          id,
		Destination: &backupProto.Recipient_Self{Self: &backupProto.Self{}},
	}}}
}

func orphanChatFrame() *backupProto.Frame {
	return &backupProto.Frame{Item: &backupProto.Frame_Chat{Chat: &backupProto.Chat{ID: 1, RecipientID: 99}}}
}

func TestImportFailures(t *testing.T) {
	ctx := context.Background()
	local := newTestLocal()

	truncated := writeRawStream(t, 1, selfFrame(1))
	truncated = truncated[:len(truncated)-1]

	testCases := []struct {
		name          string
		data          []byte
		opts          ImportOptions
		expectedErr   error
		expectedState RestoreState
	}{
		{"Unsupported version", writeRawStream(t, 2, selfFrame(1)), ImportOptions{}, ErrUnsupportedVersion, RestoreStateNone},
		{"Empty stream", nil, ImportOptions{}, ErrInvalidBackupHeader, RestoreStateNone},
		{"Truncated frame", truncated, ImportOptions{}, ErrMalformedStream, RestoreStateNone},
		{"Fail on any error", writeRawStream(t, 1, selfFrame(1), orphanChatFrame()), ImportOptions{FailOnAnyError: true}, ErrFrameRestoreFailed, RestoreStateNone},
		{"Failed frame is dropped", writeRawStream(t, 1, selfFrame(1), orphanChatFrame()), ImportOptions{}, nil, RestoreStateUnfinalized},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestContainer(t)
			mgr := NewManager(c.Stores(), local, nil)
			_, err := mgr.Import(ctx, bytes.NewReader(tc.data), tc.opts)
			if tc.expectedErr == nil && err != nil {
				t.Fatalf("Expected no error, got %v", err)
			} else if tc.expectedErr != nil && !errors.Is(err, tc.expectedErr) {
				t.Fatalf("Expected %v, got %v", tc.expectedErr, err)
			}
			if state, err := mgr.GetRestoreState(ctx); err != nil || state != tc.expectedState {
				t.Errorf("Expected state %q, got %q / %v", tc.expectedState, state, err)
			}
		})
	}
}

func TestImportDroppedFrameOutcome(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	data := writeRawStream(t, 1, selfFrame(1), orphanChatFrame(), &backupProto.Frame{})
	out, err := NewManager(c.Stores(), newTestLocal(), nil).Import(ctx, bytes.NewReader(data), ImportOptions{})
	if err != nil {
		t.Fatalf("Failed to import: %v", err)
	}
	if out.Status != archive.StatusPartialSuccess {
		t.Errorf("Expected partial success, got %s", out.Status)
	}
	expected := archive.Summary{Issues: 2, DroppedFrames: 1, DistinctKinds: 2}
	if diff := cmp.Diff(expected, out.Summary); diff != "" {
		t.Errorf("Unexpected summary (-want +got):\n%s", diff)
	}
	if out.Frames != 3 {
		t.Errorf("Expected 3 frames, got %d", out.Frames)
	}
}

func TestImportCancellation(t *testing.T) {
	local := newTestLocal()
	data := writeRawStream(t, 1, selfFrame(1), orphanChatFrame())
	for _, commit := range []bool{false, true} {
		name := "Rollback"
		if commit {
			name = "Commit"
		}
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			c := newTestContainer(t)
			mgr := NewManager(c.Stores(), local, nil)
			// Cancel while the first frame is being restored.
			mgr.OnPhase = func(_ archive.Direction, phase Phase) {
				if phase == PhaseRecipients {
					cancel()
				}
			}
			out, err := mgr.Import(ctx, bytes.NewReader(data), ImportOptions{CommitOnCancel: commit})
			if !errors.Is(err, archive.ErrCancelled) {
				t.Fatalf("Expected ErrCancelled, got %v", err)
			}
			if out.Phase != PhaseAborted || out.FailedPhase != PhaseRecipients {
				t.Errorf("Expected abort in recipients phase, got %s/%s", out.Phase, out.FailedPhase)
			}
			self, err := c.FetchRecipient(context.Background(), local.ACI, types.PNI{}, "")
			if err != nil {
				t.Fatalf("Failed to fetch local recipient: %v", err)
			}
			if commit && self == nil {
				t.Error("Expected restored frames to be committed")
			} else if !commit && self != nil {
				t.Error("Expected restored frames to be rolled back")
			}
			if state, _ := mgr.GetRestoreState(context.Background()); state != RestoreStateNone {
				t.Errorf("Expected no restore state after cancellation, got %q", state)
			}
		})
	}
}
