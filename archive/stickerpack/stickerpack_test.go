// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package stickerpack

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mau.fi/util/random"
	"golang.org/x/time/rate"

	"go.mau.fi/msgbackup/archive"
	"go.mau.fi/msgbackup/proto/backupProto"
	"go.mau.fi/msgbackup/store/sqlstore"
	"go.mau.fi/msgbackup/stream"
	"go.mau.fi/msgbackup/types"
)

func newTestContainer(t *testing.T) *sqlstore.Container {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Close()
	})
	return container
}

func queuedIDs(t *testing.T, c *sqlstore.Container) []types.StickerPackID {
	t.Helper()
	var ids []types.StickerPackID
	err := c.EnumerateQueuedStickerPacks(context.Background(), func(q *types.QueuedStickerPackDownload) error {
		ids = append(ids, q.PackID)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to enumerate queue: %v", err)
	}
	return ids
}

var testLocal = types.LocalIdentifiers{ACI: types.NewACI()}

func TestRestoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	a := NewArchiver(c.Stores())
	rc := archive.NewRestoringContext(ctx, testLocal, nil)
	frame := &backupProto.StickerPack{PackID: random.Bytes(16), PackKey: random.Bytes(32)}
	for i := 0; i < 2; i++ {
		if result := a.Restore(ctx, frame, rc); result.Status() != archive.StatusSuccess {
			t.Fatalf("Expected restore #%d to succeed, got %s: %v", i+1, result.Status(), result.Errors)
		}
	}
	if diff := cmp.Diff([]types.StickerPackID{types.StickerPackID(frame.PackID)}, queuedIDs(t, c)); diff != "" {
		t.Errorf("Unexpected queue (-want +got):\n%s", diff)
	}
}

func TestRestoreSkipsInstalledPacks(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	pack := &types.StickerPack{PackID: types.StickerPackID(random.Bytes(16)), PackKey: types.StickerPackKey(random.Bytes(32)), Installed: true}
	if err := c.PutStickerPack(ctx, pack); err != nil {
		t.Fatalf("Failed to put sticker pack: %v", err)
	}
	rc := archive.NewRestoringContext(ctx, testLocal, nil)
	result := NewArchiver(c.Stores()).Restore(ctx, &backupProto.StickerPack{PackID: pack.PackID[:], PackKey: pack.PackKey[:]}, rc)
	if result.Status() != archive.StatusSuccess {
		t.Fatalf("Expected success, got %s", result.Status())
	}
	if queued := queuedIDs(t, c); len(queued) != 0 {
		t.Errorf("Expected installed pack not to be queued, got %v", queued)
	}
}

func TestRestoreInvalidPack(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	a := NewArchiver(c.Stores())
	testCases := []struct {
		name     string
		frame    *backupProto.StickerPack
		expected archive.ProtoError
	}{
		{"Short ID", &backupProto.StickerPack{PackID: random.Bytes(15), PackKey: random.Bytes(32)}, archive.ProtoErrorInvalidStickerPackID},
		{"Missing key", &backupProto.StickerPack{PackID: random.Bytes(16)}, archive.ProtoErrorInvalidStickerPackKey},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := a.Restore(ctx, tc.frame, archive.NewRestoringContext(ctx, testLocal, nil))
			if result.Status() != archive.StatusCompleteFailure {
				t.Fatalf("Expected failure, got %s", result.Status())
			}
			if len(result.Errors) != 1 || result.Errors[0].ProtoError != tc.expected {
				t.Errorf("Expected %s error, got %v", tc.expected, result.Errors)
			}
		})
	}
}

func TestArchiveAllDeduplicatesQueuedPacks(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	installed := &types.StickerPack{PackID: types.StickerPackID(random.Bytes(16)), PackKey: types.StickerPackKey(random.Bytes(32)), Installed: true}
	if err := c.PutStickerPack(ctx, installed); err != nil {
		t.Fatalf("Failed to put sticker pack: %v", err)
	}
	queued := types.StickerPackID(random.Bytes(16))
	for _, id := range []types.StickerPackID{installed.PackID, queued} {
		if _, err := c.EnqueueStickerPackDownload(ctx, id, installed.PackKey); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
	}
	var buf bytes.Buffer
	w := stream.NewWriter(&buf, stream.Options{}, nil)
	_ = w.WriteHeader(&backupProto.BackupInfo{Version: 1})
	result, err := NewArchiver(c.Stores()).ArchiveAll(ctx, w, archive.NewArchivingContext(ctx, testLocal, nil))
	if err != nil || result.Status() != archive.StatusSuccess {
		t.Fatalf("Expected success, got %s / %v", result.Status(), err)
	}
	if w.FrameCount() != 2 {
		t.Errorf("Expected 2 frames, got %d", w.FrameCount())
	}
}

type fakeDownloader struct {
	fail map[types.StickerPackID]bool
	hits int
}

func (fd *fakeDownloader) DownloadStickerPack(ctx context.Context, id types.StickerPackID, key types.StickerPackKey) (*types.StickerPack, error) {
	fd.hits++
	if fd.fail[id] {
		return nil, errors.New("not found")
	}
	return &types.StickerPack{Title: "Pack", Author: "Someone"}, nil
}

func TestDownloadQueueRunner(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	var ids []types.StickerPackID
	key := types.StickerPackKey(random.Bytes(32))
	for i := 0; i < 5; i++ {
		id := types.StickerPackID(random.Bytes(16))
		ids = append(ids, id)
		if _, err := c.EnqueueStickerPackDownload(ctx, id, key); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
	}
	dl := &fakeDownloader{fail: map[types.StickerPackID]bool{ids[1]: true}}
	runner := NewDownloadQueueRunner(c.Stores(), dl, nil)
	runner.Limiter = rate.NewLimiter(rate.Inf, 1)
	runner.BatchSize = 2
	downloaded, failed, err := runner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("Failed to run queue: %v", err)
	}
	if downloaded != 4 || failed != 1 || dl.hits != 5 {
		t.Errorf("Expected 4 downloaded and 1 failed in 5 attempts, got %d/%d/%d", downloaded, failed, dl.hits)
	}
	if diff := cmp.Diff([]types.StickerPackID{ids[1]}, queuedIDs(t, c)); diff != "" {
		t.Errorf("Unexpected remaining queue (-want +got):\n%s", diff)
	}
	pack, err := c.GetStickerPack(ctx, ids[0])
	if err != nil || pack == nil || !pack.Installed || pack.Title != "Pack" || pack.PackKey != key {
		t.Errorf("Expected downloaded pack to be installed, got %+v / %v", pack, err)
	}
}
