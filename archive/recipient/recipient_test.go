// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package recipient

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
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
	container, err := sqlstore.New(context.Background(), "sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Close()
	})
	return container
}

var testLocal = types.LocalIdentifiers{ACI: types.NewACI(), E164: "+15550001111"}

func TestArchiveAll(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	for _, r := range []*types.Recipient{
		{ACI: testLocal.ACI, E164: testLocal.E164},
		{ACI: types.NewACI(), GivenName: "Alice"},
		{GivenName: "Nobody"},
	} {
		if err := c.PutRecipient(ctx, r); err != nil {
			t.Fatalf("Failed to put recipient: %v", err)
		}
	}
	if err := c.PutGroup(ctx, &types.Group{MasterKey: types.GroupMasterKey(random.Bytes(32))}); err != nil {
		t.Fatalf("Failed to put group: %v", err)
	}
	if err := c.PutCallLinkRecord(ctx, &types.CallLinkRecord{RootKey: random.Bytes(16)}); err != nil {
		t.Fatalf("Failed to put call link: %v", err)
	}

	var buf bytes.Buffer
	w := stream.NewWriter(&buf, stream.Options{}, nil)
	_ = w.WriteHeader(&backupProto.BackupInfo{Version: 1})
	ac := archive.NewArchivingContext(ctx, testLocal, nil)
	result, err := NewArchiver(c.Stores()).ArchiveAll(ctx, w, ac)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Type != archive.ArchiveErrorContactMissingIdentifiers {
		t.Errorf("Expected one missing identifiers error, got %v", result.Errors)
	}
	// self, release notes, Alice, group, call link
	if w.FrameCount() != 5 {
		t.Errorf("Expected 5 frames, got %d", w.FrameCount())
	}
	if _, ok := ac.Recipients.Lookup(archive.RecipientAddress{Kind: archive.AddressContact, E164: testLocal.E164}); !ok {
		t.Error("Expected local phone number to resolve to a recipient ID")
	}
}

func TestArchiveAllRequiresLocalACI(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	w := stream.NewWriter(&bytes.Buffer{}, stream.Options{}, nil)
	_ = w.WriteHeader(&backupProto.BackupInfo{Version: 1})
	result, _ := NewArchiver(c.Stores()).ArchiveAll(ctx, w, archive.NewArchivingContext(ctx, types.LocalIdentifiers{}, nil))
	if result.Fatal == nil || result.Fatal.Type != archive.FatalMissingLocalAddress {
		t.Errorf("Expected missing local address failure, got %v", result.Fatal)
	}
}

func recipientFrameOf(id uint64, dest func(r *backupProto.Recipient)) *backupProto.Recipient {
	r := &backupProto.Recipient{ID: id}
	dest(r)
	return r
}

func TestRestore(t *testing.T) {
	aci := types.NewACI()
	contact := func(contact *backupProto.Contact) func(r *backupProto.Recipient) {
		return func(r *backupProto.Recipient) {
			r.Destination = &backupProto.Recipient_Contact{Contact: contact}
		}
	}
	testCases := []struct {
		name           string
		frame          *backupProto.Recipient
		expectedStatus archive.ResultStatus
		expectedProto  archive.ProtoError
	}{
		{"Contact", recipientFrameOf(2, contact(&backupProto.Contact{Aci: aci.Bytes(), E164: 15551234567})), archive.StatusSuccess, ""},
		{"Contact without identifiers", recipientFrameOf(2, contact(&backupProto.Contact{ProfileGivenName: "Nobody"})), archive.StatusCompleteFailure, archive.ProtoErrorContactWithoutIdentifiers},
		{"Invalid ACI", recipientFrameOf(2, contact(&backupProto.Contact{Aci: []byte{1, 2}})), archive.StatusCompleteFailure, archive.ProtoErrorInvalidACI},
		{"Invalid master key", recipientFrameOf(2, func(r *backupProto.Recipient) {
			r.Destination = &backupProto.Recipient_Group{Group: &backupProto.Group{MasterKey: random.Bytes(16)}}
		}), archive.StatusCompleteFailure, archive.ProtoErrorInvalidGroupMasterKey},
		{"Group with invalid member", recipientFrameOf(2, func(r *backupProto.Recipient) {
			r.Destination = &backupProto.Recipient_Group{Group: &backupProto.Group{
				MasterKey: random.Bytes(32),
				Snapshot: &backupProto.GroupSnapshot{Members: []*backupProto.GroupSnapshot_Member{
					{UserID: aci.Bytes()},
					{UserID: []byte("bad")},
				}},
			}}
		}), archive.StatusPartialSuccess, archive.ProtoErrorInvalidACI},
		{"Call link without root key", recipientFrameOf(2, func(r *backupProto.Recipient) {
			r.Destination = &backupProto.Recipient_CallLink{CallLink: &backupProto.CallLink{Name: "Link"}}
		}), archive.StatusCompleteFailure, archive.ProtoErrorInvalidCallLinkRootKey},
		{"Missing destination", &backupProto.Recipient{ID: 2}, archive.StatusCompleteFailure, archive.ProtoErrorMissingDestination},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestContainer(t)
			rc := archive.NewRestoringContext(ctx, testLocal, nil)
			result := NewArchiver(c.Stores()).Restore(ctx, tc.frame, rc)
			if result.Status() != tc.expectedStatus {
				t.Fatalf("Expected %s, got %s: %v", tc.expectedStatus, result.Status(), result.Errors)
			}
			if tc.expectedProto != "" && (len(result.Errors) != 1 || result.Errors[0].ProtoError != tc.expectedProto) {
				t.Errorf("Expected one %s error, got %v", tc.expectedProto, result.Errors)
			}
			_, bound := rc.Recipients.Lookup(2)
			if bound != (tc.expectedStatus != archive.StatusCompleteFailure) {
				t.Errorf("Unexpected binding state %t", bound)
			}
		})
	}
}

func TestRestoreSelfAndDuplicates(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	a := NewArchiver(c.Stores())
	rc := archive.NewRestoringContext(ctx, testLocal, nil)
	self := recipientFrameOf(1, func(r *backupProto.Recipient) {
		r.Destination = &backupProto.Recipient_Self{Self: &backupProto.Self{}}
	})
	if result := a.Restore(ctx, self, rc); result.Status() != archive.StatusSuccess {
		t.Fatalf("Failed to restore self: %v", result.Errors)
	}
	if rc.LocalRecipientID != 1 {
		t.Errorf("Expected local recipient ID 1, got %d", rc.LocalRecipientID)
	}
	local, err := c.FetchRecipient(ctx, testLocal.ACI, types.PNI{}, "")
	if err != nil || local == nil {
		t.Fatalf("Expected local recipient row to be created, got %v / %v", local, err)
	}
	addr, _ := rc.Recipients.Lookup(1)
	if addr.Kind != archive.AddressLocal || addr.UniqueID != local.UniqueID {
		t.Errorf("Unexpected local address %+v", addr)
	}
	result := a.Restore(ctx, self, rc)
	if result.Status() != archive.StatusCompleteFailure || result.Errors[0].Type != archive.RestoreErrorDuplicateID {
		t.Errorf("Expected duplicate ID failure, got %s: %v", result.Status(), result.Errors)
	}
}

func TestRestoreMergesExistingContact(t *testing.T) {
	ctx := context.Background()
	c := newTestContainer(t)
	existing := &types.Recipient{ACI: types.NewACI(), GivenName: "Old name"}
	if err := c.PutRecipient(ctx, existing); err != nil {
		t.Fatalf("Failed to put recipient: %v", err)
	}
	pni := types.NewPNI()
	frame := recipientFrameOf(5, func(r *backupProto.Recipient) {
		r.Destination = &backupProto.Recipient_Contact{Contact: &backupProto.Contact{
			Aci:              existing.ACI.Bytes(),
			Pni:              pni.Bytes(),
			ProfileGivenName: "New name",
			Blocked:          true,
		}}
	})
	rc := archive.NewRestoringContext(ctx, testLocal, nil)
	if result := NewArchiver(c.Stores()).Restore(ctx, frame, rc); result.Status() != archive.StatusSuccess {
		t.Fatalf("Failed to restore contact: %v", result.Errors)
	}
	merged, err := c.GetRecipient(ctx, existing.UniqueID)
	if err != nil {
		t.Fatalf("Failed to get recipient: %v", err)
	}
	expected := &types.Recipient{UniqueID: existing.UniqueID, ACI: existing.ACI, PNI: pni, GivenName: "New name", Blocked: true}
	if diff := cmp.Diff(expected, merged); diff != "" {
		t.Errorf("Unexpected recipient (-want +got):\n%s", diff)
	}
}
