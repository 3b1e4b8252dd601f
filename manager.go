// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package msgbackup implements exporting and importing message backups as a stream of frames.
package msgbackup

import (
	"context"
	"fmt"

	"go.mau.fi/msgbackup/archive/adhoccall"
	"go.mau.fi/msgbackup/archive/chat"
	"go.mau.fi/msgbackup/archive/chatitem"
	"go.mau.fi/msgbackup/archive/recipient"
	"go.mau.fi/msgbackup/archive/stickerpack"
	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
	waLog "go.mau.fi/msgbackup/util/log"
)

// SupportedBackupVersion is the only backup info version that Import accepts.
const SupportedBackupVersion = 1

// RestoreState tracks whether a backup has been imported into the database.
type RestoreState string

const (
	RestoreStateNone        RestoreState = ""
	RestoreStateUnfinalized RestoreState = "unfinalized"
	RestoreStateFinalized   RestoreState = "finalized"
)

const restoreStateKey = "restore_state"

// Manager exports the contents of the stores into backup streams and imports them back.
type Manager struct {
	Stores store.AllStores
	Local  types.LocalIdentifiers
	Log    waLog.Logger

	// OnPhase is called from the goroutine running Export or Import whenever the pass enters a new phase.
	OnPhase OnPhaseFunc

	recipients   *recipient.Archiver
	chats        *chat.Archiver
	chatItems    *chatitem.Archiver
	stickerPacks *stickerpack.Archiver
	adHocCalls   *adhoccall.Archiver
}

// NewManager creates a backup manager for the given account.
//
// Every store in AllStores must be set. A default SQL-backed implementation is available in the sqlstore package.
//
// The logger can be nil, it will default to a no-op logger.
func NewManager(stores store.AllStores, local types.LocalIdentifiers, log waLog.Logger) *Manager {
	if log == nil {
		log = waLog.Noop
	}
	return &Manager{
		Stores: stores,
		Local:  local,
		Log:    log,

		recipients:   recipient.NewArchiver(stores),
		chats:        chat.NewArchiver(stores),
		chatItems:    chatitem.NewArchiver(stores),
		stickerPacks: stickerpack.NewArchiver(stores),
		adHocCalls:   adhoccall.NewArchiver(stores),
	}
}

// GetRestoreState returns whether a backup has been imported and finalized.
func (m *Manager) GetRestoreState(ctx context.Context) (RestoreState, error) {
	val, err := m.Stores.KeyValue.GetValue(ctx, restoreStateKey)
	if err != nil {
		return RestoreStateNone, fmt.Errorf("failed to get restore state: %w", err)
	}
	return RestoreState(val), nil
}

func (m *Manager) setRestoreState(ctx context.Context, state RestoreState) error {
	err := m.Stores.KeyValue.SetValue(ctx, restoreStateKey, string(state))
	if err != nil {
		return fmt.Errorf("failed to set restore state: %w", err)
	}
	return nil
}

// FinalizeImport marks a previously imported backup as finalized.
//
// Finalizing should happen after everything that depends on the restored data (like re-registering
// with the restored identity) is done. Import can't be called again afterwards.
func (m *Manager) FinalizeImport(ctx context.Context) error {
	return m.Stores.Transactor.DoTxn(ctx, func(ctx context.Context) error {
		state, err := m.GetRestoreState(ctx)
		if err != nil {
			return err
		} else if state != RestoreStateUnfinalized {
			return fmt.Errorf("%w (state: %q)", ErrNothingToFinalize, state)
		}
		err = m.setRestoreState(ctx, RestoreStateFinalized)
		if err != nil {
			return err
		}
		m.Log.Infof("Backup import finalized")
		return nil
	})
}

// NewStickerPackDownloader creates a runner that downloads the sticker packs queued by Import.
func (m *Manager) NewStickerPackDownloader(downloader stickerpack.Downloader) *stickerpack.DownloadQueueRunner {
	return stickerpack.NewDownloadQueueRunner(m.Stores, downloader, m.Log.Sub("StickerDownload"))
}
