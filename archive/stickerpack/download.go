// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package stickerpack

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/types"
	waLog "go.mau.fi/msgbackup/util/log"
)

// Downloader fetches and decrypts a sticker pack manifest.
type Downloader interface {
	DownloadStickerPack(ctx context.Context, id types.StickerPackID, key types.StickerPackKey) (*types.StickerPack, error)
}

const (
	DefaultDownloadBatchSize = 10
	DefaultDownloadRate      = rate.Limit(2)
)

// DownloadQueueRunner drains the sticker pack download queue filled by restores.
//
// Packs that fail to download stay in the queue for the next run.
type DownloadQueueRunner struct {
	Queue      store.StickerPackDownloadStore
	Packs      store.StickerPackStore
	Downloader Downloader
	Limiter    *rate.Limiter
	BatchSize  int
	Log        waLog.Logger
}

func NewDownloadQueueRunner(stores store.AllStores, downloader Downloader, log waLog.Logger) *DownloadQueueRunner {
	if log == nil {
		log = waLog.Noop
	}
	return &DownloadQueueRunner{
		Queue:      stores.StickerPackDownloads,
		Packs:      stores.StickerPacks,
		Downloader: downloader,
		Limiter:    rate.NewLimiter(DefaultDownloadRate, 1),
		BatchSize:  DefaultDownloadBatchSize,
		Log:        log,
	}
}

// RunOnce tries to download every pack currently in the queue once.
func (r *DownloadQueueRunner) RunOnce(ctx context.Context) (downloaded, failed int, err error) {
	attempted := make(map[types.StickerPackID]struct{})
	for {
		var batch []*types.QueuedStickerPackDownload
		batch, err = r.Queue.PeekQueuedStickerPacks(ctx, len(attempted)+r.BatchSize)
		if err != nil {
			err = fmt.Errorf("failed to peek sticker pack download queue: %w", err)
			return
		}
		var progressed bool
		for _, queued := range batch {
			if _, ok := attempted[queued.PackID]; ok {
				continue
			}
			progressed = true
			attempted[queued.PackID] = struct{}{}
			if err = r.Limiter.Wait(ctx); err != nil {
				return
			}
			if dlErr := r.download(ctx, queued); dlErr != nil {
				r.Log.Warnf("Failed to download sticker pack %s: %v", queued.PackID.IDLogString(), dlErr)
				failed++
			} else {
				downloaded++
			}
		}
		if !progressed {
			return
		}
	}
}

func (r *DownloadQueueRunner) download(ctx context.Context, queued *types.QueuedStickerPackDownload) error {
	pack, err := r.Downloader.DownloadStickerPack(ctx, queued.PackID, queued.PackKey)
	if err != nil {
		return err
	}
	pack.PackID = queued.PackID
	pack.PackKey = queued.PackKey
	pack.Installed = true
	if err = r.Packs.PutStickerPack(ctx, pack); err != nil {
		return fmt.Errorf("failed to save sticker pack: %w", err)
	} else if err = r.Queue.RemoveQueuedStickerPack(ctx, queued.PackID); err != nil {
		return fmt.Errorf("failed to remove sticker pack from queue: %w", err)
	}
	r.Log.Debugf("Downloaded sticker pack %s (queued at %s)", queued.PackID.IDLogString(), queued.QueuedAt.Format(time.RFC3339))
	return nil
}

// Run calls RunOnce every interval until the context is cancelled.
func (r *DownloadQueueRunner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		downloaded, failed, err := r.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Log.Errorf("Sticker pack download run failed: %v", err)
		} else if downloaded > 0 || failed > 0 {
			r.Log.Infof("Downloaded %d queued sticker packs, %d failed", downloaded, failed)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
