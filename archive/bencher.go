// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	waLog "go.mau.fi/msgbackup/util/log"
)

type FrameKind string

const (
	FrameKindRecipient   FrameKind = "recipient"
	FrameKindChat        FrameKind = "chat"
	FrameKindChatItem    FrameKind = "chat_item"
	FrameKindStickerPack FrameKind = "sticker_pack"
	FrameKindAdHocCall   FrameKind = "ad_hoc_call"
	FrameKindUnknown     FrameKind = "unknown"
)

type Direction string

const (
	DirectionExport Direction = "export"
	DirectionImport Direction = "import"
)

var (
	framesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msgbackup_frames_processed_total",
		Help: "Total number of backup frames processed by direction and frame kind",
	}, []string{"direction", "kind"})

	frameDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "msgbackup_frame_duration_seconds",
		Help:    "Time spent processing a single backup frame",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"direction", "kind"})

	passDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "msgbackup_pass_duration_seconds",
		Help:    "Time to run a whole backup export or import",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
	}, []string{"direction", "status"})
)

// FrameStats contains the accumulated cost of processing frames of one kind.
type FrameStats struct {
	Count int
	Total time.Duration
	Max   time.Duration
}

// Bencher measures the cost of processing frames and doubles as the cancellation checkpoint.
type Bencher struct {
	ctx       context.Context
	direction Direction
	start     time.Time
	stats     map[FrameKind]*FrameStats
}

// NewBencher creates a bencher for one pass. Checkpoint will return ErrCancelled once ctx is done.
func NewBencher(ctx context.Context, direction Direction) *Bencher {
	return &Bencher{
		ctx:       ctx,
		direction: direction,
		start:     time.Now(),
		stats:     make(map[FrameKind]*FrameStats),
	}
}

// Checkpoint returns ErrCancelled if the pass has been cancelled.
func (b *Bencher) Checkpoint() error {
	if b.ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(b.ctx))
	}
	return nil
}

// BeginFrame starts timing a frame. The returned function must be called when the frame is done.
func (b *Bencher) BeginFrame(kind FrameKind) func() {
	start := time.Now()
	return func() {
		b.record(kind, time.Since(start))
	}
}

func (b *Bencher) record(kind FrameKind, dur time.Duration) {
	stats, ok := b.stats[kind]
	if !ok {
		stats = &FrameStats{}
		b.stats[kind] = stats
	}
	stats.Count++
	stats.Total += dur
	stats.Max = max(stats.Max, dur)
	framesProcessedTotal.WithLabelValues(string(b.direction), string(kind)).Inc()
	frameDurationHistogram.WithLabelValues(string(b.direction), string(kind)).Observe(dur.Seconds())
}

// Stats returns a copy of the stats of the given frame kind.
func (b *Bencher) Stats(kind FrameKind) FrameStats {
	if stats, ok := b.stats[kind]; ok {
		return *stats
	}
	return FrameStats{}
}

// TotalFrames returns the number of frames of all kinds processed so far.
func (b *Bencher) TotalFrames() int {
	var total int
	for _, stats := range b.stats {
		total += stats.Count
	}
	return total
}

// Finish records the duration of the whole pass and logs the per-kind stats.
func (b *Bencher) Finish(log waLog.Logger, status ResultStatus) time.Duration {
	dur := time.Since(b.start)
	passDurationHistogram.WithLabelValues(string(b.direction), status.String()).Observe(dur.Seconds())
	kinds := make([]FrameKind, 0, len(b.stats))
	for kind := range b.stats {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	for _, kind := range kinds {
		stats := b.stats[kind]
		log.Debugf("Processed %d %s frames in %s (max %s)", stats.Count, kind, stats.Total, stats.Max)
	}
	log.Infof("Backup %s finished with %s in %s", b.direction, status, dur)
	return dur
}
