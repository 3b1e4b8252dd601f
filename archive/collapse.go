// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package archive

import (
	"github.com/rs/zerolog"

	waLog "go.mau.fi/msgbackup/util/log"
)

// CollapsedError is a group of errors that share a collapse key.
type CollapsedError struct {
	Example LoggableError
	Count   int
	// IDs contains the log strings of up to MaxCollapsedIDs affected identifiers.
	IDs []string
}

const MaxCollapsedIDs = 5

// Collapse groups errors by their collapse key, preserving the order in which each key was first seen.
func Collapse[E LoggableError](errs []E) []*CollapsedError {
	if len(errs) == 0 {
		return nil
	}
	byKey := make(map[string]*CollapsedError)
	var out []*CollapsedError
	for _, err := range errs {
		key := err.CollapseKey()
		collapsed, ok := byKey[key]
		if !ok {
			collapsed = &CollapsedError{Example: err}
			byKey[key] = collapsed
			out = append(out, collapsed)
		}
		collapsed.Count++
		if len(collapsed.IDs) < MaxCollapsedIDs {
			collapsed.IDs = append(collapsed.IDs, err.IDLogString())
		}
	}
	return out
}

// Summary counts the issues of a whole pass.
type Summary struct {
	Issues        int
	DroppedFrames int
	DistinctKinds int
}

// Summarize counts the errors in the given collapsed list.
func Summarize(collapsed []*CollapsedError, droppedFrames int) Summary {
	s := Summary{DroppedFrames: droppedFrames, DistinctKinds: len(collapsed)}
	for _, c := range collapsed {
		s.Issues += c.Count
	}
	return s
}

// LogCollapsed logs each collapsed error at the level of its example.
func LogCollapsed(log waLog.Logger, collapsed []*CollapsedError) {
	for _, c := range collapsed {
		ex := c.Example
		switch ex.LogLevel() {
		case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
			log.Errorf("%s at %s, %d times (example IDs: %v)", ex.TypeLogString(), ex.CallsiteLogString(), c.Count, c.IDs)
		case zerolog.WarnLevel:
			log.Warnf("%s at %s, %d times (example IDs: %v)", ex.TypeLogString(), ex.CallsiteLogString(), c.Count, c.IDs)
		case zerolog.InfoLevel:
			log.Infof("%s at %s, %d times (example IDs: %v)", ex.TypeLogString(), ex.CallsiteLogString(), c.Count, c.IDs)
		default:
			log.Debugf("%s at %s, %d times (example IDs: %v)", ex.TypeLogString(), ex.CallsiteLogString(), c.Count, c.IDs)
		}
	}
}
