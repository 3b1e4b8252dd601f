// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package waLog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestSub tests the propagation of sub module names.
func TestSub(t *testing.T) {
	for _, test := range []struct {
		existing string
		new      string
		want     string
	}{
		{existing: "", new: "", want: ""},
		{existing: "existing", new: "", want: "existing"},
		{existing: "", new: "new", want: "new"},
		{existing: "existing", new: "new", want: "existing/new"},
	} {
		if got := sub(test.existing, test.new); got != test.want {
			t.Errorf("sub(%q, %q) = %q, want %q", test.existing, test.new, got, test.want)
		}
	}
}

// TestShouldOutput tests the comparison of the verbosity level of a logger vs. that of a message.
func TestShouldOutput(t *testing.T) {
	for _, test := range []struct {
		loggerLevel  string
		messageLevel string
		want         bool
	}{
		{DebugLevel, DebugLevel, true},
		{DebugLevel, ErrorLevel, true},
		{InfoLevel, DebugLevel, false},
		{WarnLevel, InfoLevel, false},
		{WarnLevel, WarnLevel, true},
		{ErrorLevel, WarnLevel, false},
		{ErrorLevel, ErrorLevel, true},
	} {
		if got := shouldOutput(levelToInt[test.loggerLevel], test.messageLevel); got != test.want {
			t.Errorf("shouldOutput(%s, %s) = %v, want %v", test.loggerLevel, test.messageLevel, got, test.want)
		}
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Writer(&buf, "Backup", InfoLevel, false)
	log.Debugf("hidden %d", 1)
	log.Sub("Export").Warnf("visible %d", 2)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should have been filtered: %q", out)
	}
	if !strings.Contains(out, "[Backup/Export WARN] visible 2") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestZerologSub(t *testing.T) {
	var buf bytes.Buffer
	log := Zerolog(zerolog.New(&buf)).Sub("Import").Sub("Frames")
	log.Infof("restored %d frames", 3)
	out := buf.String()
	if !strings.Contains(out, `"sublogger":"Import/Frames"`) {
		t.Errorf("sublogger field missing from %q", out)
	}
	if !strings.Contains(out, "restored 3 frames") {
		t.Errorf("message missing from %q", out)
	}
}
