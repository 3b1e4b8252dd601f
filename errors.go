// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package msgbackup

import (
	"errors"
)

// Errors that Manager.Export can return
var (
	ErrMissingLocalIdentifiers = errors.New("local account identifiers are required")
	ErrExportFailed            = errors.New("backup export failed")
)

// Errors that Manager.Import and Manager.FinalizeImport can return
var (
	ErrAlreadyRestored     = errors.New("a backup has already been restored")
	ErrNothingToFinalize   = errors.New("there is no unfinalized backup restore")
	ErrUnsupportedVersion  = errors.New("unsupported backup version")
	ErrInvalidBackupHeader = errors.New("failed to read backup info header")
	ErrMalformedStream     = errors.New("backup stream is malformed")
	ErrFrameRestoreFailed  = errors.New("failed to restore backup frame")
)

// Errors that LoadConfig can return
var (
	ErrInvalidConfig = errors.New("invalid config")
)
