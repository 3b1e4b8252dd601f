// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sqlstore

import (
	"context"
)

const (
	getValueQuery = `SELECT value FROM msgbackup_kv WHERE key=$1`
	setValueQuery = `
		INSERT INTO msgbackup_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value=excluded.value
	`
)

func (c *Container) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	val, err := queryOne(ctx, c.db, func(row scannable) (*string, error) {
		return &value, row.Scan(&value)
	}, getValueQuery, key)
	if err != nil || val == nil {
		return "", err
	}
	return *val, nil
}

func (c *Container) SetValue(ctx context.Context, key, value string) error {
	_, err := c.db.Exec(ctx, setValueQuery, key, value)
	return err
}
