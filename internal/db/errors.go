// Copyright (c) 2026 Pelagios
// Driftwatch - NOAA BuoyCAM gallery builder
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "errors"

// ErrNotFound is returned when a lookup matches no row. Callers that treat
// absence as a normal outcome should test with errors.Is.
var ErrNotFound = errors.New("db: not found")

// ErrDuplicate is returned when an insert collides with an existing row,
// e.g. adding a station ID that is already in the catalog.
var ErrDuplicate = errors.New("db: duplicate entry")
