// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import "github.com/pkg/errors"

var (
	// ErrNotOpen is returned for operations on a closed environment.
	ErrNotOpen = errors.New("environment is not open")
	// ErrUnknownDBI is returned when a dbi name is not registered.
	ErrUnknownDBI = errors.New("unknown dbi")
)

// IsUnknownDBI reports whether err is an unknown-dbi failure.
func IsUnknownDBI(err error) bool { return errors.Is(err, ErrUnknownDBI) }
