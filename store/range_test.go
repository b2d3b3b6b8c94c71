// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"testing"
)

func TestRangeInfo(t *testing.T) {
	tests := []struct {
		rt   RangeType
		want rangeInfo
	}{
		{All, rangeInfo{true, false, false, false, false}},
		{AllBack, rangeInfo{false, false, false, false, false}},
		{AtLeast, rangeInfo{true, true, true, false, false}},
		{AtLeastBack, rangeInfo{false, true, true, false, false}},
		{AtMost, rangeInfo{true, false, false, true, true}},
		{AtMostBack, rangeInfo{false, false, false, true, true}},
		{Closed, rangeInfo{true, true, true, true, true}},
		{ClosedBack, rangeInfo{false, true, true, true, true}},
		{ClosedOpen, rangeInfo{true, true, true, true, false}},
		{ClosedOpenBack, rangeInfo{false, true, true, true, false}},
		{GreaterThan, rangeInfo{true, true, false, false, false}},
		{GreaterThanBack, rangeInfo{false, true, false, false, false}},
		{LessThan, rangeInfo{true, false, false, true, false}},
		{LessThanBack, rangeInfo{false, false, false, true, false}},
		{OpenRange, rangeInfo{true, true, false, true, false}},
		{OpenBack, rangeInfo{false, true, false, true, false}},
		{OpenClosed, rangeInfo{true, true, false, true, true}},
		{OpenClosedBack, rangeInfo{false, true, false, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.rt.String(), func(t *testing.T) {
			if got := tt.rt.info(); got != tt.want {
				t.Errorf("info(%s) = %+v, want %+v", tt.rt, got, tt.want)
			}
		})
	}
}

func TestRangeInfoUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown range type")
		}
	}()
	RangeType(99).info()
}
