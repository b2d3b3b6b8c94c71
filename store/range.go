// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import "fmt"

// RangeType selects a key range variant. The Back variants walk the range
// in reverse key order.
type RangeType int

const (
	// All covers the whole key space.
	All RangeType = iota
	AllBack
	// AtLeast covers keys >= start.
	AtLeast
	AtLeastBack
	// AtMost covers keys <= stop.
	AtMost
	AtMostBack
	// Closed covers start <= key <= stop.
	Closed
	ClosedBack
	// ClosedOpen covers start <= key < stop.
	ClosedOpen
	ClosedOpenBack
	// GreaterThan covers keys > start.
	GreaterThan
	GreaterThanBack
	// LessThan covers keys < stop.
	LessThan
	LessThanBack
	// OpenRange covers start < key < stop.
	OpenRange
	OpenBack
	// OpenClosed covers start < key <= stop.
	OpenClosed
	OpenClosedBack
)

func (t RangeType) String() string {
	if int(t) < len(rangeNames) {
		return rangeNames[t]
	}
	return fmt.Sprintf("RangeType(%d)", int(t))
}

var rangeNames = [...]string{
	"all", "all-back",
	"at-least", "at-least-back",
	"at-most", "at-most-back",
	"closed", "closed-back",
	"closed-open", "closed-open-back",
	"greater-than", "greater-than-back",
	"less-than", "less-than-back",
	"open", "open-back",
	"open-closed", "open-closed-back",
}

// KeyRange is a range request: the variant plus its start/stop operands.
// Operands not named by the variant are ignored.
type KeyRange struct {
	Type  RangeType
	Start any
	Stop  any
}

// rangeInfo is the decoded 5-tuple of a range type.
type rangeInfo struct {
	forward      bool
	hasStart     bool
	includeStart bool
	hasStop      bool
	includeStop  bool
}

func (t RangeType) info() rangeInfo {
	switch t {
	case All:
		return rangeInfo{forward: true}
	case AllBack:
		return rangeInfo{}
	case AtLeast:
		return rangeInfo{forward: true, hasStart: true, includeStart: true}
	case AtLeastBack:
		return rangeInfo{hasStart: true, includeStart: true}
	case AtMost:
		return rangeInfo{forward: true, hasStop: true, includeStop: true}
	case AtMostBack:
		return rangeInfo{hasStop: true, includeStop: true}
	case Closed:
		return rangeInfo{forward: true, hasStart: true, includeStart: true, hasStop: true, includeStop: true}
	case ClosedBack:
		return rangeInfo{hasStart: true, includeStart: true, hasStop: true, includeStop: true}
	case ClosedOpen:
		return rangeInfo{forward: true, hasStart: true, includeStart: true, hasStop: true}
	case ClosedOpenBack:
		return rangeInfo{hasStart: true, includeStart: true, hasStop: true}
	case GreaterThan:
		return rangeInfo{forward: true, hasStart: true}
	case GreaterThanBack:
		return rangeInfo{hasStart: true}
	case LessThan:
		return rangeInfo{forward: true, hasStop: true}
	case LessThanBack:
		return rangeInfo{hasStop: true}
	case OpenRange:
		return rangeInfo{forward: true, hasStart: true, hasStop: true}
	case OpenBack:
		return rangeInfo{hasStart: true, hasStop: true}
	case OpenClosed:
		return rangeInfo{forward: true, hasStart: true, hasStop: true, includeStop: true}
	case OpenClosedBack:
		return rangeInfo{hasStart: true, hasStop: true, includeStop: true}
	}
	panic(fmt.Sprintf("store: unknown range type %d", int(t)))
}
