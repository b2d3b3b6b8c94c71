// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/hendursaga/datalevin/metrics"
)

var (
	metricPoolRTXs    = metrics.LazyLoadGauge("rtx_pool_size")
	metricPoolWaits   = metrics.LazyLoadCounter("rtx_pool_wait_count")
	metricMapResizes  = metrics.LazyLoadCounter("map_resize_count")
	metricReadOps     = metrics.LazyLoadCounterVec("read_op_count", []string{"op"})
	metricTransactOps = metrics.LazyLoadHistogram("transact_op_count", metrics.BucketBatchSize)
)
