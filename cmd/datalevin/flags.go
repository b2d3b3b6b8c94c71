// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dirFlag = cli.StringFlag{
		Name:  "dir",
		Usage: "directory of the environment",
		Value: "./data",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity (0-4)",
		Value: 3,
	}
	reverseFlag = cli.BoolFlag{
		Name:  "reverse",
		Usage: "scan in reverse key order",
	}
	batchFlag = cli.IntFlag{
		Name:  "batch",
		Usage: "ops per write batch",
		Value: 1000,
	}
)
