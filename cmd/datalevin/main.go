// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/inconshreveable/log15"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/hendursaga/datalevin/codec"
	"github.com/hendursaga/datalevin/store"
)

var (
	version   string
	gitCommit string
	log       = log15.New()
)

func fullVersion() string {
	if version == "" {
		return "dev"
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "datalevin",
		Usage:     "inspect and load key-value environments",
		Copyright: "2026 The Datalevin developers",
		Flags: []cli.Flag{
			dirFlag,
			verbosityFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "stat",
				Usage:  "print environment info",
				Action: statAction,
			},
			{
				Name:      "entries",
				Usage:     "print the entry count of a dbi",
				ArgsUsage: "<dbi>",
				Action:    entriesAction,
			},
			{
				Name:      "get",
				Usage:     "print the value of a key",
				ArgsUsage: "<dbi> <key>",
				Action:    getAction,
			},
			{
				Name:      "scan",
				Usage:     "print all pairs of a dbi, optionally bounded",
				ArgsUsage: "<dbi> [start] [stop]",
				Flags:     []cli.Flag{reverseFlag},
				Action:    scanAction,
			},
			{
				Name:      "load",
				Usage:     "bulk-load tab-separated key/value lines",
				ArgsUsage: "<dbi> <file>",
				Flags:     []cli.Flag{batchFlag},
				Action:    loadAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger(ctx *cli.Context) {
	logLevel := ctx.GlobalInt(verbosityFlag.Name)
	log15.Root().SetHandler(log15.LvlFilterHandler(
		log15.Lvl(logLevel),
		log15.StderrHandler))
}

func openEnv(ctx *cli.Context) (*store.Env, error) {
	initLogger(ctx)
	return store.Open(ctx.GlobalString(dirFlag.Name), nil)
}

func statAction(ctx *cli.Context) error {
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	info, err := env.Info()
	if err != nil {
		return err
	}
	fmt.Println("dir:        ", env.Dir())
	fmt.Println("map size:   ", info.MapSize)
	fmt.Println("readers:    ", info.NumReaders)
	fmt.Println("max readers:", info.MaxReaders)
	return nil
}

func entriesAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("entries expects <dbi>", 1)
	}
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	name := ctx.Args().Get(0)
	if _, err := env.OpenDBI(name); err != nil {
		return err
	}
	n, err := env.Entries(name)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func getAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError("get expects <dbi> <key>", 1)
	}
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	name := ctx.Args().Get(0)
	if _, err := env.OpenDBI(name); err != nil {
		return err
	}
	v, err := env.GetValueData(name, ctx.Args().Get(1))
	if err != nil {
		return err
	}
	if v == nil {
		return cli.NewExitError("not found", 1)
	}
	fmt.Printf("%s\n", v)
	return nil
}

func scanAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.NewExitError("scan expects <dbi> [start] [stop]", 1)
	}
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	name := ctx.Args().Get(0)
	if _, err := env.OpenDBI(name); err != nil {
		return err
	}

	kr := scanRange(ctx)
	pairs, err := env.GetRange(name, kr, codec.Data, codec.Data, false)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		fmt.Printf("%s\t%s\n", p.K, p.V)
	}
	return nil
}

// scanRange maps the optional start/stop args onto a range variant.
func scanRange(ctx *cli.Context) store.KeyRange {
	var (
		back  = ctx.Bool(reverseFlag.Name)
		start = ctx.Args().Get(1)
		stop  = ctx.Args().Get(2)
	)
	switch {
	case start != "" && stop != "":
		if back {
			return store.KeyRange{Type: store.ClosedBack, Start: start, Stop: stop}
		}
		return store.KeyRange{Type: store.Closed, Start: start, Stop: stop}
	case start != "":
		if back {
			return store.KeyRange{Type: store.AtLeastBack, Start: start}
		}
		return store.KeyRange{Type: store.AtLeast, Start: start}
	default:
		if back {
			return store.KeyRange{Type: store.AllBack}
		}
		return store.KeyRange{Type: store.All}
	}
}

func loadAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.NewExitError("load expects <dbi> <file>", 1)
	}
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	name := ctx.Args().Get(0)
	if _, err := env.OpenDBI(name); err != nil {
		return err
	}

	f, err := os.Open(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	bar := pb.New64(st.Size()).
		SetUnits(pb.U_BYTES).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	var (
		batchSize = ctx.Int(batchFlag.Name)
		batch     = make([]store.Op, 0, batchSize)
		loaded    int64
		scanner   = bufio.NewScanner(f)
	)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		bar.Add64(int64(len(line) + 1))
		k, v, ok := strings.Cut(line, "\t")
		if !ok || k == "" {
			continue
		}
		batch = append(batch, store.Put(name, k, v))
		if len(batch) >= batchSize {
			if err := env.Transact(batch); err != nil {
				return err
			}
			loaded += int64(len(batch))
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := env.Transact(batch); err != nil {
			return err
		}
		loaded += int64(len(batch))
	}
	bar.Finish()
	log.Info("loaded", "dbi", name, "entries", loaded)
	return nil
}
