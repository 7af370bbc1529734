package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tagtime/internal/core/tags"
	"tagtime/internal/core/version"
	"tagtime/internal/modkit"
	"tagtime/internal/platform/config"
	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	"tagtime/internal/platform/store"
	tim "tagtime/internal/platform/time"

	lemod "tagtime/internal/services/logexport/module"
	pmod "tagtime/internal/services/pings/module"
)

const usage = `usage: tagtime <command> [flags]

commands:
  init                       create or upgrade the ping log schema
  preview  [-n 10]           upcoming ping times after the stored frontier
  pending  [-limit 20]       due pings still waiting for tags
  answer   -seed S tags...   tag a ping (no tags skips it)
  verify                     compare the stored log with the schedule
  repair                     insert scheduled pings missing from the log
  log      -since T [-until T]   print classic log lines
  export   -since T [-until T]   mirror the log into clickhouse
  version                    print build info
`

type app struct {
	pings  pmod.Ports
	export lemod.Ports
	loc    *time.Location
	out    io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if os.Args[1] == "version" {
		fmt.Println(version.Info())
		return
	}
	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "cli"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.FromStore(*l, root, st)
	pings, err := pmod.New(deps, pmod.FromConfig(root))
	if err != nil {
		l.Fatal().Err(err).Msg("pings module failed")
	}
	leOpts, err := lemod.FromConfig(root)
	if err != nil {
		l.Fatal().Err(err).Msg("logexport options")
	}
	export, err := lemod.New(deps, pings.Typed(), leOpts)
	if err != nil {
		l.Fatal().Err(err).Msg("logexport module failed")
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd != "init" {
		// every command works against an up to date schema
		if _, err := pings.Migrate(ctx); err != nil {
			l.Fatal().Err(err).Msg("migrate failed")
		}
	}

	loc := leOpts.Location
	if loc == nil {
		loc = time.Local
	}
	a := &app{pings: pings.Typed(), export: export.Typed(), loc: loc, out: os.Stdout}
	switch cmd {
	case "init":
		n, merr := pings.Migrate(ctx)
		if merr == nil {
			fmt.Fprintf(a.out, "applied %d migrations\n", n)
		}
		err = merr
	default:
		err = a.run(ctx, cmd, args)
	}
	if err != nil {
		l.Error().Err(err).Str("cmd", cmd).Msg("command failed")
		if perr.IsCode(err, perr.ErrorCodeConsistency) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	var (
		n      = fs.Int("n", 10, "number of pings to preview")
		limit  = fs.Int("limit", 20, "max pings to list")
		seed   = fs.String("seed", "", "seed of the ping to answer")
		since  = fs.String("since", "", "window start: unix seconds, RFC3339 or YYYY-MM-DD")
		until  = fs.String("until", "", "window end (default now)")
		asJSON = fs.Bool("json", false, "print json instead of text")
	)
	if err := fs.Parse(args); err != nil {
		return perr.InvalidArgf("%s: %v", cmd, err)
	}

	switch cmd {
	case "preview":
		last, err := a.pings.Store.LastPing(ctx)
		if err != nil {
			return err
		}
		for _, p := range a.pings.Schedule.Preview(last.Point(), *n) {
			fmt.Fprintf(a.out, "%d  %s\n", p.Seed, p.Time.In(a.loc).Format(time.DateTime))
		}
		return nil

	case "pending":
		ps, err := a.pings.Store.Unanswered(ctx, time.Now(), *limit)
		if err != nil {
			return err
		}
		for _, p := range ps {
			fmt.Fprintf(a.out, "%d  %s\n", p.Seed, p.Time.In(a.loc).Format(time.DateTime))
		}
		return nil

	case "answer":
		s, err := strconv.ParseUint(*seed, 10, 64)
		if err != nil || s == 0 {
			return perr.InvalidArgf("answer: -seed must be a positive integer")
		}
		raw := tags.Split(strings.Join(fs.Args(), " "))
		if len(raw) == 0 {
			_, err := a.pings.Store.IsAnswered(ctx, s)
			return err
		}
		if err := a.pings.Store.RecordAnswer(ctx, s, raw); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d  %s\n", s, strings.Join(tags.CanonicalSet(raw), " "))
		return nil

	case "verify":
		rep, err := a.pings.Auditor.Verify(ctx)
		if err != nil {
			return err
		}
		if *asJSON {
			return json.NewEncoder(a.out).Encode(rep)
		}
		fmt.Fprintf(a.out, "checked %d  missing %d  unscheduled %d  divergent %d\n",
			rep.Checked, len(rep.Missing), len(rep.Unscheduled), len(rep.Divergent))
		if len(rep.Divergent) > 0 {
			return perr.Consistencyf("verify: %d pings diverge from the schedule", len(rep.Divergent))
		}
		return nil

	case "repair":
		inserted, err := a.pings.Auditor.Repair(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "inserted %d pings\n", inserted)
		return nil

	case "log", "export":
		from, to, err := window(*since, *until, a.loc)
		if err != nil {
			return err
		}
		if cmd == "log" {
			_, err = a.export.Exporter.WriteLog(ctx, a.out, from, to)
			return err
		}
		got, err := a.export.Exporter.ExportRange(ctx, from, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "mirrored %d pings\n", got)
		return nil
	}
	return perr.InvalidArgf("unknown command %q\n%s", cmd, usage)
}

func window(since, until string, loc *time.Location) (time.Time, time.Time, error) {
	if since == "" {
		return time.Time{}, time.Time{}, perr.InvalidArgf("-since is required")
	}
	from, err := tim.ParseInstant(since, loc)
	if err != nil {
		return from, from, perr.InvalidArgf("-since: %v", err)
	}
	to := time.Now()
	if until != "" {
		if to, err = tim.ParseInstant(until, loc); err != nil {
			return from, to, perr.InvalidArgf("-until: %v", err)
		}
	}
	return from, to, nil
}
