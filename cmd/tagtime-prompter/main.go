package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tagtime/internal/adapters/notify"
	"tagtime/internal/adapters/notify/chann"
	"tagtime/internal/adapters/notify/logn"
	"tagtime/internal/adapters/notify/zmqpub"
	"tagtime/internal/core/tags"
	"tagtime/internal/modkit"
	"tagtime/internal/platform/config"
	perr "tagtime/internal/platform/errors"
	"tagtime/internal/platform/logger"
	"tagtime/internal/platform/store"

	pmod "tagtime/internal/services/pings/module"
	prdom "tagtime/internal/services/prompter/domain"
	prmod "tagtime/internal/services/prompter/module"
)

func main() {
	root := config.New()
	ncfg := root.Prefix("CORE_NOTIFY_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "prompter"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.FromStore(*l, root, st)

	pings, err := pmod.New(deps, pmod.FromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("pings module failed")
	}
	if _, err := pings.Migrate(ctx); err != nil {
		l.Panic().Err(err).Msg("migrate failed")
	}
	pmod.Register(pings)

	// notification targets: log always, plus zmq and/or the terminal
	targets := []prdom.Notifier{logn.New(logger.Named("notify"))}
	var term *chann.Notifier
	for _, kind := range ncfg.MayCSV("KINDS", []string{"log"}) {
		switch strings.ToLower(kind) {
		case "log":
		case "zmq":
			pub, err := zmqpub.Open(ncfg.MayString("ZMQ_ENDPOINT", "tcp://127.0.0.1:5556"))
			if err != nil {
				l.Panic().Err(err).Msg("zmq publisher failed")
			}
			defer func() { _ = pub.Close() }()
			targets = append(targets, pub)
		case "term":
			term = chann.New(ncfg.MayInt("TERM_BUFFER", 8))
			targets = append(targets, term)
		default:
			l.Panic().Str("kind", kind).Msg("unknown CORE_NOTIFY_KINDS entry (log, zmq, term)")
		}
	}

	pr, err := prmod.New(deps, pings.Typed(), notify.Fanout(targets...), prmod.FromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("prompter module failed")
	}
	prmod.Register(pr)
	prompter := pr.Typed().Prompter

	// SIGHUP asks for an immediate wake, e.g. after resuming from sleep
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				l.Info().Msg("SIGHUP: wake requested")
				prompter.Trigger()
			}
		}
	}()

	if term != nil {
		go answerLoop(ctx, prompter, term, os.Stdin, os.Stdout)
	}

	err = prompter.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		l.Info().Msg("prompter stopped")
	case perr.IsCode(err, perr.ErrorCodeConsistency):
		l.Error().Err(err).Msg("ping log diverges from the schedule; run `tagtime verify`")
		os.Exit(2)
	default:
		l.Fatal().Err(err).Msg("prompter failed")
	}
}

// dueQueue is the receive side of the terminal notifier
type dueQueue interface {
	Next(ctx context.Context) (prdom.Due, error)
}

// answerLoop asks on out for every due ping and records the line read from in
// an empty line skips the ping; pings answered meanwhile are not asked again
func answerLoop(ctx context.Context, p prdom.PrompterPort, due dueQueue, in io.Reader, out io.Writer) {
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		d, err := due.Next(ctx)
		if err != nil {
			return
		}
		answered, err := p.IsAnswered(ctx, d.Seed)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Uint64("seed", d.Seed).Msg("answered check failed")
		}
		if answered {
			continue
		}

		fmt.Fprintf(out, "\nping! %s  what are you doing right now?\n> ", d.Time.Local().Format(time.DateTime))
		var line string
		select {
		case <-ctx.Done():
			return
		case s, ok := <-lines:
			if !ok {
				return
			}
			line = s
		}

		raw := tags.Split(line)
		a := prdom.Answer{Seed: d.Seed, Tags: raw, Skip: len(raw) == 0}
		if err := p.Answer(ctx, a); err != nil {
			logger.C(ctx).Warn().Err(err).Uint64("seed", d.Seed).Msg("answer not recorded")
			fmt.Fprintf(out, "not recorded: %v\n", err)
			continue
		}
		if !a.Skip {
			fmt.Fprintf(out, "recorded %s\n", strings.Join(tags.CanonicalSet(raw), " "))
		}
	}
}
