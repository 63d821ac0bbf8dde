// Package main is an entrypoint for application
package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/jessevdk/go-flags"
	"golang.org/x/exp/slog"

	"github.com/Semior001/newsdeck/app/cmd"
	"github.com/Semior001/newsdeck/pkg/logx"
)

var opts struct {
	Server    cmd.Server    `command:"server" description:"run web server"`
	Bot       cmd.Bot       `command:"bot" description:"run telegram bot"`
	Search    cmd.Search    `command:"search" description:"search news"`
	Category  cmd.Category  `command:"category" description:"show news of the category"`
	Bookmarks cmd.Bookmarks `command:"bookmarks" subcommands-optional:"true" description:"manage bookmarks"`

	NewsAPI cmd.NewsAPIGroup `group:"newsapi" namespace:"newsapi" env-namespace:"NEWSAPI"`
	Store   cmd.StoreGroup   `group:"store" namespace:"store" env-namespace:"STORE"`
	Reader  cmd.ReaderGroup  `group:"reader" namespace:"reader" env-namespace:"READER"`

	Location string `long:"location" env:"LOCATION" default:"Asia/Jakarta" description:"time zone to show dates in"`
	JSONLogs bool   `long:"json-logs" env:"JSON_LOGS" description:"turn on json logs"`
	Debug    bool   `long:"dbg" env:"DEBUG" description:"turn on debug mode"`
}

var version = "unknown"

func getVersion() string {
	v, ok := debug.ReadBuildInfo()
	if !ok || v.Main.Version == "(devel)" || v.Main.Version == "" {
		return version
	}
	return v.Main.Version
}

func main() {
	fmt.Fprintf(os.Stderr, "newsdeck, version: %s\n", getVersion())

	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(command flags.Commander, args []string) error {
		setupLog()

		loc, err := time.LoadLocation(opts.Location)
		if err != nil {
			slog.Error("failed to load location", slog.String("location", opts.Location), slog.Any("err", err))
			os.Exit(1)
		}

		if c, ok := command.(interface{ SetCommon(cmd.CommonOpts) }); ok {
			c.SetCommon(cmd.CommonOpts{
				NewsAPI:  opts.NewsAPI,
				Store:    opts.Store,
				Reader:   opts.Reader,
				Location: loc,
				Version:  getVersion(),
			})
		}

		if err := command.Execute(args); err != nil {
			slog.Error("failed to execute command", slog.Any("err", err))
			os.Exit(1)
		}

		return nil
	}

	// after failure command does not return non-zero code
	if _, err := p.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			os.Exit(1)
		}
	}
}

func setupLog() {
	handler := slog.HandlerOptions{Level: slog.LevelInfo}

	if opts.Debug {
		handler.Level = slog.LevelDebug
		handler.AddSource = true
	}

	var base slog.Handler = handler.NewTextHandler(os.Stderr)
	if opts.JSONLogs {
		base = handler.NewJSONHandler(os.Stderr)
	}

	slog.SetDefault(slog.New(&logx.Chain{
		Middleware: []logx.Middleware{logx.RequestID},
		Handler:    base,
	}))
}
