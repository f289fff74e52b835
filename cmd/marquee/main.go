package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dusk-indust/marquee/internal/config"
	"github.com/dusk-indust/marquee/internal/consumer"
	"github.com/dusk-indust/marquee/internal/content"
	"github.com/dusk-indust/marquee/internal/logging"
	"github.com/dusk-indust/marquee/internal/site"
	"github.com/dusk-indust/marquee/internal/sitedata"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	LogLevel    string
	LogFormat   string
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: marquee [flags] <command> [args]

commands:
  play <href>...     open the first page, then follow each href in turn
  status [href]      open a page, let it enter, print its stages
  export             print the configured timelines (-format mermaid|json)
  init               write marquee.yml and sample content
  serve              run the MCP tools on stdio, or HTTP with -http addr
  watch              print stage changes from a running 'serve -http'
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("marquee", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.ProjectRoot, "config", ".", "directory holding marquee.yml and the content directory")
	fs.StringVar(&flags.LogLevel, "log-level", "", "log level override: debug, info, warn, error")
	fs.StringVar(&flags.LogFormat, "log-format", "", "log format override: text or json")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("no command given")
	}
	cmd, cmdArgs := rest[0], rest[1:]

	// init runs before the project exists; watch only talks to a server.
	switch cmd {
	case "init":
		return runInit(flags.ProjectRoot, cmdArgs, stdout)
	case "watch":
		return runWatch(ctx, cmdArgs, stdout)
	}

	p, err := loadProject(ctx, flags, stderr)
	if err != nil {
		return err
	}

	switch cmd {
	case "play":
		return runPlay(ctx, p, cmdArgs, stdout)
	case "status":
		return runStatus(ctx, p, cmdArgs, stdout)
	case "export":
		return runExport(p, cmdArgs, stdout)
	case "serve":
		return runServe(ctx, p, cmdArgs)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// project is everything a command needs from the working directory.
type project struct {
	cfg     *config.SiteConfig
	records []content.Record
	logger  *slog.Logger
	sink    logging.Sink
}

func loadProject(ctx context.Context, flags cliFlags, stderr io.Writer) (*project, error) {
	cfg, err := config.Load(flags.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.LogFormat = flags.LogFormat
	}
	logger, _ := logging.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)

	var fsys fs.FS = os.DirFS(flags.ProjectRoot)
	dir := cfg.ContentDir
	if _, err := os.Stat(filepath.Join(flags.ProjectRoot, dir)); err != nil {
		logger.Debug("content directory missing, using built-in sample", "dir", dir)
		fsys, dir = sitedata.ContentFS(), "."
	}
	records, err := content.NewFSSource(fsys, dir).Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no published pages in %s", cfg.ContentDir)
	}

	return &project{
		cfg:     cfg,
		records: records,
		logger:  logger,
		sink:    logging.NewSlogSink(logger),
	}, nil
}

// newSite builds a site that logs to the project sink and to every extra sink.
func (p *project) newSite(extra ...logging.Sink) (*site.Site, error) {
	sink := p.sink
	if len(extra) > 0 {
		sink = logging.Tee(append([]logging.Sink{p.sink}, extra...)...)
	}
	return site.New(p.cfg, p.records, &consumer.TimerAnimator{}, sink)
}
