// Command cmsloader loads Webiny CMS posts into the local content store and
// serves a preview of them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/eringen/cmsloader"
)

// version is set at build time via ldflags.
var version = "dev"

type options struct {
	cmsloader.Settings
}

var opts options

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file provided")
	}

	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = "Webiny CMS content loader"
	parser.AddCommand("load", "Load all published posts",
		"Replaces every CMS entry in the store with the current published posts.", &loadCommand{})
	parser.AddCommand("refresh", "Reload one post",
		"Fetches a single post by slug and upserts its entry.", &refreshCommand{})
	parser.AddCommand("authors", "Load all authors",
		"Replaces the stored authors with every CMS author.", &authorsCommand{})
	parser.AddCommand("local", "Load local markdown files",
		"Replaces the local entries with the markdown files under a directory.", &localCommand{})
	parser.AddCommand("export", "Export entries as markdown",
		"Writes every stored entry to a directory as a markdown file with front matter.", &exportCommand{})
	parser.AddCommand("serve", "Run the preview server",
		"Serves the stored entries with RSS, sitemap, JSON API and an admin page.", &serveCommand{})
	parser.AddCommand("version", "Print the version", "Print the cmsloader version.", &versionCommand{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// open opens the store and builds a loader from the global options.
func open() (*cmsloader.Store, *cmsloader.Loader, *log.Logger, error) {
	logger := cmsloader.NewLogger(opts.Debug)
	if err := os.MkdirAll(filepath.Dir(opts.DatabasePath), 0o755); err != nil {
		return nil, nil, nil, err
	}
	store, err := cmsloader.NewStore(opts.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}
	loader := cmsloader.New(store,
		cmsloader.WithLogger(logger),
		cmsloader.WithImageProbe(opts.ProbeImages),
	)
	return store, loader, logger, nil
}

type loadCommand struct{}

func (c *loadCommand) Execute(args []string) error {
	store, loader, _, err := open()
	if err != nil {
		return err
	}
	defer store.Close()
	return loader.Load(context.Background())
}

type refreshCommand struct {
	Args struct {
		Slug string `positional-arg-name:"slug" description:"Post slug"`
	} `positional-args:"yes" required:"yes"`
}

func (c *refreshCommand) Execute(args []string) error {
	store, loader, _, err := open()
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = loader.Refresh(context.Background(), c.Args.Slug)
	return err
}

type authorsCommand struct{}

func (c *authorsCommand) Execute(args []string) error {
	store, loader, _, err := open()
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = loader.LoadAuthors(context.Background())
	return err
}

type localCommand struct {
	Args struct {
		Dir string `positional-arg-name:"dir" description:"Directory of .md and .mdx files"`
	} `positional-args:"yes" required:"yes"`
}

func (c *localCommand) Execute(args []string) error {
	store, loader, _, err := open()
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = loader.LoadLocal(context.Background(), c.Args.Dir)
	return err
}

type exportCommand struct {
	Args struct {
		Dir string `positional-arg-name:"dir" description:"Output directory"`
	} `positional-args:"yes" required:"yes"`
}

func (c *exportCommand) Execute(args []string) error {
	store, _, logger, err := open()
	if err != nil {
		return err
	}
	defer store.Close()
	n, err := store.Export(context.Background(), c.Args.Dir)
	if err != nil {
		return err
	}
	logger.Infof("Exported %d entries to %s", n, c.Args.Dir)
	return nil
}

type serveCommand struct {
	cmsloader.ServerConfig
	LoadOnStart bool `long:"load" env:"CMSLOADER_LOAD_ON_START" description:"Load posts from the CMS before serving"`
}

func (c *serveCommand) Execute(args []string) error {
	_, loader, logger, err := open()
	if err != nil {
		return err
	}
	srv, err := cmsloader.NewServer(c.ServerConfig, loader, cmsloader.WithServerLogger(logger))
	if err != nil {
		loader.Store().Close()
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.LoadOnStart {
		if err := loader.Load(ctx); err != nil {
			logger.Warnf("Initial load failed: %v", err)
		}
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Infof("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type versionCommand struct{}

func (c *versionCommand) Execute(args []string) error {
	fmt.Printf("cmsloader %s\n", version)
	return nil
}
