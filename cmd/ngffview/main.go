// Command-line interface to the ngffview tile service.
// Provides a web front end over a chunked multiscale image pyramid.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/overlay"
	"github.com/flyvis/ngffview/server"
	"github.com/flyvis/ngffview/source"
	"github.com/flyvis/ngffview/storage"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Address for http communication, overriding the TOML setting.
	httpAddress = flag.String("http", "", "")
)

const helpMessage = `
ngffview serves chunked multiscale image pyramids as pan/zoom viewer tiles

Usage: ngffview [options] <command>

      -http       =string   Address for HTTP communication, overrides config.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	info   <source ref>     Print pyramid geometry and levels as JSON.
	serve  <config.toml>    Serve tiles per the TOML configuration.

A source ref is a bucket URL (file://, gs://, s3://) or a http(s) base URL
holding the multiscale descriptor and its level arrays.
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if *runVerbose {
		ngffview.Verbose = true
		ngffview.SetLogMode(ngffview.DebugMode)
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if err := doCommand(flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func doCommand(args []string) error {
	switch strings.ToLower(args[0]) {
	case "help":
		flag.Usage()
		return nil
	case "about":
		fmt.Println("ngffview: multiscale pyramid tile service")
		return nil
	case "info":
		if len(args) < 2 {
			return fmt.Errorf("info command requires a source ref")
		}
		return doInfo(args[1])
	case "serve":
		if len(args) < 2 {
			return fmt.Errorf("serve command requires a TOML config path")
		}
		return doServe(args[1])
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func doInfo(ref string) error {
	ctx := context.Background()
	store, err := storage.Open(ctx, ref)
	if err != nil {
		return err
	}
	defer store.Close()

	adapter := source.New(store, source.Config{})
	if err := adapter.Initialize(ctx); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(adapter.Geometry())
}

func doServe(configPath string) error {
	config, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	config.Logging.SetLogger()
	defer ngffview.Shutdown()

	ctx := context.Background()
	store, err := storage.Open(ctx, config.Source.Ref)
	if err != nil {
		return err
	}
	defer store.Close()

	adapter := source.New(store, config.Source.Config)
	if err := adapter.Initialize(ctx); err != nil {
		return err
	}

	address := config.Server.HTTPAddress
	if *httpAddress != "" {
		address = *httpAddress
	}
	service := server.NewService(adapter, overlay.NewAnnotations(), config.Server.CORSOrigins)
	return service.Serve(address)
}
