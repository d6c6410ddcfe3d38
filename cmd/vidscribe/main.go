// Command vidscribe transcribes videos into timed transcripts.
//
// Usage:
//
//	vidscribe [-config config.yml] [-env .env] [serve]
//	vidscribe [-config config.yml] transcribe [-name NAME] VIDEO...
//
// serve (the default) runs the HTTP API and the inbox watcher until SIGINT
// or SIGTERM. transcribe runs the given files through the pipeline once and
// prints the resulting jobs as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/vidscribe/bootstrap"
	"github.com/kbukum/vidscribe/config"
	"github.com/kbukum/vidscribe/observability"
	"github.com/kbukum/vidscribe/version"
)

const serviceName = "vidscribe"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	configFile := fs.String("config", "", "path to the config file (default: search ./cmd/vidscribe, ./config, .)")
	envFile := fs.String("env", "", "path to a .env file")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.Get().String())
		return nil
	}

	cmd, rest := "serve", fs.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	var (
		files []string
		name  string
	)
	switch cmd {
	case "serve":
	case "transcribe":
		tfs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
		tfs.StringVar(&name, "name", "", "transcript name (default: derived from the file name)")
		if err := tfs.Parse(rest); err != nil {
			return err
		}
		files = tfs.Args()
		if len(files) == 0 {
			return errors.New("transcribe: at least one video file is required")
		}
		if name != "" && len(files) > 1 {
			return errors.New("transcribe: -name needs exactly one file")
		}
	default:
		return fmt.Errorf("unknown command %q (want serve or transcribe)", cmd)
	}

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().String()
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	shutdown, err := observability.Setup(ctx, cfg.Observability, observability.Service{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	}, app.Logger)
	if err != nil {
		return err
	}
	app.OnStop(bootstrap.Hook(shutdown))

	svc, err := newService(app, cmd == "serve")
	if err != nil {
		return err
	}

	if cmd == "serve" {
		return app.Run(ctx)
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		return transcribeFiles(ctx, svc.runner, files, name, os.Stdout)
	})
}
