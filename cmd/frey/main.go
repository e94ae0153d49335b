package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rbmacd/frey/pkg/inventory/netbox"
	"github.com/rbmacd/frey/pkg/plan"
	"github.com/rbmacd/frey/pkg/seed"
	"github.com/rbmacd/frey/pkg/topology"
	"github.com/rbmacd/frey/pkg/version"
	slogmulti "github.com/samber/slog-multi"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogger(verbose bool, logFile string) error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logConsole := os.Stdout

	handlers := []slog.Handler{
		tint.NewHandler(logConsole, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    !isatty.IsTerminal(logConsole.Fd()),
		}),
	}

	if logFile != "" {
		handlers = append(handlers, slog.NewTextHandler(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    5, // MB
			MaxBackups: 4,
			MaxAge:     30, // days
			Compress:   true,
		}, &slog.HandlerOptions{
			Level: logLevel,
		}))
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))

	return nil
}

func netboxClient(insecure bool) (*netbox.Client, error) {
	netboxURL := os.Getenv("NETBOX_URL")
	if netboxURL == "" {
		return nil, errors.New("NETBOX_URL environment variable is not set")
	}

	netboxToken := os.Getenv("NETBOX_APITOKEN")
	if netboxToken == "" {
		return nil, errors.New("NETBOX_APITOKEN environment variable is not set")
	}

	if insecure {
		slog.Warn("SSL certificate verification is disabled")
	}

	return netbox.New(netboxURL, netboxToken, insecure)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var verbose bool
	verboseFlag := &cli.BoolFlag{
		Name:        "verbose",
		Aliases:     []string{"v"},
		Usage:       "verbose output (includes debug)",
		Destination: &verbose,
	}

	var topoFile string
	topologyFlag := &cli.StringFlag{
		Name:        "topology",
		Aliases:     []string{"t"},
		Usage:       "path to the ContainerLab topology file",
		Required:    true,
		Destination: &topoFile,
	}

	var logFile string
	logFileFlag := &cli.StringFlag{
		Name:        "log-file",
		Usage:       "log to this file in addition to the console, empty to disable",
		Value:       "frey.log",
		Destination: &logFile,
	}

	var noSSLVerify bool
	noSSLVerifyFlag := &cli.BoolFlag{
		Name:        "no-ssl-verify",
		Usage:       "disable SSL certificate verification (insecure)",
		Destination: &noSSLVerify,
	}

	var yes bool
	yesFlag := &cli.BoolFlag{
		Name:        "yes",
		Aliases:     []string{"y"},
		Usage:       "assume yes",
		Destination: &yes,
	}
	yesCheck := func(_ *cli.Context) error {
		if !yes {
			return cli.Exit("Potentially dangerous operation. Please confirm with --yes if you're sure.", 1)
		}

		return nil
	}

	outputTypes := []string{}
	for _, t := range plan.OutputTypes {
		outputTypes = append(outputTypes, string(t))
	}

	var output string
	outputFlag := &cli.StringFlag{
		Name:        "output",
		Aliases:     []string{"o"},
		Usage:       "output format, one of " + strings.Join(outputTypes, ", "),
		Value:       string(plan.OutputTypeText),
		Destination: &output,
	}

	cli.VersionFlag.(*cli.BoolFlag).Aliases = []string{"V"}
	app := &cli.App{
		Name:                   "frey",
		Usage:                  "ContainerLab topology to NetBox fabric planner and seeder",
		Version:                version.Version,
		Suggest:                true,
		UseShortOptionHandling: true,
		EnableBashCompletion:   true,
		Commands: []*cli.Command{
			{
				Name:  "plan",
				Usage: "compute the EVPN/VXLAN addressing plan without touching the inventory",
				Flags: []cli.Flag{
					verboseFlag,
					topologyFlag,
					outputFlag,
				},
				Before: func(_ *cli.Context) error {
					return setupLogger(verbose, "")
				},
				Action: func(_ *cli.Context) error {
					topo, err := topology.Load(topoFile)
					if err != nil {
						return errors.Wrap(err, "failed to load topology")
					}

					fabricPlan, err := plan.Build(ctx, topo, plan.DefaultNumbering())
					if err != nil {
						return errors.Wrap(err, "failed to build plan")
					}

					rendered, err := fabricPlan.Render(plan.OutputType(output))
					if err != nil {
						return errors.Wrap(err, "failed to render plan")
					}

					fmt.Println(rendered)

					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "seed the NetBox inventory from a topology file",
				Flags: []cli.Flag{
					verboseFlag,
					topologyFlag,
					logFileFlag,
					noSSLVerifyFlag,
				},
				Before: func(_ *cli.Context) error {
					return setupLogger(verbose, logFile)
				},
				Action: func(_ *cli.Context) error {
					slog.Info("Seeding", "version", version.Version, "topology", topoFile)

					topo, err := topology.Load(topoFile)
					if err != nil {
						return errors.Wrap(err, "failed to load topology")
					}

					inv, err := netboxClient(noSSLVerify)
					if err != nil {
						return errors.Wrap(err, "failed to create netbox client")
					}
					if err := inv.Ping(ctx); err != nil {
						return errors.Wrap(err, "failed to connect to netbox")
					}

					seeder := &seed.Seeder{
						Inv:       inv,
						Numbering: plan.DefaultNumbering(),
					}
					if _, err := seeder.Run(ctx, topo); err != nil {
						return errors.Wrap(err, "failed to seed inventory")
					}

					return nil
				},
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(_ *cli.Context) error {
					fmt.Println(version.Version)

					return nil
				},
			},
			{
				Name:  "purge",
				Usage: "delete ALL objects from the NetBox inventory (lab use only)",
				Flags: []cli.Flag{
					verboseFlag,
					logFileFlag,
					noSSLVerifyFlag,
					yesFlag,
				},
				Before: func(cCtx *cli.Context) error {
					if err := yesCheck(cCtx); err != nil {
						return err
					}

					return setupLogger(verbose, logFile)
				},
				Action: func(_ *cli.Context) error {
					inv, err := netboxClient(noSSLVerify)
					if err != nil {
						return errors.Wrap(err, "failed to create netbox client")
					}

					if err := inv.Purge(ctx); err != nil {
						return errors.Wrap(err, "failed to purge inventory")
					}

					slog.Info("Inventory purged")

					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Failed", "error", err.Error())
		os.Exit(1) //nolint:gocritic
	}
}
