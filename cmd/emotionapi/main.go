package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the CLI. Everything after the first "--" is kept verbatim as
// texts for predict; the flag parser stops at the first empty argument, so
// empty texts cannot travel as ordinary arguments.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	args, texts := splitTexts(args)
	app := newApp(texts)
	app.Reader = stdin
	app.Writer = stdout
	return app.Run(ctx, args)
}

// splitTexts cuts args at the first "--". texts is nil when there is none.
func splitTexts(args []string) (cliArgs, texts []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], append([]string{}, args[i+1:]...)
		}
	}
	return args, nil
}

func newApp(texts []string) *cli.Command {
	return &cli.Command{
		Name:  "emotionapi",
		Usage: "serve a fitted text emotion classifier over HTTP and gRPC",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "load the artifacts and serve POST /predict/",
				Flags:  commonFlags(),
				Action: serveAction,
			},
			{
				Name:      "predict",
				Usage:     "predict the emotion of each text after --, or of each stdin line when none is given",
				ArgsUsage: "[-- text...]",
				Flags:     commonFlags(),
				Action:    predictAction(texts),
			},
			{
				Name:   "inspect",
				Usage:  "load both artifacts, check they fit together and print a summary",
				Flags:  commonFlags(),
				Action: inspectAction,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML config file path",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "environment file path",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "vectorizer",
			Usage: "vectorizer artifact path (overrides config)",
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "classifier artifact path (overrides config)",
		},
	}
}
