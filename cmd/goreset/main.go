package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goRecover "github.com/MrEthical07/goRecover"
	"github.com/MrEthical07/goRecover/metrics/export/prometheus"
	"github.com/MrEthical07/goRecover/validate"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `usage:
  goreset [global flags] request -email <address>
  goreset [global flags] reset (-link <url> | -token <token>) [-password <pw> -confirm <pw>]

global flags:
  -env <path>     dotenv file to load (default .env)
  -redis <addr>   redis address for the request throttle (or REDIS_ADDR)
  -debug          development logging
  -events         print flow events as JSON lines on stderr
  -metrics        print metrics in Prometheus format on exit
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("goreset", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	var (
		envFile     = global.String("env", ".env", "dotenv file")
		redisAddr   = global.String("redis", "", "redis address")
		debug       = global.Bool("debug", false, "development logging")
		printEvents = global.Bool("events", false, "print flow events")
		showMetrics = global.Bool("metrics", false, "print metrics on exit")
	)
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return exitUsage
	}

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(stderr, "load %s: %v\n", *envFile, err)
		return exitUsage
	}
	cfg, err := configFromEnv(os.LookupEnv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitUsage
	}

	builder := goRecover.New().
		WithLogger(logger).
		WithNavigator(goRecover.NavigatorFunc(func(target goRecover.Target) {
			fmt.Fprintf(stdout, "next: %s\n", target)
		}))

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		defer rdb.Close()
		cfg.Throttle.Enabled = true
		builder = builder.WithRedis(rdb)
	}
	if *printEvents {
		cfg.Events.Enabled = true
		builder = builder.WithEventSink(goRecover.NewJSONWriterSink(stderr))
	}

	client, err := builder.WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var code int
	switch rest[0] {
	case "request":
		code = runRequest(ctx, client, rest[1:], stdout, stderr)
	case "reset":
		code = runReset(ctx, client, rest[1:], stdin, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		global.Usage()
		code = exitUsage
	}

	// Close drains queued events before metrics are read.
	client.Close()
	if *showMetrics {
		fmt.Fprint(stdout, prometheus.NewPrometheusExporter(client).Render())
	}
	return code
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func runRequest(ctx context.Context, client *goRecover.Client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	flow, err := client.NewRequestFlow()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	defer flow.Close()

	err = flow.Submit(ctx, *email)
	state := flow.State()
	if state.Message != "" {
		fmt.Fprintln(stdout, state.Message)
	}
	if err != nil {
		reportError(stderr, err)
		return exitFailure
	}
	return exitOK
}

func runReset(ctx context.Context, client *goRecover.Client, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		link     = fs.String("link", "", "reset link containing ?token=")
		token    = fs.String("token", "", "reset token")
		password = fs.String("password", "", "new password (prompted when empty)")
		confirm  = fs.String("confirm", "", "password confirmation (prompted when empty)")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	entry := goRecover.EntryContext{Token: *token}
	if *link != "" {
		var err error
		entry, err = goRecover.EntryFromURL(*link)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}

	flow, err := client.StartResetFlow(ctx, entry)
	if flow != nil {
		defer flow.Close()
	}
	if err != nil {
		reportError(stderr, err)
		return exitFailure
	}

	state, err := flow.AwaitVerification(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if state.Status != goRecover.ResetReady {
		fmt.Fprintln(stdout, state.Message)
		return exitFailure
	}
	fmt.Fprintf(stdout, "resetting password for %s\n", state.Email)

	lines := bufio.NewScanner(stdin)
	if *password == "" {
		*password = prompt(lines, stdout, "new password: ")
	}
	if *confirm == "" {
		*confirm = prompt(lines, stdout, "confirm password: ")
	}
	fmt.Fprintf(stdout, "estimated strength: %.0f bits\n", validate.PasswordEntropy(*password))

	if err := flow.Submit(ctx, *password, *confirm); err != nil {
		reportError(stderr, err)
		return exitFailure
	}
	fmt.Fprintln(stdout, flow.State().Message)
	return exitOK
}

func prompt(lines *bufio.Scanner, w io.Writer, label string) string {
	fmt.Fprint(w, label)
	if !lines.Scan() {
		return ""
	}
	return strings.TrimRight(lines.Text(), "\r")
}

func reportError(w io.Writer, err error) {
	var fe *goRecover.FlowError
	if errors.As(err, &fe) {
		fmt.Fprintf(w, "%s: %s\n", fe.Kind, fe.Message)
		if fe.RetryIn > 0 {
			fmt.Fprintf(w, "try again in %s\n", fe.RetryIn.Round(time.Second))
		}
		return
	}
	fmt.Fprintln(w, err)
}
