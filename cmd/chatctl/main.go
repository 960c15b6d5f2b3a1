// Command chatctl talks to the Agora gRPC service.
//
//	chatctl [-addr host:port] [-user name] <command> [args]
//
// Commands:
//
//	health
//	channels
//	create-channel NAME
//	history CHANNEL [COUNTER]
//	post CHANNEL TEXT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"Agora/internal/grpcclient"
	"Agora/internal/models"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage: chatctl [-addr host:port] [-user name] health|channels|create-channel|history|post [args]")

type options struct {
	addr    string
	user    string
	level   string
	timeout time.Duration
	command string
	args    []string
}

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatctl: %v\n", err)
	}
	os.Exit(code)
}

func run(argv []string, out io.Writer) (int, error) {
	opts, err := parseArgs(argv)
	if err != nil {
		return exitUsage, err
	}

	client, err := grpcclient.NewChatClient(opts.addr, logs.GetLoggerFromString(opts.level))
	if err != nil {
		return exitRuntime, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if err := execute(ctx, client, opts, out); err != nil {
		if errors.Is(err, errUsage) {
			return exitUsage, err
		}
		return exitRuntime, err
	}
	return exitOK, nil
}

func parseArgs(argv []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("chatctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.addr, "addr", envOr("AGORA_GRPC_ADDR", "localhost:9090"), "chat service address")
	fs.StringVar(&opts.user, "user", os.Getenv("USER"), "username used to post")
	fs.StringVar(&opts.level, "level", slog.LevelWarn.String(), "log level")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "overall timeout")
	if err := fs.Parse(argv); err != nil {
		return options{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return options{}, errUsage
	}
	opts.command = fs.Arg(0)
	opts.args = fs.Args()[1:]
	return opts, nil
}

// chatClient is the part of grpcclient.ChatClient the commands use.
type chatClient interface {
	Health(ctx context.Context) error
	ListChannels(ctx context.Context) ([]string, error)
	CreateChannel(ctx context.Context, name string) (string, error)
	InitialCounter(ctx context.Context, channel string) (int, error)
	GetMessages(ctx context.Context, channel string, counter int) ([]models.MessageView, error)
	AddMessage(ctx context.Context, username, channel, content string) error
}

func execute(ctx context.Context, client chatClient, opts options, out io.Writer) error {
	switch opts.command {
	case "health":
		if err := client.Health(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "SERVING")
		return nil

	case "channels":
		names, err := client.ListChannels(ctx)
		if err != nil {
			return err
		}
		renderChannels(out, names)
		return nil

	case "create-channel":
		if len(opts.args) != 1 {
			return fmt.Errorf("%w: create-channel NAME", errUsage)
		}
		name, err := client.CreateChannel(ctx, opts.args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %q\n", name)
		return nil

	case "history":
		if len(opts.args) < 1 || len(opts.args) > 2 {
			return fmt.Errorf("%w: history CHANNEL [COUNTER]", errUsage)
		}
		channel := opts.args[0]
		var counter int
		if len(opts.args) == 2 {
			n, err := strconv.Atoi(opts.args[1])
			if err != nil {
				return fmt.Errorf("%w: COUNTER must be an integer", errUsage)
			}
			counter = n
		} else {
			n, err := client.InitialCounter(ctx, channel)
			if err != nil {
				return err
			}
			counter = n
		}
		views, err := client.GetMessages(ctx, channel, counter)
		if err != nil {
			return err
		}
		renderMessages(out, views)
		return nil

	case "post":
		if len(opts.args) != 2 {
			return fmt.Errorf("%w: post CHANNEL TEXT", errUsage)
		}
		if opts.user == "" {
			return fmt.Errorf("%w: -user is required to post", errUsage)
		}
		return client.AddMessage(ctx, opts.user, opts.args[0], opts.args[1])

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, opts.command)
	}
}

func renderChannels(out io.Writer, names []string) {
	table := newTable(out)
	table.SetHeader([]string{"#", "Channel"})
	for i, name := range names {
		table.Append([]string{strconv.Itoa(i + 1), name})
	}
	table.Render()
}

func renderMessages(out io.Writer, views []models.MessageView) {
	table := newTable(out)
	table.SetHeader([]string{"Time", "User", "Message"})
	for _, v := range views {
		table.Append([]string{v.Time, v.UserName, v.Content})
	}
	table.Render()
}

func newTable(out io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
