package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
)

// AuthClient is the subset of the gRPC client used by the CLI.
type AuthClient interface {
	Register(ctx context.Context, fullName, email, password, role string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context) (*client.Profile, error)
	SetAccessToken(token string)
	Close() error
}

var ErrUnknownCommand = errors.New("unknown command")

type App struct {
	config *config.Config
	client AuthClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, ac AuthClient, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: ac, reader: bufio.NewReader(in), out: out}
}

// Run executes the first non-flag argument as a subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.client.Close()

	switch command(args) {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "profile":
		return a.Profile(ctx)
	case "logout":
		return a.Logout()
	case "":
		a.usage()
		return nil
	default:
		a.usage()
		return ErrUnknownCommand
	}
}

// command skips the global flags (all of which take a value) and returns the
// subcommand name, if any.
func command(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if !strings.Contains(arg, "=") {
				i++
			}
			continue
		}
		return arg
	}
	return ""
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "usage: authkeeper [-a addr] [-t seconds] [-f tokenfile] <register|login|profile|logout>")
}
