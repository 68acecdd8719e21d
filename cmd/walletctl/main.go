package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-wallet-client/credentials"
	"github.com/jrsteele09/go-wallet-client/gateway"
	"github.com/jrsteele09/go-wallet-client/internal/config"
	"github.com/jrsteele09/go-wallet-client/session"
	"github.com/jrsteele09/go-wallet-client/wallets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	configureLogging(c)

	app, err := newApp(c)
	if err != nil {
		return err
	}

	return newRootCommand(app, c).Execute()
}

// app holds the wired client components shared by every subcommand.
type app struct {
	store    credentials.Store
	gateway  *gateway.Gateway
	session  *session.Controller
	registry *wallets.Registry
}

func newApp(c config.Config) (*app, error) {
	store := newStore(c)

	g, err := gateway.New(c.GetAPIBaseURL(), c.GetHTTPTimeout(), store)
	if err != nil {
		return nil, err
	}

	controller, err := session.New(store, g)
	if err != nil {
		return nil, err
	}

	registry, err := wallets.NewRegistry(g)
	if err != nil {
		return nil, err
	}

	bindSessionTeardown(g, controller, registry)

	return &app{store: store, gateway: g, session: controller, registry: registry}, nil
}

// bindSessionTeardown wires the teardown chain: any 401 tears the session
// down, and every session teardown (forced or explicit) discards the
// cached wallet list so protected data never outlives its session.
func bindSessionTeardown(g *gateway.Gateway, controller *session.Controller, registry *wallets.Registry) {
	g.OnUnauthorized(controller.ForceLogout)
	controller.Subscribe(func(s session.State) {
		if s.Name == session.Anonymous {
			registry.Invalidate()
		}
	})
}

func newStore(c config.Config) credentials.Store {
	if passphrase := c.GetCredentialsPassphrase(); passphrase != "" {
		return credentials.NewSecureStore(c.GetDataFolder(), passphrase)
	}
	return credentials.NewFileStore(c.GetDataFolder())
}

func configureLogging(c config.Config) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
