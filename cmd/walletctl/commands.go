package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-wallet-client/internal/config"
	"github.com/jrsteele09/go-wallet-client/session"
	"github.com/jrsteele09/go-wallet-client/transfer"
)

func newRootCommand(app *app, c config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "walletctl",
		Short:         "Client for the custodial wallet service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(c.GetAppName())
			return cmd.Help()
		},
	}

	root.AddCommand(
		newLoginCommand(app),
		newSignupCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newWalletsCommand(app),
		newCreateCommand(app),
		newWalletCommand(app),
		newSendCommand(app),
	)

	return root
}

func newLoginCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Authenticate and store the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			if err := app.session.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", args[0])
			return nil
		},
	}
}

func newSignupCommand(app *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Create a new account (log in afterwards)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			msg, err := app.session.Signup(cmd.Context(), args[0], email, password)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "account created"
			}
			fmt.Printf("%s\nNow run: walletctl login %s\n", msg, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.session.Logout()
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := app.session.State()
			if state.Name == session.Anonymous {
				fmt.Println("Not logged in")
				return nil
			}

			fmt.Println("Logged in")
			// Best effort: tokens are opaque, but JWT claims are shown when
			// present. Unverified, display only.
			claims, err := session.Claims(state.Token)
			if err != nil {
				return nil
			}
			for _, key := range []string{"username", "sub", "exp"} {
				if v, ok := claims[key]; ok {
					fmt.Printf("  %s: %v\n", key, v)
				}
			}
			return nil
		},
	}
}

func newWalletsCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wallets",
		Short: "List wallets (refreshes from the backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := app.registry.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No wallets yet. Create one with: walletctl create <name>")
				return nil
			}
			for _, w := range list {
				fmt.Printf("%s\n  Public Key: %s\n  Balance: %s\n", w.Name, w.PublicKey, w.Balance)
			}
			return nil
		},
	}
}

func newCreateCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.registry.Create(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Wallet %q created\n", args[0])
			return nil
		},
	}
}

func newWalletCommand(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet <address>",
		Short: "Show a single wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := app.registry.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n  Public Key: %s\n  Balance: %s\n", w.Name, w.PublicKey, w.Balance)
			return nil
		},
	}
}

func newSendCommand(app *app) *cobra.Command {
	var from, to, value string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send funds from one of your wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.registry.Refresh(cmd.Context()); err != nil {
				return err
			}
			wallet, err := app.registry.Get(from)
			if err != nil {
				return fmt.Errorf("funding wallet %q: %w", from, err)
			}

			flow, err := transfer.NewFlow(app.gateway, wallet.PublicKey)
			if err != nil {
				return err
			}
			defer flow.Close()

			receipt, err := flow.Send(cmd.Context(), to, value)
			if err != nil {
				return err
			}

			fmt.Println("Transaction completed successfully!")
			fmt.Printf("  Transaction Hash: %s\n", receipt.TransactionHash)
			fmt.Printf("  From: %s -> To: %s\n", receipt.From, receipt.To)
			fmt.Printf("  Value: %s Wei\n", receipt.Value)
			fmt.Printf("  Gas Price: %s Wei\n", receipt.GasPrice)
			fmt.Printf("  Gas Used: %d\n", receipt.GasUsed)
			fmt.Printf("  Block Number: %d\n", receipt.BlockNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "public key of the funding wallet")
	cmd.Flags().StringVar(&to, "to", "", "recipient wallet address")
	cmd.Flags().StringVar(&value, "value", "", "amount in wei")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("value")
	return cmd
}
