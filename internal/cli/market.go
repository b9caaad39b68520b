package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"nexusctl/internal/market"
	"nexusctl/internal/render"
	"nexusctl/internal/store"

	"github.com/spf13/cobra"
)

func newMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Crypto prices, sentiment and tracked wallets",
	}
	cmd.AddCommand(newMarketPricesCmd())
	cmd.AddCommand(newMarketFngCmd())
	cmd.AddCommand(newMarketWalletsCmd())
	return cmd
}

// openStore opens the local database and seeds the default wallet set on
// first use.
func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.StorePath)
	if err != nil {
		return nil, err
	}
	if err := st.SeedDefaultWallets(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func (a *app) marketService() (*market.Service, error) {
	return market.NewService(market.ServiceOpts{
		Backend: a.api,
		Logger:  a.logger,
	})
}

func newMarketPricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "Show spot prices for tracked coins",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			svc, err := a.marketService()
			if err != nil {
				return err
			}
			prices, err := svc.Prices(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COIN\tUSD\t24H")
			printCoin(w, "BTC", prices.Bitcoin.USD, prices.Bitcoin.USD24hChange)
			printCoin(w, "ETH", prices.Ethereum.USD, prices.Ethereum.USD24hChange)
			printCoin(w, "SOL", prices.Solana.USD, prices.Solana.USD24hChange)
			return w.Flush()
		},
	}
}

func printCoin(w *tabwriter.Writer, symbol string, usd, change float64) {
	delta := fmt.Sprintf("%+.2f%%", change)
	if change >= 0 {
		delta = render.OKStyle.Render(delta)
	} else {
		delta = render.ErrStyle.Render(delta)
	}
	fmt.Fprintf(w, "%s\t$%.2f\t%s\n", symbol, usd, delta)
}

func newMarketFngCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fng",
		Short: "Show the Fear & Greed index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			svc, err := a.marketService()
			if err != nil {
				return err
			}
			fng, err := svc.FearGreed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%d (%s)\n", fng.Value, fng.Classification)
			return nil
		},
	}
}

func newMarketWalletsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallets",
		Short: "Value the tracked wallet portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			wallets, err := st.Wallets()
			if err != nil {
				return err
			}
			svc, err := a.marketService()
			if err != nil {
				return err
			}
			portfolio, err := svc.Portfolio(cmd.Context(), wallets)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LABEL\tCHAIN\tBALANCE\tUSD")
			for _, entry := range portfolio.Wallets {
				if entry.Err != nil {
					fmt.Fprintf(w, "%s\t%s\t%s\t\n",
						entry.Wallet.Label, entry.Wallet.Chain, render.ErrStyle.Render("unavailable"))
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%.6f\t$%.2f\n",
					entry.Wallet.Label, entry.Wallet.Chain, entry.Balance, entry.USDValue)
			}
			fmt.Fprintf(w, "TOTAL\t\t\t$%.2f\n", portfolio.TotalUSD)
			return w.Flush()
		},
	}

	cmd.AddCommand(newWalletsAddCmd())
	cmd.AddCommand(newWalletsRemoveCmd())
	cmd.AddCommand(newWalletsListCmd())
	return cmd
}

func newWalletsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked wallets without valuing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			wallets, err := st.Wallets()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tCHAIN\tADDRESS")
			for _, wallet := range wallets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					render.IDStyle.Render(wallet.ID), wallet.Label, wallet.Chain, wallet.Address)
			}
			return w.Flush()
		},
	}
}

func newWalletsAddCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add <chain> <address>",
		Short: "Track a new wallet (chain: sol, eth or btc)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			wallet, err := st.AddWallet(args[0], args[1], label)
			if err != nil {
				return err
			}
			fmt.Printf("tracking %s wallet %s (%s)\n", wallet.Chain, wallet.Address, wallet.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Display label for the wallet")
	return cmd
}

func newWalletsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <wallet-id>",
		Short: "Stop tracking a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.RemoveWallet(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed %s: %s\n", args[0], render.OKStyle.Render("ok"))
			return nil
		},
	}
}
