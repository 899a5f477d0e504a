package cmd

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/modules/collectible/ledger"
	"github.com/gaze-network/collectible-ledger/pkg/decimals"
	"github.com/spf13/cobra"
)

type priceCmdOptions struct {
	From uint64
	To   uint64
}

func NewPriceCommand() *cobra.Command {
	opts := &priceCmdOptions{}

	cmd := &cobra.Command{
		Use:     "price [N]",
		Short:   "Print the claim price of the N-th item, or of every item in range",
		Args:    cobra.MaximumNArgs(1),
		Example: `collectible price 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				n, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return errors.Wrap(err, "failed to parse N")
				}
				opts.From, opts.To = n, n
			}
			return priceHandler(opts, cmd)
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&opts.From, "from", 1, "First claim number to print")
	flags.Uint64Var(&opts.To, "to", ledger.MaxSupply, "Last claim number to print")

	return cmd
}

func priceHandler(opts *priceCmdOptions, cmd *cobra.Command) error {
	if opts.From > opts.To {
		return errors.Newf("--from (%d) must not be greater than --to (%d)", opts.From, opts.To)
	}
	for n := opts.From; n <= opts.To; n++ {
		price, err := ledger.Price(n)
		if err != nil {
			return errors.WithStack(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", n, decimals.FormatAmount(price, ledger.NativeDecimals))
	}
	return nil
}
