package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/reviewrisk"
)

var errNoVisitDate = errors.New("no visit date found")

func newDateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "date <text>",
		Short: "Print the visit date found in a review text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, ok := reviewrisk.ExtractVisitDate(strings.Join(args, " "))
			if !ok {
				return errNoVisitDate
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), date)
			return nil
		},
	}
}
