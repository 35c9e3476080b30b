package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/renewal-crm/crm"
	"github.com/warp/renewal-crm/spreadsheet"
)

var (
	windowDays int
	exportPath string
)

var renewalsCmd = &cobra.Command{
	Use:   "renewals",
	Short: "List policies expiring within a window",
	RunE:  runRenewals,
}

func init() {
	renewalsCmd.Flags().IntVarP(&windowDays, "window", "w", 30, "days ahead, inclusive")
	renewalsCmd.Flags().StringVarP(&exportPath, "export", "o", "", "write the list to an .xlsx file (use - for renewals_{window}d.xlsx)")
}

func runRenewals(cmd *cobra.Command, args []string) error {
	due, err := loadDue(cmd, windowDays)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if exportPath != "" {
		path := exportPath
		if path == "-" {
			path = spreadsheet.RenewalsFilename(windowDays)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := spreadsheet.WriteRenewals(f, due); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d policies to %s\n", len(due), path)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPIRY\tCLIENT\tPHONE\tPOLICY\tINSURER\tTYPE")
	for _, p := range due {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ExpiryDate, p.ClientName, p.ClientPhone, p.PolicyNo, p.Insurer, p.PolicyType)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d policies due in the next %d days\n", len(due), windowDays)
	return nil
}

// loadDue opens the store and returns the due set sorted by expiry.
func loadDue(cmd *cobra.Command, window int) ([]crm.PolicyView, error) {
	if window < 0 {
		return nil, errors.New("--window must not be negative")
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	policies, err := store.ListPolicies(cmd.Context())
	if err != nil {
		return nil, err
	}
	due := crm.SelectDue(policies, window, crm.Today())
	crm.SortByExpiry(due)
	return due, nil
}
