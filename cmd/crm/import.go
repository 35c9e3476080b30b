package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/renewal-crm/crm"
	"github.com/warp/renewal-crm/spreadsheet"
)

var previewOnly bool

var importCmd = &cobra.Command{
	Use:   "import FILE.xlsx",
	Short: "Import clients and policies from a workbook",
	Long: `Read the first sheet of an .xlsx workbook and write it to the database.

Required columns: name, phone, policy_no, insurer, policy_type, issued_date,
expiry_date. Optional: email, premium, notes. Header case does not matter.

A row whose phone matches an existing client updates that client's name and
email; every row appends a new policy.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&previewOnly, "preview", false, "show the first rows without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	sheet, err := spreadsheet.ReadSheet(f)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reconciler := crm.NewReconciler(store, logger)
	out := cmd.OutOrStdout()

	if previewOnly {
		preview, err := reconciler.Preview(sheet, 10)
		if err != nil {
			return err
		}
		for _, row := range preview.Rows {
			fmt.Fprintf(out, "%4d  %-24s %-16s %-12s %s\n", row.Line, row.Name, row.Phone, row.PolicyNo, row.ExpiryDate)
		}
		fmt.Fprintf(out, "%d rows ready to import\n", preview.Total)
		return nil
	}

	result, err := reconciler.Import(cmd.Context(), sheet)
	if err != nil {
		return fmt.Errorf("import stopped after %d rows: %w", result.Rows, err)
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
	fmt.Fprintf(out, "Imported %d rows (%d new clients, %d updated)\n",
		result.Rows, result.ClientsCreated, result.ClientsUpdated)
	return nil
}
