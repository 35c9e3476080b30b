package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/renewal-crm/crm"
)

var (
	notifyWindow   int
	notifyTemplate string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send renewal reminders over WhatsApp",
	Long: `Send one reminder to every client whose policy expires within --window days.

Placeholders: {name} {policy_no} {insurer} {expiry}. Use {{ and }} for
literal braces. Without Twilio credentials the messages are only logged.

There is no de-duplication: running this twice messages everyone twice.`,
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().IntVarP(&notifyWindow, "window", "w", 30, "days ahead, inclusive")
	notifyCmd.Flags().StringVarP(&notifyTemplate, "template", "t", crm.DefaultTemplate, "message template")
}

func runNotify(cmd *cobra.Command, args []string) error {
	// Reject a bad template before touching the database.
	if _, err := crm.ParseTemplate(notifyTemplate); err != nil {
		return err
	}

	due, err := loadDue(cmd, notifyWindow)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(due) == 0 {
		fmt.Fprintln(out, "Nothing to send.")
		return nil
	}

	notifier := crm.NewNotifier(newGateway(), crm.WithLogger(logger))
	summary, err := notifier.Notify(cmd.Context(), due, notifyTemplate)
	if err != nil {
		return err
	}

	for _, o := range summary.Outcomes {
		if o.Status == crm.DeliveryFailed {
			fmt.Fprintf(out, "failed  %-24s %-16s %s: %v\n", o.ClientName, o.Phone, o.PolicyNo, o.Err)
		}
	}
	if summary.DryRun() {
		fmt.Fprintf(out, "[SIMULATION MODE] Prepared %d messages (no provider credentials set).\n", summary.Simulated)
	} else {
		fmt.Fprintf(out, "Sent %d messages.\n", summary.Sent)
	}
	if summary.Failed > 0 {
		fmt.Fprintf(out, "Failed %d messages. Check numbers / provider logs.\n", summary.Failed)
	}
	fmt.Fprintf(out, "batch %s\n", summary.BatchID)
	return nil
}
