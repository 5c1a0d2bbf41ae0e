package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ayo6706/payment-notification/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReconcileText(w io.Writer, report reconcileReport) error {
	counts := map[domain.OutcomeStatus]int{}
	for _, o := range report.Outcomes {
		counts[o.Status]++
	}
	fmt.Fprintf(w, "%s %d item(s): %d applied, %d skipped, %d failed\n",
		report.NotificationResponse, len(report.Outcomes),
		counts[domain.OutcomeApplied], counts[domain.OutcomeSkipped], counts[domain.OutcomeFailed])

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tREFERENCE\tEVENT\tTYPE\tSTATE\tSTATUS\tREASON")
	for i, o := range report.Outcomes {
		reason := o.Reason
		if o.Err != nil {
			reason = fmt.Sprintf("%s (%v)", reason, o.Err)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, dash(o.PaymentReference), dash(o.ProviderEventID), dash(string(o.TransactionType)),
			dash(string(o.State)), o.Status, dash(reason))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range report.Payments {
		fmt.Fprintf(w, "\npayment %s version %d\n", p.Key, p.Version)
		for _, tx := range p.Transactions {
			fmt.Fprintf(w, "  %-20s %-8s %s\n", tx.Type, tx.State, tx.Amount)
		}
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
