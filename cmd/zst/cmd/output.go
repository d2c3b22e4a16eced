package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	apiclient "github.com/donaldgifford/zara-stock-tracker/internal/api/client"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printProductTable(items []domain.TrackedItem) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID\tNAME\tPRODUCT\tSIZE\tREGION\tENABLED\tSTATUS\n")
	for i := range items {
		name := items[i].Name
		if name == "" {
			name = "-"
		}
		tw.writef("%s\t%s\t%s\t%s\t%s/%s\t%v\t%s\n",
			items[i].ID,
			truncate(name, 30),
			items[i].ProductKey,
			items[i].TargetSize,
			items[i].Country,
			items[i].Lang,
			items[i].Enabled,
			items[i].Status,
		)
	}
	return tw.finish()
}

func printProductDetail(item *domain.TrackedItem) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("ID:\t%s\n", item.ID)
	if item.Name != "" {
		tw.writef("Name:\t%s\n", item.Name)
	}
	tw.writef("Product Key:\t%s\n", item.ProductKey)
	tw.writef("Target Size:\t%s\n", item.TargetSize)
	tw.writef("Region:\t%s/%s\n", item.Country, item.Lang)
	tw.writef("Enabled:\t%v\n", item.Enabled)
	tw.writef("Status:\t%s\n", item.Status)
	tw.writef("Created:\t%s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
	if item.LastCheckedAt != nil {
		tw.writef("Last Checked:\t%s\n", item.LastCheckedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.finish()
}

func printSnapshot(snap *domain.StockSnapshot) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Observed:\t%s\n", snap.ObservedAt.Format("2006-01-02 15:04:05"))
	tw.writef("Price:\t%s\n", snap.DisplayPrice())
	if err := tw.finish(); err != nil {
		return err
	}

	sizes := make([]string, 0, len(snap.Sizes))
	for label := range snap.Sizes {
		sizes = append(sizes, label)
	}
	sort.Strings(sizes)

	tw = newTabWriter(os.Stdout)
	tw.writef("\nSIZE\tAVAILABILITY\n")
	for _, label := range sizes {
		tw.writef("%s\t%s\n", label, snap.Sizes[label])
	}
	return tw.finish()
}

func printPriceHistoryTable(points []domain.PricePoint) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("OBSERVED\tPRICE\n")
	for i := range points {
		tw.writef("%s\t%s\n",
			points[i].ObservedAt.Format("2006-01-02 15:04:05"),
			domain.FormatPrice(points[i].Price, points[i].Currency),
		)
	}
	return tw.finish()
}

func printCycleResult(cycle *domain.CycleResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Started:\t%s\n", cycle.StartedAt.Format("2006-01-02 15:04:05"))
	tw.writef("Finished:\t%s\n", cycle.FinishedAt.Format("2006-01-02 15:04:05"))
	tw.writef("Items:\t%d (%d succeeded, %d failed)\n",
		len(cycle.Results), cycle.Succeeded(), cycle.Failed())
	if err := tw.finish(); err != nil {
		return err
	}
	if len(cycle.Results) == 0 {
		return nil
	}

	tw = newTabWriter(os.Stdout)
	tw.writef("\nPRODUCT\tSIZE\tOUTCOME\tATTEMPTS\tTRANSITION\tERROR\n")
	for i := range cycle.Results {
		r := &cycle.Results[i]
		transition := "-"
		if r.Transition != nil {
			transition = string(r.Transition.Kind)
		}
		errText := "-"
		if r.Error != "" {
			errText = truncate(r.Error, 40)
		}
		tw.writef("%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ProductKey, r.TargetSize, r.Outcome, r.Attempts, transition, errText)
	}
	return tw.finish()
}

func printStatus(st *apiclient.StatusResponse) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Running:\t%v\n", st.Running)
	tw.writef("Cycle In Flight:\t%v\n", st.InFlight)
	tw.writef("Poll Interval:\t%ds\n", st.IntervalSeconds)
	if st.NextWakeAt != nil {
		tw.writef("Next Wake:\t%s\n", st.NextWakeAt.Format("2006-01-02 15:04:05"))
	}
	tw.writef("Items:\t%d (%d enabled)\n", st.ItemsTotal, st.ItemsEnabled)
	if st.LastCycle != nil {
		tw.writef("Last Cycle:\t%s (%d items, %d succeeded, %d failed)\n",
			st.LastCycle.FinishedAt.Format("2006-01-02 15:04:05"),
			st.LastCycle.Items,
			st.LastCycle.Succeeded,
			st.LastCycle.Failed,
		)
	}
	return tw.finish()
}

func printBackupsTable(records []domain.BackupRecord) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("CREATED\tSIZE\tPATH\n")
	for i := range records {
		tw.writef("%s\t%d\t%s\n",
			records[i].CreatedAt.Format("2006-01-02 15:04:05"),
			records[i].SizeBytes,
			records[i].Path,
		)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
