package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/batteryhealth/app/plugins"
	"github.com/kilianp07/batteryhealth/core/battery"
)

var fieldsOpts struct {
	mileageLimit string
	jsonOut      bool
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Print the model inputs with their bounds and defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := battery.MileageLimit(fieldsOpts.mileageLimit)
		if !limit.Valid() {
			return fmt.Errorf("unknown mileage limit %q", fieldsOpts.mileageLimit)
		}
		bounds := battery.NewBounds(limit)
		out := cmd.OutOrStdout()
		if fieldsOpts.jsonOut {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(bounds)
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "#\tNAME\tUNIT\tMIN\tMAX\tDEFAULT\tSTEP")
		for i, b := range bounds {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%g\t%g\t%g\n", i+1, b.Name, b.Unit, b.Min, b.Max, b.Default, b.Step)
		}
		return tw.Flush()
	},
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the registered model kinds and metrics sinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		avail := plugins.Available()
		for _, family := range []string{"model", "metrics"} {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", family, avail[family]); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsOpts.mileageLimit, "mileage-limit", string(battery.MileageLimitStandard), "standard or extended")
	fieldsCmd.Flags().BoolVar(&fieldsOpts.jsonOut, "json", false, "print as JSON")
	rootCmd.AddCommand(fieldsCmd, pluginsCmd)
}
