package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	_ "github.com/kilianp07/batteryhealth/app/plugins"
	"github.com/kilianp07/batteryhealth/config"
	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/factory"
	"github.com/kilianp07/batteryhealth/core/prediction"
	"github.com/kilianp07/batteryhealth/core/report"
	"github.com/kilianp07/batteryhealth/infra/models"
)

// Source tags predictions made from the command line.
const Source = "cli"

var predictOpts struct {
	model    string
	jsonOut  bool
	features battery.FeatureVector
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict battery health for one vehicle",
	Long: "Predict battery health for one vehicle. The model comes from --model " +
		"(a linear artifact) or from the configuration file.",
	RunE: runPredict,
}

func init() {
	d := battery.NewBounds(battery.MileageLimitStandard).Defaults()
	f := predictCmd.Flags()
	f.StringVar(&predictOpts.model, "model", "", "linear model artifact; overrides the configured model")
	f.BoolVar(&predictOpts.jsonOut, "json", false, "print the full report as JSON")
	f.Float64Var(&predictOpts.features.Age, "age", d.Age, "vehicle age in years")
	f.Float64Var(&predictOpts.features.Mileage, "mileage", d.Mileage, "odometer in km")
	f.Float64Var(&predictOpts.features.ChargingCycles, "cycles", d.ChargingCycles, "full charging cycles")
	f.Float64Var(&predictOpts.features.AvgTemp, "temp", d.AvgTemp, "average operating temperature in °C")
	f.IntVar(&predictOpts.features.FastChargingPct, "fast-charging", d.FastChargingPct, "share of fast charging sessions in %")
	f.Float64Var(&predictOpts.features.BatteryCapacity, "capacity", d.BatteryCapacity, "nominal battery capacity in kWh")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	modelCfg, bounds, bands, err := predictSetup()
	if err != nil {
		return err
	}
	fv := predictOpts.features
	if err := bounds.Check(fv); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	model, err := prediction.Load(modelCfg)
	if err != nil {
		return err
	}
	pred, err := prediction.NewPredictor(model, prediction.WithBands(bands))
	if err != nil {
		return err
	}
	res, err := pred.PredictHealth(prediction.WithSource(context.Background(), Source), fv)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if predictOpts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report.FromResult(res))
	}
	_, err = fmt.Fprintf(out, "Estimated Battery Health: %s (%s)\n%s\nEstimated range: %.0f km\n",
		battery.FormatPercent(res.Health), res.Band.Label(), res.Band.Message(), res.EstimatedRangeKM())
	return err
}

// predictSetup resolves the model, input bounds and bands either from
// --model or from the configuration file.
func predictSetup() (factory.ModuleConfig, battery.Bounds, battery.BandConfig, error) {
	if predictOpts.model != "" {
		mc := factory.ModuleConfig{Kind: models.KindLinear, Options: map[string]any{"path": predictOpts.model}}
		return mc, battery.NewBounds(battery.MileageLimitStandard), battery.DefaultBandConfig(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return factory.ModuleConfig{}, battery.Bounds{}, battery.BandConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg.Model, cfg.Form.Bounds(), cfg.Bands, nil
}
