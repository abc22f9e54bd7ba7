package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pfline/internal/changefreq"
	"pfline/internal/data"
	"pfline/internal/model"
	"pfline/internal/pfline"
	"pfline/internal/series"
	"pfline/internal/stamps"
)

func newChangeFreqCmd() *cobra.Command {
	var in, out, freq, kind string
	cmd := &cobra.Command{
		Use:   "changefreq",
		Short: "Resample every column of a CSV frame",
		Example: "  pfline changefreq --in quarterhours.csv --freq H --kind averagable\n" +
			"  pfline changefreq --in volumes.csv --freq MS --kind summable --out monthly.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getContext(cmd)
			f, err := cc.readFrame(in)
			if err != nil {
				return err
			}
			var res series.Frame
			switch kind {
			case "summable":
				res, err = changefreq.SummableFrame(f, stamps.Freq(freq))
			case "averagable":
				res, err = changefreq.AveragableFrame(f, stamps.Freq(freq))
			default:
				return fmt.Errorf("--kind must be 'summable' or 'averagable'; got %q", kind)
			}
			if err != nil {
				return err
			}
			cc.logger.Debug("resampled",
				zap.String("from", string(f.Index().Freq())),
				zap.String("to", string(res.Index().Freq())),
				zap.Int("rows_in", f.Len()),
				zap.Int("rows_out", res.Len()))
			return writeFrame(cmd, out, res)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input CSV (ts column plus value columns)")
	cmd.Flags().StringVar(&out, "out", "", "output CSV (default: stdout)")
	cmd.Flags().StringVar(&freq, "freq", "", "target frequency ("+stamps.FrequencyList()+")")
	cmd.Flags().StringVar(&kind, "kind", "averagable", "summable (q, r) or averagable (w, p)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("freq")
	return cmd
}

func newTableCmd() *cobra.Command {
	var in, out, freq string
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Build a consistent portfolio line from w, q, p and r columns",
		Long: "Reads a CSV frame, takes its w, q, p and r columns (other columns are ignored)\n" +
			"and writes the complete line: p for price lines, w and q for volume lines,\n" +
			"w, q, p and r otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getContext(cmd)
			f, err := cc.readFrame(in)
			if err != nil {
				return err
			}
			tbl, err := cc.cfg.Tolerance.Builder().MakeTable(pfline.FromFrame(f))
			if err != nil {
				return err
			}
			if freq != "" {
				if tbl, err = tbl.Asfreq(stamps.Freq(freq)); err != nil {
					return err
				}
			}
			res, err := lineFrame(tbl)
			if err != nil {
				return err
			}
			fmt.Fprintf(stderr(cmd), "%s line with %d periods at %s\n", tbl.Kind(), tbl.Index().Len(), tbl.Index().Freq())
			return writeFrame(cmd, out, res)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input CSV")
	cmd.Flags().StringVar(&out, "out", "", "output CSV (default: stdout)")
	cmd.Flags().StringVar(&freq, "freq", "", "optionally resample the table")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func lineFrame(tbl pfline.Table) (series.Frame, error) {
	switch tbl.Kind() {
	case pfline.KindPrice:
		return series.FrameOf(tbl.P())
	case pfline.KindVolume:
		return series.FrameOf(tbl.W(), tbl.Q())
	default:
		return series.FrameOf(tbl.W(), tbl.Q(), tbl.P(), tbl.R())
	}
}

func newPricesCmd() *cobra.Command {
	var (
		dataPath, dataset, location, start, end string
		component, freq, out                    string
		maxGap                                  int
	)
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Turn GridStatus LMP intervals into a price series",
		Example: "  pfline prices --data sample_data.json --location TH_NP15_GEN-APND --freq H\n" +
			"  GRIDSTATUS_API_KEY=... pfline prices --dataset caiso_lmp_real_time_5_min \\\n" +
			"      --location TH_NP15_GEN-APND --start 2024-01-01 --end 2024-01-08",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getContext(cmd)
			comp, err := model.ParseComponent(component)
			if err != nil {
				return err
			}

			var resp *model.GridStatusLMPResponse
			if dataPath != "" {
				resp, err = data.LoadGridStatusJSON(dataPath)
			} else {
				if dataset == "" || location == "" || start == "" || end == "" {
					return fmt.Errorf("either --data or all of --dataset, --location, --start and --end are required")
				}
				gs := cc.cfg.GridStatus
				client := data.NewGridStatusClient(gs.APIKey, gs.BaseURL, cc.logger)
				resp, err = client.QueryLocationByString(cmd.Context(), dataset, location, start, end)
			}
			if err != nil {
				return err
			}

			s, err := data.PriceSeries(resp.Data, data.PriceOptions{
				Component: comp,
				Location:  location,
				TZ:        cc.loc,
				Freq:      stamps.Freq(freq),
				MaxGap:    maxGap,
			})
			if err != nil {
				return err
			}
			if location != "" {
				s = s.WithName(strings.ToLower(location))
			}
			f, err := series.FrameOf(s)
			if err != nil {
				return err
			}
			return writeFrame(cmd, out, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&dataPath, "data", "", "saved GridStatus JSON response")
	fl.StringVar(&dataset, "dataset", "", "GridStatus dataset id")
	fl.StringVar(&location, "location", "", "location id; also filters --data")
	fl.StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	fl.StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	fl.StringVar(&component, "component", "lmp", "lmp, energy, congestion, loss or ghg")
	fl.StringVar(&freq, "freq", "", "optionally resample the series")
	fl.IntVar(&maxGap, "max-gap", 0, "interpolate runs of at most this many missing periods")
	fl.StringVar(&out, "out", "", "output CSV (default: stdout)")
	return cmd
}
