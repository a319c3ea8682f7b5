package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/ecg-pipeline/ecg"
	"github.com/maastricht-university/ecg-pipeline/record"
)

type diagnoseOpts struct {
	records    []string
	header     string
	samples    string
	tranche    string
	detectOnly bool
}

func (a *app) diagnoseCmd() *cobra.Command {
	var o diagnoseOpts
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose recordings and print one JSON report per record",
		Example: `  ecg-pipeline diagnose --record A0001.json
  ecg-pipeline diagnose --header A0001.hea --samples A0001.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := o.load()
			if err != nil {
				return err
			}
			p, _, cleanup, err := a.services(false)
			if err != nil {
				return err
			}
			defer cleanup()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			var failed int
			for _, rec := range recs {
				run := p.Run
				if o.detectOnly {
					run = p.Detect
				}
				rep, err := run(cmd.Context(), rec)
				if err != nil {
					a.log.WithError(err).WithField("record", rec.Name).Error("diagnosis failed")
					failed++
					continue
				}
				if err := enc.Encode(rep); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d records failed", failed, len(recs))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&o.records, "record", nil, "record JSON file (repeatable)")
	f.StringVar(&o.header, "header", "", "WFDB header (.hea) with calibration")
	f.StringVar(&o.samples, "samples", "", "CSV of digitised samples, one row per time step")
	f.StringVar(&o.tranche, "tranche", "", "tranche letter A-F (default: from record name)")
	f.BoolVar(&o.detectOnly, "detect-only", false, "run the rule-based detectors only")
	return cmd
}

func (o diagnoseOpts) load() ([]record.Record, error) {
	var recs []record.Record
	for _, path := range o.records {
		r, err := record.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		recs = append(recs, r)
	}
	if o.header != "" || o.samples != "" {
		r, err := o.fromWFDB()
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if len(recs) == 0 {
		return nil, errors.New("nothing to diagnose: pass --record or --header with --samples")
	}
	if o.tranche != "" {
		for i := range recs {
			recs[i].Tranche = o.tranche
		}
	}
	return recs, nil
}

func (o diagnoseOpts) fromWFDB() (record.Record, error) {
	if o.header == "" || o.samples == "" {
		return record.Record{}, errors.New("--header and --samples go together")
	}
	h, err := record.ReadHeaderFile(o.header)
	if err != nil {
		return record.Record{}, fmt.Errorf("%s: %w", o.header, err)
	}
	f, err := os.Open(o.samples)
	if err != nil {
		return record.Record{}, err
	}
	defer f.Close()
	rows, err := record.ReadSamplesCSV(f)
	if err != nil {
		return record.Record{}, fmt.Errorf("%s: %w", o.samples, err)
	}
	r := record.Record{Layout: ecg.ChannelLast, Digital: rows}
	r.ApplyHeader(h)
	if len(h.Signals) > 0 {
		u, err := ecg.ParseUnits(h.Signals[0].Units)
		if err != nil {
			return record.Record{}, err
		}
		r.Units = &u
	}
	return r, nil
}
