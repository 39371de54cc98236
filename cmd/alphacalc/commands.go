package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"Inertia/internal/auth"
	"Inertia/internal/calc/batch"
	"Inertia/internal/calc/importer"
	"Inertia/internal/calc/opening"
	"Inertia/internal/calc/report"
	"Inertia/internal/config"
	"Inertia/internal/model"
	"Inertia/internal/repo"
	"Inertia/internal/section"

	"github.com/spf13/cobra"
)

type options struct {
	envFile   string
	modelPath string
	cfg       config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "alphacalc",
		Short: "Modified moment of inertia calculator for castellated beams",
		Long: `Predict the alpha coefficient of a castellated or cellular beam from
its parent section, expansion ratio R, opening diameter and length.

The model file path comes from --model, then MODEL_PATH (environment or .env).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			if opts.modelPath != "" {
				cfg.ModelPath = opts.modelPath
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Environment file to load")
	root.PersistentFlags().StringVarP(&opts.modelPath, "model", "m", "", "Model file (overrides MODEL_PATH)")

	root.AddCommand(newCalcCmd(opts), newSectionsCmd(), newBatchCmd(opts), newTokenCmd(opts))
	return root
}

func newCalculator(opts *options, store repo.Repository) (*opening.Calculator, error) {
	m, err := model.Load(opts.cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	return &opening.Calculator{Catalog: section.MustDefault(), Predictor: m, Repo: store}, nil
}

func newCalcCmd(opts *options) *cobra.Command {
	var in opening.Input
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate alpha for one beam",
		Example: `  # IPE240 expanded with R = 1.5, 1800 mm long, 240 mm openings
  alphacalc calc --section IPE240 --ratio 1.5 --length 1800 --opening 240`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			f, err := opening.Derive(section.MustDefault(), in)
			if err != nil {
				var oor *opening.OutOfRangeError
				if errors.As(err, &oor) {
					fmt.Fprintf(out, "Warning! %v\n", oor)
				}
				return err
			}
			calc, err := newCalculator(opts, repo.NewMemoryResultRepository())
			if err != nil {
				return err
			}
			rec, err := calc.Calculate(cmd.Context(), in)
			if err != nil {
				return err
			}
			printFeatures(out, f)
			printRecords(out, []repo.Record{rec})
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Section, "section", "s", "", "Parent section, e.g. IPE240 [required]")
	cmd.Flags().Float64VarP(&in.R, "ratio", "r", 0, "Expansion ratio R [required]")
	cmd.Flags().Float64VarP(&in.LengthMM, "length", "l", 0, "Beam length (mm) [required]")
	cmd.Flags().Float64VarP(&in.OpeningDiameterMM, "opening", "d", 0, "Opening diameter (mm) [required]")
	cmd.MarkFlagRequired("section")
	cmd.MarkFlagRequired("ratio")
	cmd.MarkFlagRequired("length")
	cmd.MarkFlagRequired("opening")
	return cmd
}

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List known sections, their depth and lambda",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := section.MustDefault()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SECTION\th (mm)\tλ")
			for _, s := range cat.Sections() {
				fmt.Fprintf(tw, "%s\t%g\t%.4f\n", s.Name, s.H, cat.Lambda(s.Name))
			}
			fmt.Fprintf(tw, "\nallowed R: %v\n", cat.Ratios())
			return tw.Flush()
		},
	}
}

func newBatchCmd(opts *options) *cobra.Command {
	var inPath, outPath string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Calculate every row of a spreadsheet and export the results",
		Long: `Read rows of length_mm, opening_diameter_mm, section, r from the first
sheet of an XLSX workbook (first row is a header), calculate each, and
write the result table. The export format follows the --out extension:
.pdf, .xlsx or .html.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(filepath.Ext(outPath))
			if err != nil {
				return err
			}
			src, err := os.Open(inPath)
			if err != nil {
				return err
			}
			defer src.Close()

			rows, rowErrs, err := importer.Read(src)
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			for _, re := range rowErrs {
				fmt.Fprintln(errOut, re)
			}

			store := repo.NewMemoryResultRepository()
			calc, err := newCalculator(opts, store)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				inputs := make([]opening.Input, len(rows))
				for i, r := range rows {
					inputs[i] = r.Input
				}
				res, err := batch.RunChunked(cmd.Context(), calc, inputs, false)
				if err != nil {
					return err
				}
				for _, o := range res.Outcomes {
					if msg := o.Warning + o.Error; msg != "" {
						fmt.Fprintf(errOut, "row %d: %s\n", rows[o.Index].Row, msg)
					}
				}
			}

			recs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeExport(outPath, format, recs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(recs), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "Input workbook (.xlsx) [required]")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (.pdf, .xlsx, .html) [required]")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

func writeExport(path string, format report.Format, recs []repo.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Write(format, f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newTokenCmd(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with TOKEN_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := &auth.TokenEnv{JWTkey: []byte(opts.cfg.TokenKey)}
			tok, err := env.IssueToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}

func printFeatures(w io.Writer, f opening.Features) {
	fmt.Fprintf(w, "x = %.3f  R = %.3f  q = %.3f  λ = %.4f\n", f.X, f.R, f.Q, f.Lambda)
}

func printRecords(w io.Writer, recs []repo.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, h := range report.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, rec := range recs {
		for i, c := range report.Cells(rec) {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}
