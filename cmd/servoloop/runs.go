package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/servoloop/internal/report"
	"github.com/san-kum/servoloop/internal/storage"
)

// resolveRun returns the run named in args, or the latest run.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tPRESET\tTIME\tCYCLES\tPERIOD\tTRACKING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%dms\t%.3f\n",
			run.ID,
			run.Source,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cycles,
			run.PeriodMS,
			run.Metrics["tracking_error"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadAngles(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("cycles: %d\n\n", len(series.Times))

	for c, name := range series.Channels {
		graph := asciigraph.PlotMany([][]float64{series.Angles[c], series.Targets[c]},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
			asciigraph.Caption(fmt.Sprintf("%s angle (green) and target (yellow)", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadAngles(runID)
	if err != nil {
		return err
	}

	data := report.NewExportData(meta, series)
	if outFile == "" {
		return report.ExportJSON(os.Stdout, data)
	}
	if err := report.ExportJSONFile(outFile, data); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	series, err := st.LoadAngles(runID)
	if err != nil {
		return err
	}

	svg := report.SeriesToSVG(series, 800, 360)
	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, outFile)
	return nil
}
