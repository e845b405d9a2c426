package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/RennanRnz/rfv-project/internal/analysis"
	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/export"
	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Segment a CSV/XLSX ledger",
	Long: `Reads a transaction ledger and prints its RFV segmentation.

This command:
- reads the ledger (.csv or .xlsx)
- computes recency/frequency/value per customer
- grades each dimension against the dataset quartiles
- maps every score to an action
- optionally writes the table (csv, xlsx or json)

Required columns:
  customer_id, purchase_date, purchase_code, total_value

Example:
  go run ./cmd/rfv analyze ledger.csv
  go run ./cmd/rfv analyze ledger.xlsx --out RFV_resultado.xlsx --format xlsx
  go run ./cmd/rfv analyze ledger.csv --actions config/actions.yaml --top 20`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeActions string
	analyzeOut     string
	analyzeFormat  string
	analyzeTop     int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeActions, "actions", "", "action table YAML (default RFV_ACTIONS_FILE)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "write the table to this path")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "", "output format: csv, xlsx or json (default from --out extension)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 10, "rows to print (0 = all)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	// 1. Load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// resolve the output format before doing any work
	format, err := outputFormat(analyzeOut, analyzeFormat)
	if err != nil {
		return err
	}

	// 2. Initialize logger (stderr keeps stdout for the report)
	log := logger.NewWithWriter(cfg, os.Stderr)

	// 3. Build the service; one-shot runs never touch the shared cache
	service, err := newService(cfg, redis.NewCache(redis.Disabled(), "rfv"), analyzeActions, log)
	if err != nil {
		return err
	}

	steps := 2
	if analyzeOut != "" {
		steps++
	}
	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("reading"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	// 4. Read the ledger
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	_ = bar.Add(1)

	// 5. Segment
	bar.Describe("segmenting")
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	result, err := service.AnalyzeFile(ctx, filepath.Base(path), f)
	if err != nil {
		_ = bar.Exit()
		return describeError(err)
	}
	_ = bar.Add(1)

	// 6. Export
	if analyzeOut != "" {
		bar.Describe("writing")
		if err := export.ToFile(analyzeOut, format, result.RunID, result.Table); err != nil {
			_ = bar.Exit()
			return fmt.Errorf("write %s: %w", analyzeOut, err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	printReport(path, result, analyzeTop)

	if analyzeOut != "" {
		PrintSuccess(fmt.Sprintf("Table written to %s", analyzeOut))
	}
	return nil
}

// outputFormat picks --format, falling back to the --out extension
func outputFormat(out, flag string) (export.Format, error) {
	if flag == "" && out != "" {
		flag = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	}
	if flag == "" {
		return export.FormatCSV, nil
	}
	return export.ParseFormat(flag)
}

// describeError adds the found columns hint for a missing field error
func describeError(err error) error {
	var missing *contracts.MissingFieldError
	if errors.As(err, &missing) {
		return fmt.Errorf("❌ ledger is missing %s (found columns: %s)",
			strings.Join(missing.Missing, ", "), strings.Join(missing.Found, ", "))
	}
	return fmt.Errorf("❌ %w", err)
}

func printReport(path string, result *analysis.Result, top int) {
	table := result.Table

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  RFV segmentation: %s\n", filepath.Base(path))
	PrintSeparator()
	PrintKeyValue("Run ID", result.RunID, 12)
	PrintKeyValue("Anchor date", table.AnchorDate.Format(time.DateOnly), 12)
	PrintKeyValue("Transactions", strconv.Itoa(table.Transactions), 12)
	PrintKeyValue("Customers", strconv.Itoa(table.Len()), 12)
	PrintSeparator()

	// quartile boundaries
	widths := []int{10, 12, 12, 12}
	PrintTableHeader([]string{"Dimension", "Q25", "Q50", "Q75"}, widths)
	for _, d := range contracts.Dimensions {
		q := table.Boundaries.For(d)
		PrintTableRow([]string{d.String(), formatNumber(q.Q25), formatNumber(q.Q50), formatNumber(q.Q75)}, widths)
	}
	fmt.Println()

	// rows
	rows := table.Records
	if top > 0 && top < len(rows) {
		rows = rows[:top]
	}
	widths = []int{16, 8, 6, 12, 6, 30}
	PrintTableHeader([]string{"Customer", "Recency", "Freq", "Value", "Score", "Action"}, widths)
	for _, r := range rows {
		PrintTableRow([]string{
			r.CustomerID,
			strconv.Itoa(r.RecencyDays),
			strconv.Itoa(r.Frequency),
			formatNumber(r.Value),
			r.Score,
			r.Action,
		}, widths)
	}
	if len(rows) < table.Len() {
		fmt.Printf("... %d more\n", table.Len()-len(rows))
	}
	fmt.Println()

	// distributions
	widths = []int{30, 8}
	PrintTableHeader([]string{"Score", "Customers"}, widths)
	for _, b := range table.ScoreDistribution() {
		PrintTableRow([]string{b.Key, strconv.Itoa(b.Count)}, widths)
	}
	fmt.Println()

	PrintTableHeader([]string{"Action", "Customers"}, widths)
	for _, b := range table.ActionDistribution() {
		PrintTableRow([]string{b.Key, strconv.Itoa(b.Count)}, widths)
	}

	if len(table.Warnings) > 0 {
		items := make([]string, 0, len(table.Warnings))
		for _, w := range table.Warnings {
			items = append(items, w.String())
		}
		PrintWarning(fmt.Sprintf("%d scores have no configured action", len(table.Warnings)))
		PrintList(items)
	}
	PrintDoubleSeparator()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
