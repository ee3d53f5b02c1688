package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/api/handlers"
	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/dashboard"
	"github.com/dvloznov/finance-dashboard/internal/export"
	"github.com/dvloznov/finance-dashboard/internal/infra"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/dvloznov/finance-dashboard/internal/plaid"
	"github.com/dvloznov/finance-dashboard/internal/reconcile"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "transactions":
		runTransactions(log)
	case "totals":
		runTotals(log)
	case "match":
		runMatch(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Dashboard CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  transactions  List filtered and sorted transactions")
	fmt.Println("  totals        Show category and account totals")
	fmt.Println("  match         Reconcile fetched accounts against stored accounts")
	fmt.Println("  export        Export filtered transactions as CSV")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// viewFlags are the filter and sort options shared by the view commands.
type viewFlags struct {
	input      *string
	dateMode   *string
	month      *int
	year       *int
	start      *string
	end        *string
	accounts   *string
	categories *string
	merchants  *string
	sortBy     *string
	sortOrder  *string
}

func addViewFlags(fs *flag.FlagSet) *viewFlags {
	return &viewFlags{
		input:      fs.String("input", "", "JSON file of transaction records (default: configured store)"),
		dateMode:   fs.String("date", "", "Date mode: all, ytd, lastYear, thisMonth, pastMonth, month"),
		month:      fs.Int("month", 0, "Month 1-12 for -date month"),
		year:       fs.Int("year", 0, "Year for -date month"),
		start:      fs.String("from", "", "Inclusive start date YYYY-MM-DD"),
		end:        fs.String("to", "", "Inclusive end date YYYY-MM-DD"),
		accounts:   fs.String("account", "", "Comma-separated account names"),
		categories: fs.String("category", "", "Comma-separated categories"),
		merchants:  fs.String("merchant", "", "Comma-separated merchants"),
		sortBy:     fs.String("sort", "", "Sort column, e.g. date, amount, name"),
		sortOrder:  fs.String("order", "", "Sort order: asc or desc"),
	}
}

// query converts the flags into the same parameters the HTTP API accepts.
func (f *viewFlags) query() (dashboard.ViewQuery, error) {
	q := url.Values{}
	q.Set("dateMode", *f.dateMode)
	if *f.month != 0 {
		q.Set("month", fmt.Sprint(*f.month))
	}
	if *f.year != 0 {
		q.Set("year", fmt.Sprint(*f.year))
	}
	q.Set("startDate", *f.start)
	q.Set("endDate", *f.end)
	q["account"] = splitList(*f.accounts)
	q["category"] = splitList(*f.categories)
	q["merchant"] = splitList(*f.merchants)
	q.Set("sortBy", *f.sortBy)
	q.Set("sortOrder", *f.sortOrder)
	return handlers.ParseViewQuery(q)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// loadView builds the view for the flags from -input or the configured store.
func loadView(ctx context.Context, f *viewFlags, log zerolog.Logger) (*dashboard.View, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}
	all, now, err := loadTransactions(ctx, *f.input, log)
	if err != nil {
		return nil, err
	}
	return dashboard.BuildView(all, q, now), nil
}

func loadTransactions(ctx context.Context, input string, log zerolog.Logger) ([]transactions.Transaction, time.Time, error) {
	if input != "" {
		txs, err := readRecords(input)
		return txs, time.Now(), err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, time.Time{}, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, time.Time{}, err
	}
	repo, err := infra.Open(ctx, cfg, log)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer repo.Close()

	txs, err := repo.ListTransactions(ctx)
	return txs, time.Now().In(loc), err
}

func readRecords(path string) ([]transactions.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []transactions.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return transactions.FromRecords(records)
}

func runTransactions(log zerolog.Logger) {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	vf := addViewFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	view, err := loadView(ctx, vf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}
	printTransactions(os.Stdout, view)
}

func printTransactions(out io.Writer, view *dashboard.View) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNAME\tACCOUNT\tCATEGORY\tMERCHANT\tAMOUNT")
	for _, r := range view.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
			r.Date, r.Name, r.AccountName, r.PersonalFinanceCategory, displayMerchant(r.Merchant), r.Amount)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d transactions, total %s\n", view.Count, view.Total.StringFixed(2))
}

func displayMerchant(m string) string {
	if m == "" {
		return transactions.NoMerchant
	}
	return m
}

func runTotals(log zerolog.Logger) {
	fs := flag.NewFlagSet("totals", flag.ExitOnError)
	vf := addViewFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	view, err := loadView(ctx, vf, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}
	printTotals(os.Stdout, "CATEGORY", view.CategoryTotals)
	fmt.Println()
	printTotals(os.Stdout, "ACCOUNT", view.AccountTotals)
}

func printTotals(out io.Writer, heading string, totals []transactions.Total) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tCOUNT\tTOTAL\n", heading)
	for _, t := range totals {
		fmt.Fprintf(w, "%s\t%d\t%s\n", t.Label, t.Count, t.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t%s\n", transactions.SumTotals(totals).StringFixed(2))
	w.Flush()
}

func runMatch(log zerolog.Logger) {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	fetchedPath := fs.String("fetched", "", "JSON file of accounts as returned by /accounts/get")
	storedPath := fs.String("stored", "", "JSON file of stored accounts")
	fs.Parse(os.Args[2:])

	if *fetchedPath == "" || *storedPath == "" {
		log.Fatal().Msg("Error: --fetched and --stored are required")
	}

	var fetched []plaid.Account
	if err := readJSON(*fetchedPath, &fetched); err != nil {
		log.Fatal().Err(err).Msg("Failed to read fetched accounts")
	}
	var stored []*accounts.Account
	if err := readJSON(*storedPath, &stored); err != nil {
		log.Fatal().Err(err).Msg("Failed to read stored accounts")
	}

	printPlan(os.Stdout, reconcile.BuildPlan(fetched, stored))
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func printPlan(out io.Writer, plan reconcile.Plan[plaid.Account, *accounts.Account]) {
	shared := plan.SharedMatches()
	plan = plan.OneToOne()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tFETCHED\tMASK\tTYPE\tSUBTYPE\tSTORED")
	for _, m := range plan.Matched {
		fmt.Fprintf(w, "update\t%s\t%s\t%s\t%s\t%s\n",
			m.Fetched.Name, m.Fetched.Mask, m.Fetched.Type, m.Fetched.Subtype, m.Stored.ID)
	}
	for _, f := range plan.New {
		fmt.Fprintf(w, "create\t%s\t%s\t%s\t%s\t-\n", f.Name, f.Mask, f.Type, f.Subtype)
	}
	w.Flush()

	for _, idx := range shared {
		fmt.Fprintf(out, "warning: stored account #%d matched more than one fetched account; the extra ones are created\n", idx)
	}
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	vf := addViewFlags(fs)
	output := fs.String("output", "", "Local CSV path (default: stdout)")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	q, err := vf.query()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid filter")
	}
	all, now, err := loadTransactions(ctx, *vf.input, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load transactions")
	}
	rows := q.Sort.Apply(transactions.Filter(all, q.Criteria, now))

	out := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Str("path", *output).Msg("Failed to create output file")
		}
		defer f.Close()
		out = f
	}

	if err := export.WriteCSV(out, rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to write CSV")
	}
	if *output != "" {
		log.Info().Str("path", *output).Int("rows", len(rows)).Msg("Export complete")
	}
}
