// Command quotectl requests freight quotes from the terminal using the same
// validator, generator and session flow as the API.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"freightquote/internal/analytics"
	"freightquote/internal/logger"
	"freightquote/internal/quote"
	"freightquote/internal/rate"
	"freightquote/internal/session"
)

func main() {
	if err := newRootCmd(os.Stdout, nil).Execute(); err != nil {
		os.Exit(1)
	}
}

type formFlags struct {
	origin      string
	destination string
	weight      string
	mode        string
	email       string
	phone       string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.origin, "origin", "", "origin postal code, port or city")
	cmd.Flags().StringVar(&f.destination, "destination", "", "destination postal code, port or city")
	cmd.Flags().StringVar(&f.weight, "weight", "", "cargo weight in kg")
	cmd.Flags().StringVar(&f.mode, "mode", "", "transport mode: maritime, air or road")
	cmd.Flags().StringVar(&f.email, "email", "", "contact email")
	cmd.Flags().StringVar(&f.phone, "phone", "", "contact phone")
}

func (f *formFlags) form() quote.Form {
	return quote.Form{
		Origin:      f.origin,
		Destination: f.destination,
		Weight:      quote.FormValue(f.weight),
		Mode:        f.mode,
		Email:       f.email,
		Phone:       f.phone,
	}
}

// newRootCmd wires the commands. A nil tracker is replaced by one logging
// events to stderr at the --log-level chosen on the command line.
func newRootCmd(out io.Writer, tracker *analytics.Tracker) *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Simulated freight quotes for maritime, air and road cargo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if tracker != nil {
				return nil
			}
			log, err := logger.New(logLevel, "stderr")
			if err != nil {
				return errors.Wrap(err, "build logger")
			}
			tracker = analytics.NewTracker(log, analytics.NewLogSink(log))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for analytics events: debug, info, warn or error")
	root.AddCommand(newQuoteCmd(func() *analytics.Tracker { return tracker }), newValidateCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a quote form without generating quotes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := quote.Validate(f.form())
			if err != nil {
				printFieldErrors(cmd.OutOrStdout(), err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s -> %s, %s kg, %s\n",
				req.Origin, req.Destination, formatKg(req.WeightKg), req.Mode)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newQuoteCmd(tracker func() *analytics.Tracker) *cobra.Command {
	var (
		f         formFlags
		sortBy    string
		book      string
		estimator string
		seed      int64
		latency   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Generate ranked carrier quotes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			events := tracker()
			req, err := quote.Validate(f.form())
			if err != nil {
				printFieldErrors(out, err)
				return err
			}
			events.StartQuote(ctx, string(req.Mode))
			events.ClickCTA(ctx, "get_quote", "hero_form")

			opts := []quote.Option{quote.WithLatency(latency, latency)}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, quote.WithSeed(seed))
			}
			svc := quote.NewService(rate.NewByName(estimator), opts...)

			st := session.Reduce(session.Initial(), session.Submit{Request: req})
			quotes, err := svc.Fetch(ctx, req)
			if err != nil {
				st = session.Reduce(st, session.Failed{Err: err})
				return errors.Wrap(st.LastErr, "fetch quotes")
			}
			st = session.Reduce(st, session.Loaded{Quotes: quotes})
			events.CompleteQuote(ctx, string(req.Mode), len(quotes), quote.LowestPrice(quotes))
			if sortBy != "" {
				st = session.Reduce(st, session.ChangeSort{Preference: quote.ParseSortPreference(sortBy)})
			}

			printQuotes(out, req, st.Visible())

			if book != "" {
				st = session.Reduce(st, session.Book{QuoteID: book})
				if st.Booked == nil {
					return errors.Errorf("no quote with id %q", book)
				}
				events.ClickCTA(ctx, "book_quote", "results")
				events.ViewQuote(ctx, st.Booked.ID, st.Booked.Carrier, st.Booked.Price)
				fmt.Fprintf(out, "\nbooked %s with %s for %s %.2f\n",
					st.Booked.ID, st.Booked.Carrier, st.Booked.Currency, st.Booked.Price)
			}
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "display order: price or time (default ranked)")
	cmd.Flags().StringVar(&book, "book", "", "quote id to book after listing")
	cmd.Flags().StringVar(&estimator, "estimator", "simulated", "rate estimator: simulated or midpoint")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for reproducible quotes")
	cmd.Flags().DurationVar(&latency, "latency", 0, "simulated carrier latency")
	return cmd
}

func printQuotes(out io.Writer, req quote.Request, quotes []quote.CarrierQuote) {
	fmt.Fprintf(out, "%s -> %s, %s kg by %s\n\n", req.Origin, req.Destination, formatKg(req.WeightKg), req.Mode)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCARRIER\tPRICE\tTRANSIT\tRATING\tINSURANCE\tBADGES")
	for _, q := range quotes {
		badges := make([]string, 0, len(q.Badges))
		for _, b := range q.Badges {
			badges = append(badges, string(b))
		}
		insurance := "no"
		if q.IncludesInsurance {
			insurance = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s %.2f\t%s\t%.1f\t%s\t%s\n",
			q.ID, q.Carrier, q.Currency, q.Price, q.TransitTime, q.Rating, insurance, strings.Join(badges, ","))
	}
	tw.Flush()
}

func printFieldErrors(out io.Writer, err error) {
	var verrs quote.ValidationErrors
	if !errors.As(err, &verrs) {
		fmt.Fprintln(out, err)
		return
	}
	fields := make([]string, 0, len(verrs))
	for k := range verrs {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		fmt.Fprintf(out, "%s: %s (%s)\n", k, verrs[k].Message, verrs[k].Code)
	}
}

func formatKg(kg float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", kg), "0"), ".")
}
