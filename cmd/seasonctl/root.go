package main

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/warp/ferie/factory"
	"github.com/warp/ferie/season"
	"github.com/warp/ferie/store/sqlite"
)

type rootOptions struct {
	dbPath string
	now    func() time.Time
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{now: time.Now}

	root := &cobra.Command{
		Use:          "seasonctl",
		Short:        "Holiday season planner",
		Long:         "Project holiday balances for a September-August season and manage stored seasons.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "holidays.db", "SQLite database path")

	root.AddCommand(
		newProjectCmd(opts),
		newSeasonsCmd(opts),
		newRolloverCmd(opts),
		newRulesCmd(),
	)
	return root
}

func (o *rootOptions) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dbPath, err)
	}
	return store, nil
}

// today returns the date given by a --date flag, or the current time.
func (o *rootOptions) today(date string) (time.Time, error) {
	if date == "" {
		return o.now(), nil
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date: %w", err)
	}
	return d, nil
}

// =============================================================================
// project
// =============================================================================

type projectOptions struct {
	seasonID  int64
	startYear int
	rules     string
	buffer    string
	earned    string
	extra     string
	plan      string
	date      string
}

func newProjectCmd(root *rootOptions) *cobra.Command {
	var opts projectOptions

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project a season month by month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.seasonID != 0 || opts.startYear != 0 {
				return runProjectStored(cmd, root, opts)
			}
			return runProjectAdHoc(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.seasonID, "season", 0, "Stored season id")
	cmd.Flags().IntVar(&opts.startYear, "start-year", 0, "Stored season start year")
	cmd.Flags().StringVar(&opts.rules, "rules", factory.PresetFerieloven, "Rules preset for ad-hoc projections")
	cmd.Flags().StringVar(&opts.buffer, "buffer", "", "Carry-over days at season start")
	cmd.Flags().StringVar(&opts.earned, "earned", "", "Days earned per month (default from rules)")
	cmd.Flags().StringVar(&opts.extra, "extra", "", "Extra days pool (default from rules)")
	cmd.Flags().StringVar(&opts.plan, "plan", "", `Planned days per month from September, separated by ";" or spaces`)
	cmd.Flags().StringVar(&opts.date, "date", "", "Mark the month containing this date in stored seasons (YYYY-MM-DD)")
	return cmd
}

func runProjectStored(cmd *cobra.Command, root *rootOptions, opts projectOptions) error {
	now, err := root.today(opts.date)
	if err != nil {
		return err
	}

	store, err := root.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	id := season.SeasonID(opts.seasonID)
	if id == 0 {
		s, err := store.GetSeasonByStartYear(ctx, opts.startYear)
		if err != nil {
			return fmt.Errorf("season starting %d: %w", opts.startYear, err)
		}
		id = s.ID
	}

	s, _, projection, err := season.ProjectStored(ctx, store, id)
	if err != nil {
		return err
	}

	current := -1
	if idx, ok := season.CurrentMonth(s.StartYear, now); ok {
		current = idx
	}
	fmt.Fprint(cmd.OutOrStdout(), renderProjection(s.Name, projection, current))
	return nil
}

func runProjectAdHoc(cmd *cobra.Command, opts projectOptions) error {
	rules, ok := factory.NewRulesFactory().Get(opts.rules)
	if !ok {
		return fmt.Errorf("unknown rules preset %q", opts.rules)
	}

	plan, err := parsePlan(opts.plan)
	if err != nil {
		return err
	}

	cfg := rules.NewConfig(season.ParseDays(opts.buffer))
	if opts.earned != "" {
		cfg.EarnedPerMonth = season.ParseDays(opts.earned)
	}
	if opts.extra != "" {
		cfg.ExtraDaysPool = season.ParseDays(opts.extra)
	}

	fmt.Fprint(cmd.OutOrStdout(), renderProjection(rules.Name, season.Project(cfg, plan), -1))
	return nil
}

// parsePlan reads up to 12 month values separated by ";" or whitespace.
// Commas are decimal separators, so "2,5" is two and a half days.
func parsePlan(s string) (season.MonthlyPlan, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
	if len(fields) > season.MonthsPerSeason {
		return season.MonthlyPlan{}, fmt.Errorf("plan has %d months, at most %d allowed", len(fields), season.MonthsPerSeason)
	}

	var plan season.MonthlyPlan
	for i := range plan {
		plan[i] = season.Days(0)
		if i < len(fields) {
			plan[i] = season.ParseDays(fields[i])
		}
	}
	return plan, nil
}

// =============================================================================
// seasons
// =============================================================================

func newSeasonsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seasons",
		Short: "List stored seasons",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := root.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			seasons, err := store.ListSeasons(ctx)
			if err != nil {
				return err
			}
			if len(seasons) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\n  No seasons found.")
				return nil
			}

			summaries := make([]season.Summary, len(seasons))
			for i, s := range seasons {
				_, _, p, err := season.ProjectStored(ctx, store, s.ID)
				if err != nil {
					return err
				}
				summaries[i] = p.Summary
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSeasons(seasons, summaries))
			return nil
		},
	}
}

// =============================================================================
// rollover
// =============================================================================

func newRolloverCmd(root *rootOptions) *cobra.Command {
	var (
		maxCarryover float64
		date         string
	)

	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Open the current season from the previous one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now, err := root.today(date)
			if err != nil {
				return err
			}

			store, err := root.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			r := &season.Rollover{Store: store, MaxCarryover: season.Days(maxCarryover)}
			result, err := r.Run(context.Background(), now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Skipped {
				fmt.Fprintf(out, "  Skipped: %s\n", result.Reason)
				return nil
			}
			fmt.Fprintf(out, "  Opened %s with %s days carried over (run %s)\n",
				result.Season.Name, result.Run.CarriedOver, result.Run.ID)
			return nil
		},
	}

	cmd.Flags().Float64Var(&maxCarryover, "max-carryover", 5, "Most days a season may carry into the next")
	cmd.Flags().StringVar(&date, "date", "", "Pretend today is this date (YYYY-MM-DD)")
	return cmd
}

// =============================================================================
// rules
// =============================================================================

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List rule presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.OutOrStdout(), renderRules(factory.NewRulesFactory().List()))
			return nil
		},
	}
}
