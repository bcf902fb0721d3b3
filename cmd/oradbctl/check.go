package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oraops/oradbctl/internal/config"
	"github.com/oraops/oradbctl/internal/model"
	"github.com/oraops/oradbctl/internal/reconcile"
)

type checkOptions struct {
	ConfigPath string
	Verbose    bool
	JSON       bool
}

var checkCmdRunner = runCheck

func newCheckCmd(root *rootFlags) *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report divergence from the declared state without making changes",
		Long: `Check performs read-only probes to determine whether the database matches
its declared state. Returns exit code 0 if the database is in sync,
exit code 1 if a reconciliation would make changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose

			if err := validateConfigPath(opts.ConfigPath); err != nil {
				return err
			}

			return checkCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output the report in JSON format")

	return cmd
}

func runCheck(opts checkOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing configuration: %v\n", err)
		os.Exit(2)
	}

	log, err := newLogger(opts.Verbose, !opts.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(3)
	}

	ctx := context.Background()

	driver, err := buildDriver(ctx, cfg, log, nil, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Check error: %v\n", err)
		os.Exit(3)
	}

	report, err := driver.Check(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Check error: %v\n", err)
		os.Exit(3)
	}

	if opts.JSON {
		printJSONReport(cfg, report)
	} else {
		printReport(cfg, report)
	}

	if !inSync(cfg, report) {
		os.Exit(1)
	}
	return nil
}

func inSync(cfg *config.Config, report reconcile.CheckReport) bool {
	if cfg.Database.State == "absent" {
		return !report.Found
	}
	return report.Found && report.Plan.Empty()
}

func printReport(cfg *config.Config, report reconcile.CheckReport) {
	name := cfg.Database.Name

	if !report.Found {
		if cfg.Database.State == "absent" {
			fmt.Printf("✅ Database %s is absent as declared\n", name)
		} else {
			fmt.Printf("❌ Database %s is not registered on this host - run 'oradbctl apply' to create it\n", name)
		}
		return
	}

	if cfg.Database.State == "absent" {
		fmt.Printf("❌ Database %s exists but is declared absent - run 'oradbctl apply' to remove it\n", name)
		return
	}

	if report.Plan.Empty() {
		fmt.Printf("✅ Database %s matches its declared state - no changes needed\n", name)
		return
	}

	fmt.Printf("\nDivergence Report: %s (%s)\n", name, report.Identity.Mode)
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("%-26s %-16s %-16s %s\n", "Property", "Current", "Declared", "Applies")
	fmt.Println(strings.Repeat("-", 72))
	for _, act := range report.Plan.Ordered() {
		applies := "immediately"
		if act.Class == model.RequiresRestart {
			applies = "after restart"
		}
		fmt.Printf("%-26s %-16s %-16s %s\n", act.Property, act.Current, act.Desired, applies)
	}
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("\n❌ %d change(s) needed - run 'oradbctl apply' to fix\n", report.Plan.Len())
}

func printJSONReport(cfg *config.Config, report reconcile.CheckReport) {
	type jsonAction struct {
		Property  string `json:"property"`
		Current   string `json:"current"`
		Declared  string `json:"declared"`
		Class     string `json:"class"`
		Statement string `json:"statement"`
	}
	type jsonReport struct {
		Database string       `json:"database"`
		Found    bool         `json:"found"`
		InSync   bool         `json:"in_sync"`
		Mode     string       `json:"mode,omitempty"`
		Actions  []jsonAction `json:"actions,omitempty"`
	}

	out := jsonReport{
		Database: cfg.Database.Name,
		Found:    report.Found,
		InSync:   inSync(cfg, report),
		Mode:     string(report.Identity.Mode),
	}
	for _, act := range report.Plan.Ordered() {
		out.Actions = append(out.Actions, jsonAction{
			Property:  string(act.Property),
			Current:   act.Current,
			Declared:  act.Desired,
			Class:     string(act.Class),
			Statement: act.Statement,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(3)
	}
	fmt.Println(string(data))
}
