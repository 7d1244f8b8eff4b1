package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/config"
	"github.com/goldentooth/knowledgeengine/internal/generate"
	"github.com/goldentooth/knowledgeengine/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose bool
		offline bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the system is ready to serve queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, verbose, offline, asJSON)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print check details")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the generator readiness check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit results as JSON")
	return cmd
}

func runDoctor(cmd *cobra.Command, verbose, offline, asJSON bool) error {
	cfg, err := config.Load(projectRoot())
	if err != nil {
		cfg = config.NewConfig()
	}

	generatorModel := ""
	if !offline {
		generatorModel = generate.DefaultModel
	}

	checker := preflight.New(
		preflight.WithOffline(offline),
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := checker.RunAll(cmd.Context(), cfg.Paths.DataDir, generatorModel)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Status string                  `json:"status"`
			Checks []preflight.CheckResult `json:"checks"`
		}{
			Status: checker.SummaryStatus(results),
			Checks: results,
		})
	}

	checker.PrintResults(results)

	if checker.HasCriticalFailures(results) {
		return fmt.Errorf("one or more critical checks failed")
	}
	return nil
}
