package main

import (
	"fmt"
	"os"
	"strings"

	"sentinel-go/internal/app"
	"sentinel-go/internal/config"
	"sentinel-go/internal/sentinel"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Check", "MirrorPush").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Review tracker for model source files",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tool version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(sentinel.ToolVersion)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Hub Endpoint: %s\n", cfg.Hub.Endpoint)
		fmt.Printf("History:      %s\n", cfg.History.Type)
		fmt.Printf("Mirror:       %s\n", cfg.Mirror.Type)
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check TARGET",
	Short: "Verify a model's source files against the approved state",
	Long: `Verify a model's source files against the approved state.

TARGET is either a Hugging Face repo id (org/model) or a path to a
local directory. Changed or new files are presented for approval one
at a time. The command exits non-zero when the model is left in a
needs_review state.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		revision, _ := cmd.Flags().GetString("revision")

		a, err := newApp("Check")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Check(cmd.Context(), args[0], revision)
		if err != nil {
			return err
		}

		printCheckResult(res)

		if !res.Verified {
			// Exit non-zero without the usage dump; the status line above
			// already told the user what happened.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return fmt.Errorf("model %s needs review", res.TargetKey)
		}
		return nil
	},
}

func printCheckResult(res *sentinel.CheckResult) {
	d := res.Diff
	fmt.Printf("Target: %s\n", res.TargetKey)
	fmt.Printf("Files:  %d unchanged, %d modified, %d added, %d removed\n",
		len(d.Unchanged), len(d.Modified), len(d.Added), len(d.Removed))

	switch {
	case !res.Written:
		fmt.Println("Status: verified (no changes)")
	case res.Verified:
		fmt.Printf("Status: verified (%d of %d approved)\n", res.FilesApproved, res.FilesTotal)
	default:
		fmt.Printf("Status: needs review (%d approved, %d rejected)\n",
			res.FilesApproved, res.FilesRejected)
	}
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked models",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		count := 0
		for entry, err := range a.List() {
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				continue
			}
			count++

			verified := "never"
			if entry.LastVerified != nil {
				verified = entry.LastVerified.Format("2006-01-02 15:04:05")
			}
			origin := ""
			if entry.OriginalPath != "" {
				origin = "  " + entry.OriginalPath
			}
			fmt.Printf("%-12s  %-19s  %3d file(s)  %s%s\n",
				entry.OverallStatus, verified, len(entry.ApprovedFiles), entry.TargetKey, origin)
		}

		if count == 0 {
			fmt.Println("No models tracked.")
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View verification run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No verification runs recorded.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("#%d  %s  %-12s  %s  %d/%d approved\n",
				r.ID,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Outcome,
				r.TargetKey,
				r.FilesApproved,
				r.FilesTotal,
			)
		}
		return nil
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete all tracked verification state",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Print("This removes all tracked models and approvals. Continue? [y/N] ")
			var answer string
			fmt.Scanln(&answer)
			if s := strings.ToLower(strings.TrimSpace(answer)); s != "y" && s != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := newApp("DeleteAll")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteAll(); err != nil {
			return fmt.Errorf("deleting state: %w", err)
		}

		fmt.Println("All verification state deleted.")
		return nil
	},
}

// mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror verification state to a remote vault",
}

var mirrorPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push local state to the configured vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MirrorPush")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.MirrorPush(); err != nil {
			return fmt.Errorf("pushing state: %w", err)
		}

		fmt.Println("State pushed.")
		return nil
	},
}

var mirrorPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull state from the configured vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		a, err := newApp("MirrorPull")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.MirrorPull(force); err != nil {
			return fmt.Errorf("pulling state: %w", err)
		}

		fmt.Println("State pulled.")
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// mirror subcommands
	mirrorCmd.AddCommand(mirrorPushCmd)
	mirrorCmd.AddCommand(mirrorPullCmd)
	mirrorPullCmd.Flags().Bool("force", false, "Overwrite existing local state")

	// root commands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().String("revision", "", "Hub revision to check (remote targets only)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().Bool("force", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(mirrorCmd)
}
