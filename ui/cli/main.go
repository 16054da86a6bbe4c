// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for wp-deploy using the Cobra
// library: the root command (which launches the TUI when no subcommand is
// given), the sync and site-management subcommands, and shared flag
// handling.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/wp-deploy/buildvars"
	"github.com/toeirei/wp-deploy/internal/config"
	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/security"
	"github.com/toeirei/wp-deploy/internal/store"
	"github.com/toeirei/wp-deploy/internal/sync"
	"github.com/toeirei/wp-deploy/internal/tui"
)

var appConfig config.AppConfig
var deps sync.Deps
var assumeYes bool

// setup loads the application config, initializes logging and i18n, opens
// the state directory, and wires the production dependencies. It runs as
// the root command's PersistentPreRunE, so every subcommand gets it.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	appConfig, err = config.Load(cmd)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err := logging.Init(appConfig.StateDir, appConfig.LogLevel); err != nil {
		warnf("operations log unavailable: %v", err)
	}
	i18n.Init(appConfig.Language)

	if err := config.WriteDefaultIfMissing(appConfig); err != nil {
		warnf("write default configuration: %v", err)
	}

	st, err := store.New(appConfig.StateDir)
	if err != nil {
		return err
	}
	deps = sync.Default(st)
	return nil
}

// Execute runs the CLI entrypoint. The main package calls this and handles
// process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates and configures a new root cobra command. Tests use it
// to build fresh, isolated command trees.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wp-deploy",
		Short: "wp-deploy keeps local WordPress working copies and live servers in sync.",
		Long: `wp-deploy pushes git-tracked file changes to a remote WordPress
installation over SSH/SFTP, pulls server-side uploads back down, and moves
whole databases in either direction with WP-CLI, rewriting table prefixes
and site URLs on the way.

Running without a subcommand will launch the interactive TUI.`,
		PersistentPreRunE: setup,
		Run: func(cmd *cobra.Command, args []string) {
			tui.Run(deps)
		},
	}
	cmd.Version = buildVersion()

	cmd.PersistentFlags().String("language", "en", `output language ("en", "de")`)
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("state-dir", "", "state directory (default ~/.wp-deploy)")

	cmd.AddCommand(
		newSiteCmd(),
		newTestCmd(),
		newPushCmd(),
		newPullCmd(),
		newPushFolderCmd(),
		newPullFolderCmd(),
		newDBCmd(),
	)
	return cmd
}

// buildVersion composes the version string from build-time variables,
// falling back to module build info for `go install` builds.
func buildVersion() string {
	v := buildvars.VersionOrDefault("dev")
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	composite := v
	if buildvars.Commit != "" {
		composite += " (" + buildvars.Commit + ")"
	}
	if buildvars.Date != "" {
		composite += " built: " + buildvars.Date
	}
	return composite
}

// resolveSite accepts a site name or ID and returns the matching site ID.
func resolveSite(arg string) (string, error) {
	if site, err := deps.Store.Site(arg); err == nil {
		return site.ID, nil
	}
	site, err := deps.Store.SiteByName(arg)
	if err != nil {
		return "", fmt.Errorf("no site named or identified by %q", arg)
	}
	return site.ID, nil
}

// promptLine reads one line from stdin, returning the default when the
// user just presses enter.
func promptLine(reader *bufio.Reader, label, def string) (string, error) {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// promptPassword reads a password without echo.
func promptPassword(label string) (security.Secret, error) {
	fmt.Printf("%s: ", label)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return security.Secret(pw), nil
}

// confirm asks a yes/no question; --yes short-circuits it.
func confirm(question string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printProgress is the Progress callback for CLI runs.
func printProgress(current, total int, message string) {
	fmt.Printf("  [%d/%d] %s\n", current, total, message)
}

func warnf(format string, args ...any) {
	log.Warnf(format, args...)
}
