// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// database.go implements the `db` command family: configuration (with
// wp-config.php discovery), the push/pull pipelines, credential storage,
// and a direct connectivity check against the local database.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/toeirei/wp-deploy/internal/dbcheck"
	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/security"
	"github.com/toeirei/wp-deploy/internal/sync"
	"github.com/toeirei/wp-deploy/internal/wpcli"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database sync between the local and remote WordPress installs",
	}
	cmd.AddCommand(
		newDBConfigCmd(),
		newDBPushCmd(),
		newDBPullCmd(),
		newDBCheckCmd(),
		newDBSetPasswordCmd(),
	)
	return cmd
}

func newDBConfigCmd() *cobra.Command {
	var fromWPConfig string
	var fromRemote bool
	cmd := &cobra.Command{
		Use:   "config <site>",
		Short: "Configure database sync for a site",
		Long: `Configure database sync for a site. Values are prompted with the
current configuration as defaults. --from-wp-config prefills the local side
from a wp-config.php; --from-remote prefills the remote side by reading the
server's wp-config.php over SFTP.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			site, err := deps.Store.Site(id)
			if err != nil {
				return err
			}

			cfg := site.Database
			if cfg == nil {
				cfg = model.NewDatabaseConfig()
			}

			if cmd.Flags().Changed("from-wp-config") {
				path := strings.TrimSpace(fromWPConfig)
				if path == "" {
					path = filepath.Join(site.LocalPath, "wp-config.php")
				}
				wc, err := wpcli.ParseWPConfigFile(path)
				if err != nil {
					return err
				}
				applyWPConfig(cfg, wc, true)
				if cfg.LocalURL == "" {
					// wp-config.php rarely defines the URL constants;
					// ask WP-CLI for the stored option instead.
					if url, optErr := deps.LocalWP(site.LocalPath).OptionGet("siteurl"); optErr == nil {
						cfg.LocalURL = wpcli.NormalizeURL(url)
					}
				}
				fmt.Printf(i18n.T("db.prefilled_local")+"\n", path)
			}
			if fromRemote {
				wc, err := deps.RemoteWPConfig(id)
				if err != nil {
					return err
				}
				applyWPConfig(cfg, wc, false)
				fmt.Println(i18n.T("db.prefilled_remote"))
			}

			reader := bufio.NewReader(os.Stdin)
			if err := promptDBSide(reader, "Local", &cfg.LocalDBName, &cfg.LocalDBHost, &cfg.LocalDBPort, &cfg.LocalDBUser, &cfg.LocalTablePrefix); err != nil {
				return err
			}
			if err := promptDBSide(reader, "Remote", &cfg.RemoteDBName, &cfg.RemoteDBHost, &cfg.RemoteDBPort, &cfg.RemoteDBUser, &cfg.RemoteTablePrefix); err != nil {
				return err
			}

			localURL, err := promptLine(reader, i18n.T("db.prompt_local_url"), cfg.LocalURL)
			if err != nil {
				return err
			}
			remoteURL, err := promptLine(reader, i18n.T("db.prompt_remote_url"), cfg.RemoteURL)
			if err != nil {
				return err
			}
			cfg.LocalURL = wpcli.NormalizeURL(localURL)
			cfg.RemoteURL = wpcli.NormalizeURL(remoteURL)
			if localURL != "" && cfg.LocalURL == "" {
				return fmt.Errorf("invalid local URL %q", localURL)
			}
			if remoteURL != "" && cfg.RemoteURL == "" {
				return fmt.Errorf("invalid remote URL %q", remoteURL)
			}

			site.Database = cfg
			if err := deps.Store.UpdateSite(site); err != nil {
				return err
			}
			fmt.Printf(i18n.T("db.configured")+"\n", site.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromWPConfig, "from-wp-config", "", "prefill the local side from a wp-config.php (default: <local path>/wp-config.php)")
	cmd.Flags().Lookup("from-wp-config").NoOptDefVal = " "
	cmd.Flags().BoolVar(&fromRemote, "from-remote", false, "prefill the remote side from the server's wp-config.php")
	return cmd
}

// applyWPConfig copies parsed wp-config.php values onto one side of the
// database configuration.
func applyWPConfig(cfg *model.DatabaseConfig, wc wpcli.WPConfig, local bool) {
	if local {
		cfg.LocalDBName = wc.DBName
		cfg.LocalDBUser = wc.DBUser
		cfg.LocalDBHost = wc.DBHost
		cfg.LocalTablePrefix = wc.TablePrefix
		if url := wpcli.NormalizeURL(wc.HomeURL); url != "" {
			cfg.LocalURL = url
		} else if url := wpcli.NormalizeURL(wc.SiteURL); url != "" {
			cfg.LocalURL = url
		}
		return
	}
	cfg.RemoteDBName = wc.DBName
	cfg.RemoteDBUser = wc.DBUser
	cfg.RemoteDBHost = wc.DBHost
	cfg.RemoteTablePrefix = wc.TablePrefix
	if url := wpcli.NormalizeURL(wc.HomeURL); url != "" {
		cfg.RemoteURL = url
	} else if url := wpcli.NormalizeURL(wc.SiteURL); url != "" {
		cfg.RemoteURL = url
	}
}

func promptDBSide(reader *bufio.Reader, side string, name, host *string, port *int, user, prefix *string) (err error) {
	if *name, err = promptLine(reader, side+" database name", *name); err != nil {
		return err
	}
	if *host, err = promptLine(reader, side+" database host", *host); err != nil {
		return err
	}
	portStr, err := promptLine(reader, side+" database port", strconv.Itoa(*port))
	if err != nil {
		return err
	}
	if *port, err = strconv.Atoi(portStr); err != nil {
		return fmt.Errorf("invalid port %q", portStr)
	}
	if *user, err = promptLine(reader, side+" database user", *user); err != nil {
		return err
	}
	if *prefix, err = promptLine(reader, side+" table prefix", *prefix); err != nil {
		return err
	}
	return nil
}

func printDBResult(res sync.DBResult) {
	fmt.Printf("%s (%s)\n", res.Message, humanize.Bytes(uint64(res.Bytes)))
	if res.Backup != "" {
		fmt.Printf(i18n.T("db.backup_at")+"\n", res.Backup)
	}
}

func newDBPushCmd() *cobra.Command {
	var excludeTables []string
	cmd := &cobra.Command{
		Use:   "push <site>",
		Short: "Replace the remote database with the local one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			site, err := deps.Store.Site(id)
			if err != nil {
				return err
			}
			if site.Database == nil {
				return fmt.Errorf("site %q has no database configuration; run `wp-deploy db config` first", site.Name)
			}
			if site.Database.RequireConfirmationOnPush &&
				!confirm(fmt.Sprintf(i18n.T("db.confirm_push"), site.Name)) {
				fmt.Println(i18n.T("common.aborted"))
				return nil
			}

			res, err := deps.DBPush(id, sync.DBOptions{ExcludeTables: excludeTables}, printProgress)
			if err != nil {
				return err
			}
			printDBResult(res)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&excludeTables, "exclude-tables", nil, "additional tables to leave out of the dump")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the destructive-operation confirmation")
	return cmd
}

func newDBPullCmd() *cobra.Command {
	var excludeTables []string
	cmd := &cobra.Command{
		Use:   "pull <site>",
		Short: "Replace the local database with the remote one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			res, err := deps.DBPull(id, sync.DBOptions{ExcludeTables: excludeTables}, printProgress)
			if err != nil {
				return err
			}
			printDBResult(res)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&excludeTables, "exclude-tables", nil, "additional tables to leave out of the dump")
	return cmd
}

func newDBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <site>",
		Short: "Verify the local database credentials with a direct connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			site, err := deps.Store.Site(id)
			if err != nil {
				return err
			}

			password, err := deps.Secrets.DBPassword(id, security.DBLocal)
			if err != nil {
				warnf("no stored local db password, trying without one")
				password = nil
			}
			defer password.Zero()

			if err := dbcheck.Ping(site.Database, password); err != nil {
				return err
			}
			fmt.Println(i18n.T("db.check_ok"))
			return nil
		},
	}
}

func newDBSetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set-password <site> <local|remote>",
		Short:     "Store a database password in the OS keyring",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{security.DBLocal, security.DBRemote},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			side := args[1]
			if side != security.DBLocal && side != security.DBRemote {
				return fmt.Errorf("side must be %q or %q", security.DBLocal, security.DBRemote)
			}

			password, err := promptPassword(fmt.Sprintf(i18n.T("db.prompt_password"), side))
			if err != nil {
				return err
			}
			defer password.Zero()
			if err := deps.Secrets.SetDBPassword(id, side, password); err != nil {
				return err
			}
			fmt.Println(i18n.T("site.password_stored"))
			return nil
		},
	}
}
