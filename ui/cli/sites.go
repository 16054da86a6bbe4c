// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// sites.go implements the `site` command family: registration, listing,
// inspection, removal, credential management, and the export/import
// envelope for moving a site between machines.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/security"
	"github.com/toeirei/wp-deploy/internal/state"
)

func newSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Manage site configurations",
	}
	cmd.AddCommand(
		newSiteAddCmd(),
		newSiteListCmd(),
		newSiteShowCmd(),
		newSiteRemoveCmd(),
		newSiteSetPasswordCmd(),
		newSiteExportCmd(),
		newSiteImportCmd(),
	)
	return cmd
}

func newSiteAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Register a new site interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			name, err := promptLine(reader, i18n.T("site.prompt_name"), "")
			if err != nil {
				return err
			}
			localPath, err := promptLine(reader, i18n.T("site.prompt_local_path"), "")
			if err != nil {
				return err
			}
			gitPath, err := promptLine(reader, i18n.T("site.prompt_git_path"), localPath)
			if err != nil {
				return err
			}
			host, err := promptLine(reader, i18n.T("site.prompt_host"), "")
			if err != nil {
				return err
			}
			portStr, err := promptLine(reader, i18n.T("site.prompt_port"), "22")
			if err != nil {
				return err
			}
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return fmt.Errorf("invalid port %q", portStr)
			}
			user, err := promptLine(reader, i18n.T("site.prompt_user"), "")
			if err != nil {
				return err
			}
			remotePath, err := promptLine(reader, i18n.T("site.prompt_remote_path"), "")
			if err != nil {
				return err
			}
			keyFile, err := promptLine(reader, i18n.T("site.prompt_key_file"), "")
			if err != nil {
				return err
			}
			siteURL, err := promptLine(reader, i18n.T("site.prompt_url"), "")
			if err != nil {
				return err
			}

			site := model.Site{
				ID:               deps.NewID(),
				Name:             name,
				LocalPath:        localPath,
				GitRepoPath:      gitPath,
				RemoteHost:       host,
				RemotePort:       port,
				RemotePath:       remotePath,
				RemoteUsername:   user,
				SSHKeyFile:       keyFile,
				SiteURL:          siteURL,
				ExcludePatterns:  model.DefaultExcludePatterns(),
				PullIncludePaths: []string{"wp-content/uploads"},
			}
			if err := deps.Store.AddSite(site); err != nil {
				return err
			}

			if keyFile == "" {
				password, err := promptPassword(i18n.T("site.prompt_password"))
				if err != nil {
					return err
				}
				if !password.IsZero() {
					if err := deps.Secrets.SetSSHPassword(site.ID, password); err != nil {
						warnf("could not store SSH password in the keyring: %v", err)
						warnf("keeping it in memory for this session only")
						state.PasswordCache.Set(password.Bytes())
					}
					password.Zero()
				}
			}

			fmt.Printf(i18n.T("site.added")+"\n", site.Name, site.ID)
			return nil
		},
	}
}

func newSiteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := deps.Store.Sites()
			if err != nil {
				return err
			}
			if len(sites) == 0 {
				fmt.Println(i18n.T("site.none"))
				return nil
			}
			for _, site := range sites {
				db := ""
				if site.Database != nil {
					db = "  [db]"
				}
				fmt.Printf("%-24s %s  %s:%s%s\n", site.Name, site.ID, site, site.RemotePath, db)
			}
			return nil
		},
	}
}

func formatOp(op *model.OperationState) string {
	if op == nil {
		return "never"
	}
	out := fmt.Sprintf("%s  %s  %d file(s), %s",
		op.Timestamp, op.Status, op.FilesCount, humanize.Bytes(uint64(op.BytesTransferred)))
	if op.ErrorMessage != "" {
		out += "  (" + op.ErrorMessage + ")"
	}
	return out
}

func formatDBOp(op *model.DatabaseOperationState) string {
	if op == nil {
		return "never"
	}
	out := fmt.Sprintf("%s  %s  %d table(s), %s, %d URL row(s)",
		op.Timestamp, op.Status, op.TablesImported, humanize.Bytes(uint64(op.BytesTransferred)), op.URLsReplaced)
	if op.ErrorMessage != "" {
		out += "  (" + op.ErrorMessage + ")"
	}
	return out
}

func newSiteShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <site>",
		Short: "Show a site's configuration and sync state",
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

			fmt.Printf("Name:         %s\n", site.Name)
			fmt.Printf("ID:           %s\n", site.ID)
			fmt.Printf("Local path:   %s\n", site.LocalPath)
			fmt.Printf("Git repo:     %s\n", site.GitRepoPath)
			fmt.Printf("Remote:       %s:%d %s\n", site, site.RemotePort, site.RemotePath)
			if site.SSHKeyFile != "" {
				fmt.Printf("SSH key:      %s\n", site.SSHKeyFile)
			}
			fmt.Printf("Site URL:     %s\n", site.SiteURL)
			fmt.Printf("Last commit:  %s\n", site.LastPushedCommit)
			fmt.Printf("Excludes:     %v\n", site.ExcludePatterns)
			fmt.Printf("Pull paths:   %v\n", site.PullIncludePaths)
			if db := site.Database; db != nil {
				fmt.Printf("Database:     local %s@%s:%d/%s (%s)  remote %s@%s:%d/%s (%s)\n",
					db.LocalDBUser, db.LocalDBHost, db.LocalDBPort, db.LocalDBName, db.LocalTablePrefix,
					db.RemoteDBUser, db.RemoteDBHost, db.RemoteDBPort, db.RemoteDBName, db.RemoteTablePrefix)
				fmt.Printf("URL pair:     %s <-> %s\n", db.LocalURL, db.RemoteURL)
			}

			st, err := deps.Store.SyncState(site.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Last push:    %s\n", formatOp(st.LastPush))
			fmt.Printf("Last pull:    %s\n", formatOp(st.LastPull))
			fmt.Printf("Last db push: %s\n", formatDBOp(st.LastDBPush))
			fmt.Printf("Last db pull: %s\n", formatDBOp(st.LastDBPull))
			return nil
		},
	}
}

func newSiteRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <site>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a site and its stored credentials",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			site, err := deps.Store.Site(id)
			if err != nil {
				return err
			}
			if !confirm(fmt.Sprintf(i18n.T("site.confirm_remove"), site.Name)) {
				fmt.Println(i18n.T("common.aborted"))
				return nil
			}

			if err := deps.Secrets.DeleteSSHPassword(id); err != nil {
				warnf("delete SSH password: %v", err)
			}
			for _, side := range []string{security.DBLocal, security.DBRemote} {
				if err := deps.Secrets.DeleteDBPassword(id, side); err != nil {
					warnf("delete %s db password: %v", side, err)
				}
			}
			if err := deps.Store.DeleteSite(id); err != nil {
				return err
			}
			fmt.Printf(i18n.T("site.removed")+"\n", site.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newSiteSetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-password <site>",
		Short: "Store or replace a site's SSH password in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			password, err := promptPassword(i18n.T("site.prompt_password"))
			if err != nil {
				return err
			}
			defer password.Zero()
			if password.IsZero() {
				return fmt.Errorf("empty password")
			}
			if err := deps.Secrets.SetSSHPassword(id, password); err != nil {
				warnf("could not store SSH password in the keyring: %v", err)
				warnf("keeping it in memory for this session only")
				state.PasswordCache.Set(password.Bytes())
				return nil
			}
			fmt.Println(i18n.T("site.password_stored"))
			return nil
		},
	}
}

func newSiteExportCmd() *cobra.Command {
	var outFile string
	var toClipboard bool
	cmd := &cobra.Command{
		Use:   "export <site>",
		Short: "Export a site (including credentials) as a JSON envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			data, err := deps.ExportSite(id)
			if err != nil {
				return err
			}

			switch {
			case toClipboard:
				if err := clipboard.WriteAll(string(data)); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Println(i18n.T("site.export_clipboard"))
			case outFile != "":
				if err := os.WriteFile(outFile, data, 0o600); err != nil {
					return err
				}
				fmt.Printf(i18n.T("site.export_written")+"\n", outFile)
			default:
				fmt.Println(string(data))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the envelope to a file")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "copy the envelope to the clipboard")
	return cmd
}

func newSiteImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a site from a JSON envelope (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			site, err := deps.ImportSite(data)
			if err != nil {
				return err
			}
			fmt.Printf(i18n.T("site.imported")+"\n", site.Name, site.ID)
			return nil
		},
	}
}
