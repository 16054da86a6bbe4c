// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// syncops.go implements the file transfer commands: connection test, push,
// pull, and the zip-based folder transfers.

package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/sync"
)

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <site>",
		Short: "Test the SSH connection and remote environment of a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			msg, err := deps.TestConnection(id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func newPushCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "push <site>",
		Short: "Upload files changed since the last push (per git history)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}

			if dryRun {
				files, head, _, err := deps.FilesToPush(id)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Println(i18n.T("push.nothing_to_do"))
					return nil
				}
				fmt.Printf(i18n.T("push.dry_run")+"\n", len(files), head)
				for _, f := range files {
					fmt.Println("  " + f)
				}
				return nil
			}

			res, err := deps.Push(id, printProgress)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", res.Message, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the files that would be uploaded")
	return cmd
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", value)
	}
	return t, nil
}

func newPullCmd() *cobra.Command {
	var fromStr, toStr string
	var includes []string
	var newerOnly, dryRun bool
	cmd := &cobra.Command{
		Use:   "pull <site>",
		Short: "Download remote files (uploads by default) into the working copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}

			from, err := parseDate(fromStr)
			if err != nil {
				return err
			}
			to, err := parseDate(toStr)
			if err != nil {
				return err
			}
			// An end date names the whole day.
			if !to.IsZero() {
				to = to.Add(24*time.Hour - time.Nanosecond)
			}
			opts := sync.PullOptions{
				From:         from,
				To:           to,
				IncludePaths: includes,
				NewerOnly:    newerOnly,
			}

			if dryRun {
				files, err := deps.FilesToPull(id, opts)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Println(i18n.T("pull.nothing_to_do"))
					return nil
				}
				fmt.Printf(i18n.T("pull.dry_run")+"\n", len(files))
				for _, f := range files {
					fmt.Printf("  %s  (%s, %s)\n", f.Path, humanize.Bytes(uint64(f.Size)), f.ModTime.Format("2006-01-02 15:04"))
				}
				return nil
			}

			res, err := deps.Pull(id, opts, printProgress)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", res.Message, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", "", "only files modified on or after this date")
	cmd.Flags().StringVar(&toStr, "to", "", "only files modified on or before this date")
	cmd.Flags().StringSliceVar(&includes, "include", nil, "remote paths to pull (default: site's pull paths)")
	cmd.Flags().BoolVar(&newerOnly, "newer-only", false, "skip files whose local copy is at least as new")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the files that would be downloaded")
	return cmd
}

func newPushFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push-folder <site> <folder>",
		Short: "Upload one folder as a zip archive, extracted remotely",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			res, err := deps.PushFolder(id, args[1], printProgress)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", res.Message, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}
}

func newPullFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull-folder <site> <folder>",
		Short: "Download one remote folder as a zip archive, extracted locally",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSite(args[0])
			if err != nil {
				return err
			}
			res, err := deps.PullFolder(id, args[1], printProgress)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", res.Message, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}
}
