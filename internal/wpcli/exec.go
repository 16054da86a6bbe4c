// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package wpcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/toeirei/wp-deploy/internal/logging"
)

// DefaultLocalTimeout bounds local WP-CLI invocations. Database exports on
// large sites are the slow case.
const DefaultLocalTimeout = 5 * time.Minute

// localRunner returns a Runner that executes commands through the shell in
// the given working directory.
func localRunner(dir string) Runner {
	return func(command string) (string, string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultLocalTimeout)
		defer cancel()

		logging.Debugf("executing local command: %s", command)
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = dir

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		if ctx.Err() == context.DeadlineExceeded {
			return stdout.String(), stderr.String(),
				fmt.Errorf("command timed out after %s", DefaultLocalTimeout)
		}
		if err != nil {
			return stdout.String(), stderr.String(),
				fmt.Errorf("command failed: %s: %w", strings.TrimSpace(stderr.String()), err)
		}
		return stdout.String(), stderr.String(), nil
	}
}
