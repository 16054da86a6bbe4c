// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"fmt"
	"path"
	"strings"

	"github.com/toeirei/wp-deploy/internal/i18n"
	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/wpcli"
)

// TestConnection dials the site, runs a trivial command, and checks whether
// the remote path exists and WP-CLI answers. The returned message summarizes
// what worked.
func (d Deps) TestConnection(siteID string) (string, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return "", err
	}

	sess, err := d.Dial(site)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", site, err)
	}
	defer sess.Close()

	if _, _, err := sess.Run("echo ok"); err != nil {
		return "", fmt.Errorf("run test command on %s: %w", site, err)
	}

	parts := []string{fmt.Sprintf(i18n.T("test.connected"), site)}

	if exists, exErr := sess.Exists(site.RemotePath); exErr == nil && exists {
		parts = append(parts, fmt.Sprintf(i18n.T("test.path_ok"), site.RemotePath))
	} else {
		parts = append(parts, fmt.Sprintf(i18n.T("test.path_missing"), site.RemotePath))
	}

	remoteWP := d.RemoteWP(sess.Run, site.RemotePath)
	if ver, wpErr := remoteWP.Version(); wpErr == nil {
		parts = append(parts, fmt.Sprintf(i18n.T("test.wpcli_ok"), strings.TrimSpace(ver)))
	} else {
		logging.Debugf("test %s: wp-cli probe: %v", site.Name, wpErr)
		parts = append(parts, i18n.T("test.wpcli_missing"))
	}

	return strings.Join(parts, "\n"), nil
}

// RemoteWPConfig downloads and parses the site's remote wp-config.php, used
// to prefill the remote side of a database configuration.
func (d Deps) RemoteWPConfig(siteID string) (wpcli.WPConfig, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return wpcli.WPConfig{}, err
	}

	sess, err := d.Dial(site)
	if err != nil {
		return wpcli.WPConfig{}, fmt.Errorf("connect to %s: %w", site, err)
	}
	defer sess.Close()

	data, err := sess.ReadFile(path.Join(strings.TrimRight(site.RemotePath, "/"), "wp-config.php"))
	if err != nil {
		return wpcli.WPConfig{}, fmt.Errorf("read remote wp-config.php: %w", err)
	}
	wc := wpcli.ParseWPConfig(data)

	// Most configs don't define WP_HOME/WP_SITEURL; the options table is
	// the fallback URL source.
	if wc.HomeURL == "" && wc.SiteURL == "" {
		if url, optErr := d.RemoteWP(sess.Run, site.RemotePath).OptionGet("siteurl"); optErr == nil {
			wc.SiteURL = url
		} else {
			logging.Debugf("remote siteurl lookup for %s: %v", site.Name, optErr)
		}
	}
	return wc, nil
}
