// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package wpcli

import (
	"net/url"
	"regexp"
	"strings"
)

// brokenSchemeRe repairs pasted URLs where the scheme separator lost a
// slash ("https:/example.com") or gained extras.
var brokenSchemeRe = regexp.MustCompile(`^(https?):/+`)

// NormalizeURL canonicalizes a site URL for the search-replace pair:
// scheme separators are repaired and any trailing slash is stripped.
// Empty or scheme-less input normalizes to "" and should be rejected by
// the caller.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	raw = brokenSchemeRe.ReplaceAllString(raw, "$1://")
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""
	u.RawQuery = ""
	return u.String()
}
