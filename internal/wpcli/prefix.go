// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package wpcli

import (
	"fmt"
	"os"
	"regexp"
)

// prefixStatements are the SQL contexts in which a table name follows the
// statement keyword(s) and an opening backtick or double quote. Only these
// occurrences are rewritten; the prefix string appearing anywhere else in
// the dump (option values, content) is left alone.
var prefixStatements = []string{
	"CREATE TABLE",
	"DROP TABLE IF EXISTS",
	"INSERT INTO",
	"LOCK TABLES",
	"UNLOCK TABLES",
	"ALTER TABLE",
	"REFERENCES",
}

// RewriteTablePrefix replaces oldPrefix with newPrefix in the table-name
// positions of a SQL dump and returns the rewritten dump and the number of
// replacements made. Equal prefixes are a no-op.
func RewriteTablePrefix(sql, oldPrefix, newPrefix string) (string, int) {
	if oldPrefix == newPrefix {
		return sql, 0
	}

	total := 0
	for _, stmt := range prefixStatements {
		re := regexp.MustCompile(regexp.QuoteMeta(stmt) + " (`|\")" + regexp.QuoteMeta(oldPrefix))
		sql = re.ReplaceAllStringFunc(sql, func(match string) string {
			total++
			return re.ReplaceAllString(match, stmt+" ${1}"+newPrefix)
		})
	}
	return sql, total
}

// RewriteTablePrefixFile applies RewriteTablePrefix to a dump file in place.
func RewriteTablePrefixFile(path, oldPrefix, newPrefix string) (int, error) {
	if oldPrefix == newPrefix {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read dump %s: %w", path, err)
	}
	rewritten, count := RewriteTablePrefix(string(data), oldPrefix, newPrefix)
	if count == 0 {
		return 0, nil
	}
	if err := os.WriteFile(path, []byte(rewritten), 0o600); err != nil {
		return count, fmt.Errorf("write dump %s: %w", path, err)
	}
	return count, nil
}
