package sqlquery

import (
	"fmt"
	"regexp"
	"strings"

	"agri-assist-be/pkg/policy"
)

// forbiddenKeywords are statement types that must never reach the tabular
// engine, whatever guard the engine itself carries.
var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop", "alter",
	"create", "truncate", "grant", "revoke", "merge",
}

var (
	tableRefPattern  = regexp.MustCompile(`(?i)(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	identifierChunks = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

	// A select-list wildcard: "*" or "t.*" opening the list, following a
	// comma or an opening paren, or right after SELECT/DISTINCT. The
	// boundary set keeps arithmetic ("price * 2") out.
	selectStarPattern = regexp.MustCompile(`(?:^|,|\(|\bselect\s+|\bdistinct\s+)\s*(?:[a-z_][a-z0-9_]*\.)?\*`)
)

// CheckReadOnly rejects anything that is not a single SELECT statement.
func CheckReadOnly(sql string) error {
	lowered := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";")))
	if !strings.HasPrefix(lowered, "select") {
		return fmt.Errorf("%w: statement does not start with SELECT", ErrUnsafeQuery)
	}
	for _, word := range forbiddenKeywords {
		if containsWord(lowered, word) {
			return fmt.Errorf("%w: forbidden keyword %q", ErrUnsafeQuery, word)
		}
	}
	if strings.Contains(lowered, ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}
	return nil
}

// ExtractTables returns the table names referenced in FROM and JOIN
// clauses, in order of appearance.
func ExtractTables(sql string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(sql, -1)
	tables := make([]string, 0, len(matches))
	seen := map[string]struct{}{}
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	return tables
}

// CheckPolicy verifies that every referenced table is accessible to the
// role and that no column outside the role's grant appears in the
// statement. Violations fail closed: no retry, no execution.
func CheckPolicy(sql string, role policy.Role, pol *policy.Policy) error {
	tables := ExtractTables(sql)
	if len(tables) == 0 {
		return fmt.Errorf("%w: no recognizable table reference", ErrUnsafeQuery)
	}

	lowered := strings.ToLower(sql)

	identifiers := map[string]struct{}{}
	for _, ident := range identifierChunks.FindAllString(lowered, -1) {
		identifiers[ident] = struct{}{}
	}

	// count(*) exposes no column values, so it never widens the grant.
	selectsStar := selectStarPattern.MatchString(strings.ReplaceAll(lowered, "count(*)", ""))

	for _, table := range tables {
		allowed, err := pol.CanAccessTable(role, table)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%w: role %s may not query table %s", policy.ErrViolation, role, table)
		}

		allowedCols, err := pol.AllowedColumns(role, table)
		if err != nil {
			return err
		}
		allowedSet := make(map[string]struct{}, len(allowedCols))
		for _, c := range allowedCols {
			allowedSet[strings.ToLower(c)] = struct{}{}
		}

		// A wildcard expands to every column of the table, so it is only
		// acceptable when the role's grant covers the whole table.
		if selectsStar && len(allowedSet) < len(pol.TableUniverse(table)) {
			return fmt.Errorf("%w: wildcard select on %s exceeds the grant of role %s",
				policy.ErrViolation, table, role)
		}

		// Any identifier that is a real column of this table but not in
		// the role's grant means the model reached outside its schema view.
		for _, col := range pol.TableUniverse(table) {
			colName := strings.ToLower(col)
			if _, referenced := identifiers[colName]; !referenced {
				continue
			}
			if _, ok := allowedSet[colName]; !ok {
				return fmt.Errorf("%w: column %s.%s is outside the grant of role %s",
					policy.ErrViolation, table, col, role)
			}
		}
	}
	return nil
}

// CheckResultColumns is the gate behind execution: no column of a
// referenced table may appear in the result set unless the role's grant
// includes it. Names the referenced tables do not know (aliases,
// aggregate labels) pass through untouched.
func CheckResultColumns(columns []string, sql string, role policy.Role, pol *policy.Policy) error {
	for _, table := range ExtractTables(sql) {
		allowedCols, err := pol.AllowedColumns(role, table)
		if err != nil {
			return err
		}
		allowedSet := make(map[string]struct{}, len(allowedCols))
		for _, c := range allowedCols {
			allowedSet[strings.ToLower(c)] = struct{}{}
		}
		universe := make(map[string]struct{})
		for _, c := range pol.TableUniverse(table) {
			universe[strings.ToLower(c)] = struct{}{}
		}

		for _, col := range columns {
			lowered := strings.ToLower(col)
			if _, known := universe[lowered]; !known {
				continue
			}
			if _, ok := allowedSet[lowered]; !ok {
				return fmt.Errorf("%w: result column %s.%s is outside the grant of role %s",
					policy.ErrViolation, table, col, role)
			}
		}
	}
	return nil
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		pos := strings.Index(haystack[idx:], word)
		if pos < 0 {
			return false
		}
		pos += idx
		before := pos == 0 || !isWordChar(haystack[pos-1])
		afterIdx := pos + len(word)
		after := afterIdx >= len(haystack) || !isWordChar(haystack[afterIdx])
		if before && after {
			return true
		}
		idx = pos + len(word)
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
