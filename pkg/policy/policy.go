package policy

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownRole is returned when a policy lookup is attempted for a role
// outside the configured set. Callers must treat it as deny-all.
var ErrUnknownRole = errors.New("unknown role")

// ErrViolation marks an access attempt outside the role's grant. It is
// fatal for the request: no retry, no fallback.
var ErrViolation = errors.New("policy violation")

// TableSchema is the view of one table a role is allowed to see.
type TableSchema struct {
	Name    string
	Columns []string
}

// TableGrant describes one table inside a role grant.
type TableGrant struct {
	Columns []string `yaml:"columns"`
}

// RoleGrant is the raw permission set for a single role.
type RoleGrant struct {
	DocumentTags []string              `yaml:"document_tags"`
	Tables       map[string]TableGrant `yaml:"tables"`
}

// Policy is the immutable role → permission mapping. It is constructed once
// at startup and shared read-only across all requests.
type Policy struct {
	grants map[Role]RoleGrant
}

// New builds a Policy from role grants. The admin grant is widened to the
// union of every other role's grant so the admin superset invariant holds
// regardless of what the source document says.
func New(grants map[Role]RoleGrant) (*Policy, error) {
	if len(grants) == 0 {
		return nil, fmt.Errorf("policy: no role grants configured")
	}

	copied := make(map[Role]RoleGrant, len(grants)+1)
	for role, g := range grants {
		if _, ok := ParseRole(string(role)); !ok {
			return nil, fmt.Errorf("policy: grant for unrecognized role %q", role)
		}
		copied[role] = normalizeGrant(g)
	}
	copied[RoleAdmin] = adminGrant(copied)

	return &Policy{grants: copied}, nil
}

// VisibleTags returns the document tags the role may retrieve.
func (p *Policy) VisibleTags(role Role) ([]string, error) {
	g, ok := p.grants[role]
	if !ok {
		return nil, fmt.Errorf("policy: %w: %s", ErrUnknownRole, role)
	}
	out := make([]string, len(g.DocumentTags))
	copy(out, g.DocumentTags)
	return out, nil
}

// CanAccessTable reports whether the role may query the table at all.
func (p *Policy) CanAccessTable(role Role, table string) (bool, error) {
	g, ok := p.grants[role]
	if !ok {
		return false, fmt.Errorf("policy: %w: %s", ErrUnknownRole, role)
	}
	grant, ok := g.Tables[table]
	return ok && len(grant.Columns) > 0, nil
}

// AllowedColumns returns the columns of the table visible to the role.
// A known role with no grant on the table gets an empty set, not an error.
func (p *Policy) AllowedColumns(role Role, table string) ([]string, error) {
	g, ok := p.grants[role]
	if !ok {
		return nil, fmt.Errorf("policy: %w: %s", ErrUnknownRole, role)
	}
	grant, ok := g.Tables[table]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(grant.Columns))
	copy(out, grant.Columns)
	return out, nil
}

// VisibleSchema builds the role-constrained schema view handed to the SQL
// translator. Only tables with at least one granted column appear.
func (p *Policy) VisibleSchema(role Role) ([]TableSchema, error) {
	g, ok := p.grants[role]
	if !ok {
		return nil, fmt.Errorf("policy: %w: %s", ErrUnknownRole, role)
	}

	names := make([]string, 0, len(g.Tables))
	for name, grant := range g.Tables {
		if len(grant.Columns) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	schemas := make([]TableSchema, 0, len(names))
	for _, name := range names {
		cols := make([]string, len(g.Tables[name].Columns))
		copy(cols, g.Tables[name].Columns)
		schemas = append(schemas, TableSchema{Name: name, Columns: cols})
	}
	return schemas, nil
}

// TableUniverse returns the full column set of a table across all grants.
// The SQL guard uses it to recognize columns the role was not shown.
func (p *Policy) TableUniverse(table string) []string {
	admin := p.grants[RoleAdmin]
	grant, ok := admin.Tables[table]
	if !ok {
		return nil
	}
	out := make([]string, len(grant.Columns))
	copy(out, grant.Columns)
	return out
}

// KnownTables lists every table any role may query.
func (p *Policy) KnownTables() []string {
	admin := p.grants[RoleAdmin]
	names := make([]string, 0, len(admin.Tables))
	for name := range admin.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeGrant(g RoleGrant) RoleGrant {
	out := RoleGrant{
		DocumentTags: dedupe(g.DocumentTags),
		Tables:       make(map[string]TableGrant, len(g.Tables)),
	}
	for name, t := range g.Tables {
		out.Tables[name] = TableGrant{Columns: dedupe(t.Columns)}
	}
	return out
}

// adminGrant unions every role's tags and columns.
func adminGrant(grants map[Role]RoleGrant) RoleGrant {
	tagSet := map[string]struct{}{}
	tables := map[string]map[string]struct{}{}

	if existing, ok := grants[RoleAdmin]; ok {
		for _, tag := range existing.DocumentTags {
			tagSet[tag] = struct{}{}
		}
		for name, t := range existing.Tables {
			if tables[name] == nil {
				tables[name] = map[string]struct{}{}
			}
			for _, c := range t.Columns {
				tables[name][c] = struct{}{}
			}
		}
	}

	for role, g := range grants {
		if role == RoleAdmin {
			continue
		}
		for _, tag := range g.DocumentTags {
			tagSet[tag] = struct{}{}
		}
		for name, t := range g.Tables {
			if tables[name] == nil {
				tables[name] = map[string]struct{}{}
			}
			for _, c := range t.Columns {
				tables[name][c] = struct{}{}
			}
		}
	}

	out := RoleGrant{Tables: make(map[string]TableGrant, len(tables))}
	for tag := range tagSet {
		out.DocumentTags = append(out.DocumentTags, tag)
	}
	sort.Strings(out.DocumentTags)
	for name, cols := range tables {
		grant := TableGrant{}
		for c := range cols {
			grant.Columns = append(grant.Columns, c)
		}
		sort.Strings(grant.Columns)
		out.Tables[name] = grant
	}
	return out
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
