package graph

import (
	"fmt"

	"github.com/go-openapi/inflect"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	rs := inflect.NewDefaultRuleset()
	// Common initialisms kept intact when converting case.
	for _, w := range []string{"ID", "URL", "UUID", "API", "SQL"} {
		rs.AddAcronym(w)
	}
	return rs
}

// Snake converts a type or relationship name to snake_case.
func Snake(s string) string { return rules.Underscore(s) }

// Pascal converts a snake_case name to PascalCase.
func Pascal(s string) string { return rules.Camelize(s) }

// tableName derives the default storage name of a type: the pluralized
// snake-case form of its name.
func tableName(typ string) string {
	return rules.Pluralize(rules.Underscore(typ))
}

// label identifies an association by its assoc side: source_relname.
func label(source, relName string) string {
	return fmt.Sprintf("%s_%s", Snake(source), Snake(relName))
}
