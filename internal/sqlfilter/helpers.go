package sqlfilter

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const likeEscapeClause = "ESCAPE '\\'"

var likeReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"%", "\\%",
	"_", "\\_",
)

func escapeLikePattern(value string) string {
	return likeReplacer.Replace(value)
}

// getDatabaseDialect returns the active database dialect name (e.g. "sqlite", "postgres").
func getDatabaseDialect(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	return db.Dialector.Name()
}

// quoteIdent quotes an identifier with double quotes, which both sqlite and
// postgres accept. Embedded double quotes are doubled.
func quoteIdent(ident string) string {
	if ident == "" {
		return ident
	}
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(ident, "\"", "\"\""))
}

// qualify returns table.column quoted, or just the quoted column without a table
func qualify(table, column string) string {
	if table == "" {
		return quoteIdent(column)
	}
	return quoteIdent(table) + "." + quoteIdent(column)
}

// toSnakeCase converts "userName" to "user_name" and "externalID" to "external_id".
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			if prev >= 'a' && prev <= 'z' {
				result.WriteRune('_')
			} else if i < len(s)-1 {
				// "XMLParser" -> "xml_parser"
				next := rune(s[i+1])
				if next >= 'a' && next <= 'z' && prev != '_' {
					result.WriteRune('_')
				}
			}
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
