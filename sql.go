package scimfilter

import (
	"io"

	"github.com/nlstn/go-scimfilter/internal/sqlfilter"
	"gorm.io/gorm"
)

// Schema maps the SCIM attributes of one resource type to database columns.
// See LoadSchema for the YAML form:
//
//	table: users
//	primaryKey: id
//	attributes:
//	  userName: user_name
//	  name.familyName: family_name
//	multiValued:
//	  emails:
//	    table: emails
//	    foreignKey: user_id
type Schema = sqlfilter.Schema

// MultiValued maps a multi-valued attribute to a child table.
type MultiValued = sqlfilter.MultiValued

// LoadSchema decodes a YAML schema mapping.
func LoadSchema(r io.Reader) (*Schema, error) {
	return sqlfilter.LoadSchema(r)
}

// LoadSchemaFile decodes the YAML schema mapping stored at path.
func LoadSchemaFile(path string) (*Schema, error) {
	return sqlfilter.LoadSchemaFile(path)
}

// Scope returns a GORM scope restricting a query to rows that match filter.
// Translation failures are added to the query and surface as its Error,
// matching ErrUntranslatable.
//
//	var users []User
//	err := db.Scopes(scimfilter.Scope(filter, schema)).Find(&users).Error
func Scope(filter Filter, schema *Schema) func(*gorm.DB) *gorm.DB {
	return sqlfilter.Scope(filter, schema)
}

// Where translates filter into a WHERE condition and its arguments for the
// named dialect ("sqlite", "postgres").
func Where(dialect string, filter Filter, schema *Schema) (string, []interface{}, error) {
	return sqlfilter.Build(dialect, filter, schema)
}
