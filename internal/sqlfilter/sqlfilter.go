// Package sqlfilter translates parsed SCIM filters into SQL conditions for GORM.
package sqlfilter

import (
	"errors"
	"fmt"

	"github.com/nlstn/go-scimfilter/internal/ast"
	"gorm.io/gorm"
)

// ErrUntranslatable is matched by every error returned for a filter that is
// valid SCIM but cannot be expressed against the schema.
var ErrUntranslatable = errors.New("scimfilter: filter cannot be translated to SQL")

var (
	errUnknownAttribute = errors.New("unknown attribute")
	errUnsupportedPath  = errors.New("unsupported path expression")
	errInvalidOperand   = errors.New("invalid operand")
	errInvalidSchema    = errors.New("invalid schema")
)

// scope is the table a condition is evaluated against
type scope struct {
	table   string
	mapping map[string]string
	// prefix is set inside a complex single-valued attribute filter such as name[...]
	prefix string
	child  bool
}

type builder struct {
	dialect string
	schema  *Schema
}

// Build translates filter into a WHERE condition and its arguments for dialect.
// A nil schema maps every attribute to its snake_case column.
func Build(dialect string, filter ast.Filter, schema *Schema) (string, []interface{}, error) {
	if schema == nil {
		schema = &Schema{}
	}
	b := &builder{dialect: dialect, schema: schema}
	query, args, err := b.build(filter, b.root())
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrUntranslatable, err)
	}
	return query, args, nil
}

// Scope returns a GORM scope that restricts a query to rows matching filter.
// Translation errors are added to the returned *gorm.DB.
func Scope(filter ast.Filter, schema *Schema) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter == nil {
			return db
		}
		query, args, err := Build(getDatabaseDialect(db), filter, schema)
		if err != nil {
			_ = db.AddError(err) //nolint:errcheck
			return db
		}
		return db.Where(query, args...)
	}
}

func (b *builder) root() scope {
	return scope{table: b.schema.Table, mapping: b.schema.Attributes}
}

func (b *builder) build(filter ast.Filter, sc scope) (string, []interface{}, error) {
	switch node := filter.(type) {
	case *ast.Conjunction:
		return b.buildLogical("AND", node.Left(), node.Right(), sc)
	case *ast.Disjunction:
		return b.buildLogical("OR", node.Left(), node.Right(), sc)
	case *ast.Negation:
		query, args, err := b.build(node.Inner(), sc)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("NOT (%s)", query), args, nil
	case *ast.ValuePath:
		return b.buildValuePath(node, sc)
	case *ast.ComparisonExpression:
		return b.buildComparison(node, sc)
	}
	return "", nil, fmt.Errorf("%w: %T", errUnsupportedPath, filter)
}

func (b *builder) buildLogical(op string, left, right ast.Filter, sc scope) (string, []interface{}, error) {
	leftQuery, leftArgs, err := b.build(left, sc)
	if err != nil {
		return "", nil, err
	}
	rightQuery, rightArgs, err := b.build(right, sc)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s) %s (%s)", leftQuery, op, rightQuery), append(leftArgs, rightArgs...), nil
}

// buildValuePath translates attr[filter]. Multi-valued attributes become an
// EXISTS subquery on their child table; complex single-valued attributes
// evaluate the inner filter against their own sub-attributes.
func (b *builder) buildValuePath(vp *ast.ValuePath, sc scope) (string, []interface{}, error) {
	if vp.SubAttributePath() != nil {
		return "", nil, fmt.Errorf("%w: %s", errUnsupportedPath, vp)
	}

	attr := vp.AttributePath()
	if attr.SubAttribute() != "" {
		return "", nil, fmt.Errorf("%w: %s", errUnsupportedPath, vp)
	}

	if mv, ok := b.schema.multiValued(attr.Name()); ok {
		inner, args, err := b.build(vp.Filter(), b.childScope(mv))
		if err != nil {
			return "", nil, err
		}
		return b.exists(mv, inner), args, nil
	}

	complexScope := sc
	complexScope.prefix = attr.Name()
	return b.build(vp.Filter(), complexScope)
}

func (b *builder) childScope(mv MultiValued) scope {
	return scope{table: mv.Table, mapping: mv.Attributes, child: true}
}

func (b *builder) exists(mv MultiValued, condition string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s = %s AND (%s))",
		quoteIdent(mv.Table),
		qualify(mv.Table, mv.ForeignKey),
		qualify(b.schema.Table, b.schema.primaryKey()),
		condition)
}

func (b *builder) buildComparison(c *ast.ComparisonExpression, sc scope) (string, []interface{}, error) {
	attr, ok := c.Path().(*ast.AttributePath)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", errUnsupportedPath, c.Path())
	}

	// emails co "x" and emails.type eq "work" compare rows of the child table
	if !sc.child && sc.prefix == "" {
		if mv, ok := b.schema.multiValued(attr.Name()); ok {
			sub := attr.SubAttribute()
			if sub == "" {
				sub = "value"
			}
			col, err := column(mv.Attributes, sub, b.schema.Strict)
			if err != nil {
				return "", nil, err
			}
			cond, args, err := b.condition(qualify(mv.Table, col), c)
			if err != nil {
				return "", nil, err
			}
			return b.exists(mv, cond), args, nil
		}
	}

	path := attr.Name()
	if attr.SubAttribute() != "" {
		if sc.child || sc.prefix != "" {
			return "", nil, fmt.Errorf("%w: %s", errUnsupportedPath, attr)
		}
		path += "." + attr.SubAttribute()
	}
	if sc.prefix != "" {
		path = sc.prefix + "." + path
	}

	col, err := column(sc.mapping, path, b.schema.Strict)
	if err != nil {
		return "", nil, err
	}
	return b.condition(qualify(sc.table, col), c)
}

// condition renders the comparison of one column
func (b *builder) condition(col string, c *ast.ComparisonExpression) (string, []interface{}, error) {
	op := c.Operator()
	if op == ast.OpPresent {
		return fmt.Sprintf("%s IS NOT NULL", col), nil, nil
	}

	value, _ := c.Value()

	switch {
	case op == ast.OpEqual:
		if value.IsNull() {
			return fmt.Sprintf("%s IS NULL", col), nil, nil
		}
		return fmt.Sprintf("%s = ?", col), []interface{}{sqlArg(value)}, nil
	case op == ast.OpNotEqual:
		if value.IsNull() {
			return fmt.Sprintf("%s IS NOT NULL", col), nil, nil
		}
		return fmt.Sprintf("%s <> ?", col), []interface{}{sqlArg(value)}, nil
	case op.IsSubstring():
		return b.like(col, op, value)
	case op.IsOrdering():
		if value.Kind() == ast.ValueNull || value.Kind() == ast.ValueBool {
			return "", nil, fmt.Errorf("%w: %s cannot be ordered", errInvalidOperand, value.Kind())
		}
		return fmt.Sprintf("%s %s ?", col, orderingOperators[op]), []interface{}{sqlArg(value)}, nil
	}
	return "", nil, fmt.Errorf("%w: operator %s", errUnsupportedPath, op)
}

var orderingOperators = map[ast.Operator]string{
	ast.OpGreaterThan:        ">",
	ast.OpGreaterThanOrEqual: ">=",
	ast.OpLessThan:           "<",
	ast.OpLessThanOrEqual:    "<=",
}

func (b *builder) like(col string, op ast.Operator, value ast.Value) (string, []interface{}, error) {
	if value.Kind() == ast.ValueNull || value.Kind() == ast.ValueBool {
		return "", nil, fmt.Errorf("%w: %s is not a string", errInvalidOperand, value.Kind())
	}

	pattern := escapeLikePattern(value.String())
	switch op {
	case ast.OpContains:
		pattern = "%" + pattern + "%"
	case ast.OpStartsWith:
		pattern += "%"
	case ast.OpEndsWith:
		pattern = "%" + pattern
	}

	keyword := "LIKE"
	if b.dialect == "postgres" {
		keyword = "ILIKE"
	}
	return fmt.Sprintf("%s %s ? %s", col, keyword, likeEscapeClause), []interface{}{pattern}, nil
}

// sqlArg converts a literal into a driver-friendly argument
func sqlArg(v ast.Value) interface{} {
	if v.Kind() == ast.ValueNumber {
		d := v.Number()
		if d.IsInteger() {
			return d.IntPart()
		}
		return d.InexactFloat64()
	}
	return v.Interface()
}
