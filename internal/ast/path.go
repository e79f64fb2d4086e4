package ast

import "strings"

// AttributePath references an attribute: [uri:]name[.subAttribute].
type AttributePath struct {
	uri          string
	name         string
	subAttribute string
}

// NewAttributePath creates an attribute path. uri and subAttribute may be empty.
func NewAttributePath(uri, name, subAttribute string) *AttributePath {
	return &AttributePath{uri: uri, name: name, subAttribute: subAttribute}
}

func (*AttributePath) comparablePath() {}

// URI returns the schema URI prefix, or "" when absent.
func (p *AttributePath) URI() string { return p.uri }

// Name returns the attribute name.
func (p *AttributePath) Name() string { return p.name }

// SubAttribute returns the sub-attribute name, or "" when absent.
func (p *AttributePath) SubAttribute() string { return p.subAttribute }

func (p *AttributePath) String() string {
	var b strings.Builder
	if p.uri != "" {
		b.WriteString(p.uri)
		b.WriteByte(':')
	}
	b.WriteString(p.name)
	if p.subAttribute != "" {
		b.WriteByte('.')
		b.WriteString(p.subAttribute)
	}
	return b.String()
}

func (p *AttributePath) Dump() map[string]interface{} {
	return map[string]interface{}{KindAttributePath: p.String()}
}

// ValuePath is a multi-valued attribute narrowed by a filter over its elements,
// optionally followed by a sub-attribute (PATH mode only).
type ValuePath struct {
	attributePath    *AttributePath
	filter           Filter
	subAttributePath *AttributePath
}

// NewValuePath creates a value path. subAttributePath may be nil.
func NewValuePath(attributePath *AttributePath, filter Filter, subAttributePath *AttributePath) *ValuePath {
	return &ValuePath{
		attributePath:    attributePath,
		filter:           filter,
		subAttributePath: subAttributePath,
	}
}

func (*ValuePath) filterNode()     {}
func (*ValuePath) factorNode()     {}
func (*ValuePath) comparablePath() {}

// AttributePath returns the multi-valued attribute being filtered.
func (v *ValuePath) AttributePath() *AttributePath { return v.attributePath }

// Filter returns the filter applied to each element.
func (v *ValuePath) Filter() Filter { return v.filter }

// SubAttributePath returns the trailing sub-attribute, or nil when absent.
func (v *ValuePath) SubAttributePath() *AttributePath { return v.subAttributePath }

func (v *ValuePath) String() string {
	base := v.attributePath.String() + "[" + v.filter.String() + "]"
	if v.subAttributePath != nil {
		return base + "." + v.subAttributePath.String()
	}
	return base
}

func (v *ValuePath) Dump() map[string]interface{} {
	children := []interface{}{
		v.attributePath.Dump(),
		v.filter.Dump(),
	}
	if v.subAttributePath != nil {
		children = append(children, v.subAttributePath.Dump())
	}
	return map[string]interface{}{KindValuePath: children}
}
