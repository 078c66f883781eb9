package domain

import "strings"

// DefaultHandlerKind names the strategy used to synthesize a segment value when
// an account is resolved from its last segment only.
type DefaultHandlerKind string

const (
	// DefaultNone means the position has no default and must be supplied.
	DefaultNone DefaultHandlerKind = ""
	// DefaultFromTenant derives the code from the calling tenant's own code.
	DefaultFromTenant DefaultHandlerKind = "tenant"
	// DefaultFromParentTenant derives the code from the calling tenant's parent.
	DefaultFromParentTenant DefaultHandlerKind = "parent_tenant"
	// DefaultFixedPrefix marks a handler of the form "fixed:<code>".
	DefaultFixedPrefix = "fixed:"
)

// FixedCode returns the literal code of a "fixed:<code>" handler and whether
// the handler is of that form.
func (k DefaultHandlerKind) FixedCode() (string, bool) {
	s := string(k)
	if strings.HasPrefix(s, DefaultFixedPrefix) {
		return strings.TrimPrefix(s, DefaultFixedPrefix), true
	}
	return "", false
}

// IsValid reports whether the handler kind is one the resolver knows.
func (k DefaultHandlerKind) IsValid() bool {
	if _, ok := k.FixedCode(); ok {
		return true
	}
	switch k {
	case DefaultNone, DefaultFromTenant, DefaultFromParentTenant:
		return true
	}
	return false
}

// SegmentDefinition describes one positional component of a composite account
// identifier. Positions are contiguous starting at 1.
type SegmentDefinition struct {
	SegmentDefinitionID string
	TenantID            string
	Position            int
	Length              int
	Description         string
	DefaultHandler      DefaultHandlerKind
	AuditFields
}

// SegmentValue is a fixed-length code assigned to one definition position.
type SegmentValue struct {
	SegmentValueID      string
	SegmentDefinitionID string
	TenantID            string
	Code                string
	Description         string
	IsActive            bool
	AuditFields
}
