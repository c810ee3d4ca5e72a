package permissions

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Field selects which annotation Annotate attaches to each row.
type Field int

const (
	Viewable Field = iota
	Editable
)

// Member kinds stored in the permission_members table.
const (
	MemberCRSID       = "crsid"
	MemberLookupGroup = "lookup_group"
	MemberLookupInst  = "lookup_inst"
)

// Predicate returns a SQL boolean expression, with its bind variables, which is
// true exactly when Satisfies holds for the permission row referenced by column.
func Predicate(column string, p Principal) (string, []any) {
	var b strings.Builder
	vars := make([]any, 0, 8)

	b.WriteString("(")
	b.WriteString(column)
	b.WriteString(" IN (SELECT id FROM permissions WHERE is_public = ?")
	vars = append(vars, true)
	if !p.Anonymous {
		b.WriteString(" OR is_signed_in = ?")
		vars = append(vars, true)
	}
	b.WriteString(")")

	terms := make([]string, 0, 3)
	if !p.Anonymous && p.Identifier != "" {
		terms = append(terms, "(kind = ? AND value = ?)")
		vars = append(vars, MemberCRSID, p.Identifier)
	}
	if len(p.GroupIDs) > 0 {
		groups := make([]string, len(p.GroupIDs))
		for i, id := range p.GroupIDs {
			groups[i] = strconv.FormatInt(id, 10)
		}
		terms = append(terms, "(kind = ? AND value IN ?)")
		vars = append(vars, MemberLookupGroup, groups)
	}
	if len(p.InstitutionCodes) > 0 {
		terms = append(terms, "(kind = ? AND value IN ?)")
		vars = append(vars, MemberLookupInst, append([]string{}, p.InstitutionCodes...))
	}
	if len(terms) > 0 {
		b.WriteString(" OR ")
		b.WriteString(column)
		b.WriteString(" IN (SELECT permission_id FROM permission_members WHERE ")
		b.WriteString(strings.Join(terms, " OR "))
		b.WriteString(")")
	}
	b.WriteString(")")

	return b.String(), vars
}

// FilterViewable restricts a query over kind to rows principal p may view.
func FilterViewable(kind string, p Principal) func(*gorm.DB) *gorm.DB {
	return filter(kind, p, Viewable)
}

// FilterEditable restricts a query over kind to rows principal p may edit.
func FilterEditable(kind string, p Principal) func(*gorm.DB) *gorm.DB {
	return filter(kind, p, Editable)
}

func filter(name string, p Principal, field Field) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		kind, err := Lookup(name)
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		sql, vars := Predicate(kind.column(field), p)
		return db.Where(sql, vars...)
	}
}

// Annotate selects every column of kind's table together with the requested
// boolean annotations (aliased viewable and editable) so rows can be scanned,
// filtered and sorted without loading permission records.
func Annotate(name string, p Principal, fields ...Field) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		kind, err := Lookup(name)
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		selected := fields
		if len(selected) == 0 {
			selected = []Field{Viewable, Editable}
		}

		var b strings.Builder
		var vars []any
		b.WriteString(kind.Table)
		b.WriteString(".*")
		for _, field := range selected {
			sql, fieldVars := Predicate(kind.column(field), p)
			b.WriteString(", ")
			b.WriteString(sql)
			b.WriteString(" AS ")
			b.WriteString(field.alias())
			vars = append(vars, fieldVars...)
		}
		return db.Select(b.String(), vars...)
	}
}

// AnnotateViewable attaches the viewable annotation only.
func AnnotateViewable(kind string, p Principal) func(*gorm.DB) *gorm.DB {
	return Annotate(kind, p, Viewable)
}

// AnnotateEditable attaches the editable annotation only.
func AnnotateEditable(kind string, p Principal) func(*gorm.DB) *gorm.DB {
	return Annotate(kind, p, Editable)
}

func (k Kind) column(field Field) string {
	if field == Editable {
		return k.Table + "." + k.EditColumn
	}
	return k.Table + "." + k.ViewColumn
}

func (f Field) alias() string {
	if f == Editable {
		return "editable"
	}
	return "viewable"
}
