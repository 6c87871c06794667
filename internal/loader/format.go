package loader

import (
	"github.com/conduit-lang/metamodel/compiler/parser"
	"github.com/conduit-lang/metamodel/pkg/schema"
)

// SchemaStatements rebuilds the declarations that produce reg. Element
// declarations come first, then every field on the type that introduced
// it; an association is emitted once, from its parent reference.
func SchemaStatements(reg *schema.Registry) []parser.SchemaStmt {
	types := reg.Elements()

	stmts := make([]parser.SchemaStmt, 0, len(types))
	for _, t := range types {
		decl := &parser.ElementDecl{Name: t.Name(), Abstract: t.Abstract()}
		if super := t.Extends(); super != nil {
			decl.Extends = super.Name()
		}
		stmts = append(stmts, decl)
	}

	for _, t := range types {
		for _, f := range t.Fields() {
			if inherited(t, f) {
				continue
			}
			switch f.Kind {
			case schema.KindAttribute:
				stmts = append(stmts, &parser.AttributeDecl{Element: t.Name(), Name: f.Name})
			case schema.KindParentReference:
				decl := &parser.AssociationDecl{
					Parent:      f.Target.Name(),
					ChildField:  f.Peer,
					Child:       t.Name(),
					ParentField: f.Name,
					Optional:    f.Optional,
				}
				if peer, ok := f.Target.Field(f.Peer); ok && peer.Limit > 0 {
					decl.Limit = peer.Limit
					decl.HasLimit = true
				}
				stmts = append(stmts, decl)
			}
		}
	}
	return stmts
}

// FormatSchema renders reg as schema notation
func FormatSchema(reg *schema.Registry) string {
	return parser.FormatSchema(SchemaStatements(reg))
}

// inherited reports whether f was installed on t through its superclass
func inherited(t *schema.ElementType, f *schema.Field) bool {
	super := t.Extends()
	if super == nil {
		return false
	}
	sf, ok := super.Field(f.Name)
	return ok && sf == f
}
