//go:build cgo

package javasrc

import (
	"regexp"
	"strings"

	"txlens/internal/facts"
)

// entityFromType converts an @Entity class into schema facts, or nil when
// the type is not a persisted entity.
func entityFromType(ti *typeInfo) *facts.EntityFacts {
	if !ti.annotations.Has("Entity") {
		return nil
	}

	e := &facts.EntityFacts{
		Name:         ti.qualifiedName,
		IDGeneration: facts.GenNone,
	}

	if table, ok := ti.annotations.Find("Table"); ok {
		if name, ok := table.Attribute("name"); ok {
			e.Table = name
		}
		if indexes, ok := table.Attribute("indexes"); ok {
			e.IndexColumns = append(e.IndexColumns, indexLeadColumns(indexes)...)
		}
	}

	for _, f := range ti.fields {
		field := facts.EntityField{Name: f.name}
		if f.annotations.Has("Id") {
			field.IsID = true
			e.IDGeneration = idGeneration(f.annotations)
		}
		if col, ok := f.annotations.Find("Column"); ok {
			if unique, ok := col.Attribute("unique"); ok && unique == "true" {
				field.Unique = true
			}
		}
		e.Fields = append(e.Fields, field)

		if rel := relationFromField(f); rel != nil {
			e.Relations = append(e.Relations, *rel)
		}
	}

	return e
}

func idGeneration(annotations facts.AnnotationSet) facts.IDGeneration {
	gen, ok := annotations.Find("GeneratedValue")
	if !ok {
		return facts.GenAssigned
	}
	strategy, _ := gen.Attribute("strategy")
	switch {
	case strings.Contains(strategy, "IDENTITY"):
		return facts.GenIdentity
	case strings.Contains(strategy, "SEQUENCE"):
		return facts.GenSequence
	case strings.Contains(strategy, "TABLE"):
		return facts.GenTable
	default:
		return facts.GenAuto
	}
}

var relationKinds = map[string]facts.RelationKind{
	"OneToMany":  facts.RelOneToMany,
	"ManyToMany": facts.RelManyToMany,
	"OneToOne":   facts.RelOneToOne,
	"ManyToOne":  facts.RelManyToOne,
}

func relationFromField(f fieldDecl) *facts.Relation {
	for name, kind := range relationKinds {
		ann, ok := f.annotations.Find(name)
		if !ok {
			continue
		}

		rel := &facts.Relation{
			Field:      f.name,
			Kind:       kind,
			TargetType: relationTarget(f.typeName),
		}

		// To-one relations are eager unless declared lazy; collections are
		// lazy unless declared eager. JPA defaults.
		fetch, _ := ann.Attribute("fetch")
		switch kind {
		case facts.RelManyToOne, facts.RelOneToOne:
			rel.Eager = !strings.Contains(fetch, "LAZY")
		default:
			rel.Eager = strings.Contains(fetch, "EAGER")
		}

		cascade, _ := ann.Attribute("cascade")
		rel.CascadeAll = strings.Contains(cascade, "ALL")
		rel.CascadeRemove = rel.CascadeAll || strings.Contains(cascade, "REMOVE")
		if orphan, ok := ann.Attribute("orphanRemoval"); ok && orphan == "true" {
			rel.OrphanRemoval = true
		}
		return rel
	}
	return nil
}

// relationTarget pulls the element type out of a collection declaration,
// e.g. "List<Payment>" -> "Payment".
func relationTarget(typeName string) string {
	open := strings.IndexByte(typeName, '<')
	close := strings.LastIndexByte(typeName, '>')
	if open < 0 || close < open {
		return baseType(typeName)
	}
	inner := typeName[open+1 : close]
	if comma := strings.IndexByte(inner, ','); comma >= 0 {
		inner = inner[:comma]
	}
	return strings.TrimSpace(inner)
}

var columnListRe = regexp.MustCompile(`columnList\s*=\s*"([^"]+)"`)

// indexLeadColumns extracts the leading column of every @Index declaration.
// Only the first column of a composite index supports a standalone filter.
func indexLeadColumns(indexes string) []string {
	var out []string
	for _, m := range columnListRe.FindAllStringSubmatch(indexes, -1) {
		cols := strings.Split(m[1], ",")
		if lead := strings.TrimSpace(cols[0]); lead != "" {
			out = append(out, lead)
		}
	}
	return out
}

var repositoryBaseRe = regexp.MustCompile(`^(?:JpaRepository|CrudRepository|ListCrudRepository|PagingAndSortingRepository|Repository)\s*<\s*([A-Za-z_][A-Za-z0-9_.]*)`)

// repositoryTarget reads the managed entity off a Spring Data repository
// super-interface, e.g. "JpaRepository<Payment, Long>" -> "Payment".
func repositoryTarget(ti *typeInfo) string {
	if ti.kind != facts.KindInterface {
		return ""
	}
	for _, super := range ti.superTypes {
		if m := repositoryBaseRe.FindStringSubmatch(super); m != nil {
			return m[1]
		}
	}
	return ""
}
