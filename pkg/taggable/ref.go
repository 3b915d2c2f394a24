package taggable

import "github.com/kutbudev/taggable/pkg/models"

// Ref points at a tag either by name or by an existing tag value.
type Ref struct {
	name string
	tag  *models.Tag
}

// Name refers to a tag by name. The name is trimmed when resolved.
func Name(name string) Ref {
	return Ref{name: name}
}

// TagRef refers to an existing tag.
func TagRef(tag *models.Tag) Ref {
	return Ref{tag: tag}
}

// Names builds refs from names.
func Names(names ...string) []Ref {
	refs := make([]Ref, len(names))
	for i, n := range names {
		refs[i] = Name(n)
	}
	return refs
}

// Refs builds refs from tags.
func Refs(tags ...*models.Tag) []Ref {
	refs := make([]Ref, len(tags))
	for i, t := range tags {
		refs[i] = TagRef(t)
	}
	return refs
}

func (r Ref) String() string {
	if r.tag != nil {
		return r.tag.Name
	}
	return r.name
}
