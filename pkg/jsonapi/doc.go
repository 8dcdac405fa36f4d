// Package jsonapi turns a graph of domain entities into JSON:API documents.
//
// The package knows nothing about where entities come from. Anything that
// implements Entity can be serialized: the entity reports its identifier,
// its type name, its attributes and, through EachAssociation, the entities
// it points at.
//
// # Documents
//
// Serialize accepts a single Entity, a []Entity or a Collection and returns
// a Document:
//
//	doc, err := jsonapi.Serialize(post, jsonapi.Options{
//	    Include: jsonapi.ParseInclude("comments.author"),
//	    Fields:  jsonapi.Fieldset{"posts": {"title"}},
//	})
//
// The primary resources end up in data. Every association of a primary
// resource becomes a relationship with resource identifier linkage: an
// object or null for to-one associations, an array (possibly empty) for
// to-many associations.
//
// # Compound documents
//
// Include paths are dot-delimited association chains. A path is included
// when an include entry equals it and walked into when an entry continues
// past it, so "comments.author" walks through comments without necessarily
// including them. Included resources carry their own first-level
// relationships but are never expanded further than the include paths ask.
// With PreventDuplicates set, collection documents drop included resources
// that are already present in data.
//
// # Links
//
// Links are declared once per resource type with a LinkRegistryBuilder and
// frozen into a LinkRegistry:
//
//	b := jsonapi.NewLinkRegistryBuilder()
//	b.Define("posts").
//	    Link(jsonapi.LinkSelf, jsonapi.Computed(postURL)).
//	    LinkFor("comments", jsonapi.LinkRelated, jsonapi.Static("/comments"))
//	links := b.Build()
//
// The registry is immutable and safe to share between concurrent calls.
package jsonapi
