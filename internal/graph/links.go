package graph

import (
	"fmt"
	"strings"

	"evalgo.org/graphapi/pkg/jsonapi"
)

// Links builds the link registry for every served type. Resource links are
// {base}/{type}/{id}; each association gets a relationship self link and a
// related link.
func Links(baseURL string) *jsonapi.LinkRegistry {
	base := strings.TrimRight(baseURL, "/")
	b := jsonapi.NewLinkRegistryBuilder()

	for _, typ := range Types() {
		t := b.Define(typ).Link(jsonapi.LinkSelf, jsonapi.Computed(func(e jsonapi.Entity) string {
			return fmt.Sprintf("%s/%s/%v", base, typ, e.Identifier())
		}))
		for _, name := range Associations(typ) {
			t.LinkFor(name, jsonapi.LinkSelf, jsonapi.Computed(func(e jsonapi.Entity) string {
				return fmt.Sprintf("%s/%s/%v/relationships/%s", base, typ, e.Identifier(), name)
			}))
			t.LinkFor(name, jsonapi.LinkRelated, jsonapi.Computed(func(e jsonapi.Entity) string {
				return fmt.Sprintf("%s/%s/%v/%s", base, typ, e.Identifier(), name)
			}))
		}
	}
	return b.Build()
}
