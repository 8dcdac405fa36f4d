package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/pkg/jsonapi"
)

// documentDefaults are the serialization settings a request starts from.
type documentDefaults struct {
	ExcludeBlankLinkage bool
	PreventDuplicates   bool
	Links               *jsonapi.LinkRegistry
}

func defaultsFrom(cfg config.JSONAPIConfig, links *jsonapi.LinkRegistry) documentDefaults {
	return documentDefaults{
		ExcludeBlankLinkage: cfg.ExcludeBlankLinkage,
		PreventDuplicates:   cfg.PreventDuplicates,
		Links:               links,
	}
}

// documentOptions reads include, fields[<type>], exclude_blank_linkage and
// prevent_duplicates from the query string. Include paths are widened with
// their intermediate paths, so include=services.host also includes services.
func documentOptions(c echo.Context, d documentDefaults) (jsonapi.Options, error) {
	opts := jsonapi.Options{
		ExcludeBlankLinkage: d.ExcludeBlankLinkage,
		PreventDuplicates:   d.PreventDuplicates,
		Links:               d.Links,
	}

	if include := c.QueryParam("include"); include != "" {
		opts.Include = jsonapi.ParseInclude(include).WithIntermediates()
	}

	for key, values := range c.QueryParams() {
		if !strings.HasPrefix(key, "fields") {
			continue
		}
		typ, ok := fieldsType(key)
		if !ok {
			return opts, ParameterError(key, "expected fields[<type>]=<attribute>,...")
		}
		if opts.Fields == nil {
			opts.Fields = jsonapi.Fieldset{}
		}
		opts.Fields[typ] = jsonapi.ParseFields(strings.Join(values, ","))
	}

	var err error
	if opts.ExcludeBlankLinkage, err = boolParam(c, "exclude_blank_linkage", opts.ExcludeBlankLinkage); err != nil {
		return opts, err
	}
	if opts.PreventDuplicates, err = boolParam(c, "prevent_duplicates", opts.PreventDuplicates); err != nil {
		return opts, err
	}
	return opts, nil
}

// fieldsType extracts the type from a "fields[type]" key.
func fieldsType(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, "fields[")
	if !ok {
		return "", false
	}
	typ, ok := strings.CutSuffix(rest, "]")
	if !ok || typ == "" || strings.ContainsAny(typ, "[]") {
		return "", false
	}
	return typ, true
}

func boolParam(c echo.Context, name string, def bool) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, ParameterError(name, fmt.Sprintf("expected a boolean, got %q", raw))
	}
	return v, nil
}
