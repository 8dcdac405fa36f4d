package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"evalgo.org/graphapi/internal/graph"
	"evalgo.org/graphapi/internal/storage"
	"evalgo.org/graphapi/pkg/jsonapi"
)

var renderCmd = &cobra.Command{
	Use:   "render [fixture]",
	Short: "Render a JSON:API document from a fixture file",
	Long: `Render serializes resources from a YAML or JSON fixture without a
running server. The fixture holds top-level hosts, containers and stacks
lists.

Examples:
  graphapi render fixtures/dev.yaml --type containers
  graphapi render fixtures/dev.yaml --type containers --id web-1 --include host,stack.services
  graphapi render fixtures/dev.yaml --type hosts --fields hosts=name,status
  graphapi render fixtures/dev.yaml --type stacks --id shop --relationship services`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

// renderOptions selects what to serialize and how.
type renderOptions struct {
	Type         string
	ID           string
	Relationship string
	Related      string

	Include             string
	Fields              []string
	ExcludeBlankLinkage bool
	PreventDuplicates   bool
	BaseURL             string
	Compact             bool
}

var renderOpts renderOptions

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.Type, "type", "", "resource type to render (hosts, containers, stacks)")
	f.StringVar(&renderOpts.ID, "id", "", "render a single resource instead of the whole collection")
	f.StringVar(&renderOpts.Relationship, "relationship", "", "render the named relationship of --id")
	f.StringVar(&renderOpts.Related, "related", "", "render the resources related to --id by name")
	f.StringVar(&renderOpts.Include, "include", "", "comma separated include paths")
	f.StringArrayVar(&renderOpts.Fields, "fields", nil, "sparse fieldset as type=attr,attr (repeatable)")
	f.BoolVar(&renderOpts.ExcludeBlankLinkage, "exclude-blank-linkage", false, "drop relationships with null or empty data")
	f.BoolVar(&renderOpts.PreventDuplicates, "prevent-duplicates", false, "drop included resources already in data")
	f.StringVar(&renderOpts.BaseURL, "base-url", "", "prefix for generated links (default: jsonapi.base_url)")
	f.BoolVar(&renderOpts.Compact, "compact", false, "print without indentation")

	_ = renderCmd.MarkFlagRequired("type") //nolint:errcheck
}

func runRender(cmd *cobra.Command, args []string) error {
	snap, err := storage.ReadFixture(args[0])
	if err != nil {
		return err
	}

	opts := renderOpts
	if !cmd.Flags().Changed("base-url") && cfg != nil {
		opts.BaseURL = cfg.JSONAPI.BaseURL
	}
	if cfg != nil {
		opts.ExcludeBlankLinkage = opts.ExcludeBlankLinkage || cfg.JSONAPI.ExcludeBlankLinkage
		opts.PreventDuplicates = opts.PreventDuplicates || cfg.JSONAPI.PreventDuplicates
	}
	return render(cmd.OutOrStdout(), snap, opts)
}

// render writes the document selected by o, built from snap, to w.
func render(w io.Writer, snap *storage.Snapshot, o renderOptions) error {
	if !graph.Known(o.Type) {
		return fmt.Errorf("unknown resource type %q (use one of %s)", o.Type, strings.Join(graph.Types(), ", "))
	}
	if (o.Relationship != "" || o.Related != "") && o.ID == "" {
		return fmt.Errorf("--relationship and --related need --id")
	}
	if o.Relationship != "" && o.Related != "" {
		return fmt.Errorf("--relationship and --related are mutually exclusive")
	}

	fields, err := parseFieldFlags(o.Fields)
	if err != nil {
		return err
	}
	opts := jsonapi.Options{
		Include:             jsonapi.ParseInclude(o.Include).WithIntermediates(),
		Fields:              fields,
		ExcludeBlankLinkage: o.ExcludeBlankLinkage,
		PreventDuplicates:   o.PreventDuplicates,
		Links:               graph.Links(o.BaseURL),
	}

	g := graph.New(snap.Hosts, snap.Containers, snap.Stacks)

	var out any
	if o.ID == "" {
		all, _ := g.All(o.Type)
		out, err = jsonapi.Serialize(all, opts)
	} else {
		e, ok := g.Lookup(o.Type, o.ID)
		if !ok {
			return fmt.Errorf("%s %q not found", o.Type, o.ID)
		}
		switch {
		case o.Relationship != "":
			out, err = jsonapi.SerializeRelationship(e, o.Relationship, opts)
		case o.Related != "":
			out, err = jsonapi.SerializeRelated(e, o.Related, opts)
		default:
			out, err = jsonapi.Serialize(e, opts)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}

	enc := json.NewEncoder(w)
	if !o.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

// parseFieldFlags turns repeated type=attr,attr flags into a Fieldset.
// Repeating a type appends to its list.
func parseFieldFlags(flags []string) (jsonapi.Fieldset, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	fields := jsonapi.Fieldset{}
	for _, f := range flags {
		typ, attrs, ok := strings.Cut(f, "=")
		typ = strings.TrimSpace(typ)
		if !ok || typ == "" {
			return nil, fmt.Errorf("invalid --fields %q: want type=attr,attr", f)
		}
		fields[typ] = append(fields[typ], jsonapi.ParseFields(attrs)...)
	}
	return fields, nil
}
