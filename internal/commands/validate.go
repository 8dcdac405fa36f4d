package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/spf13/cobra"

	"evalgo.org/graphapi/internal/api"
	"evalgo.org/graphapi/internal/graph"
	"evalgo.org/graphapi/internal/validation"
	"evalgo.org/graphapi/models"
)

var validateCmd = &cobra.Command{
	Use:   "validate [type] [file]",
	Short: "Validate a JSON-LD document",
	Long: `Validate a JSON-LD host, container or stack document with the same
checks the API runs before storing it. The type may be singular or plural.

Examples:
  graphapi validate container web-1.json
  graphapi validate hosts host-01.json
  graphapi validate stack shop.json --api http://localhost:8080`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

var validateAPI string

func init() {
	validateCmd.Flags().StringVar(&validateAPI, "api", "", "validate against a running server at this URL instead of locally")
}

func runValidate(cmd *cobra.Command, args []string) error {
	typ, err := resourceType(args[0])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var result *validation.ValidationResult
	if validateAPI != "" {
		result, err = validateRemote(cmd.Context(), validateAPI, typ, data)
	} else {
		result, err = validateLocal(typ, data)
	}
	if err != nil {
		return err
	}
	return report(cmd.OutOrStdout(), result)
}

// resourceType maps "host" or "hosts" to the served type name.
func resourceType(s string) (string, error) {
	typ := inflect.Pluralize(strings.ToLower(s))
	if !graph.Known(typ) {
		return "", fmt.Errorf("unknown entity type: %s (use one of %s)", s, strings.Join(graph.Types(), ", "))
	}
	return typ, nil
}

func validateLocal(typ string, data []byte) (*validation.ValidationResult, error) {
	v := validation.New()
	switch typ {
	case graph.TypeHosts:
		return v.Decode(data, &models.Host{}), nil
	case graph.TypeContainers:
		return v.Decode(data, &models.Container{}), nil
	case graph.TypeStacks:
		return v.Decode(data, &models.Stack{}), nil
	}
	return nil, fmt.Errorf("unknown entity type: %s", typ)
}

// validateRemote posts data to the server's validate endpoint. A 422 error
// document is turned back into a failed result.
func validateRemote(ctx context.Context, baseURL, typ string, data []byte) (*validation.ValidationResult, error) {
	url := fmt.Sprintf("%s/api/v1/validate/%s", strings.TrimRight(baseURL, "/"), typ)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var result validation.ValidationResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return &result, nil
	case http.StatusUnprocessableEntity:
		var doc api.ErrorDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		result := &validation.ValidationResult{}
		for _, e := range doc.Errors {
			field := "document"
			if e.Source != nil && e.Source.Pointer != "" {
				field = strings.TrimPrefix(e.Source.Pointer, "/")
			}
			result.Errors = append(result.Errors, validation.ValidationError{Field: field, Message: e.Detail})
		}
		return result, nil
	default:
		return nil, fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
}

func report(w io.Writer, result *validation.ValidationResult) error {
	if result.Valid {
		fmt.Fprintln(w, "✓ Document is valid")
		return nil
	}

	fmt.Fprintln(w, "✗ Validation failed:")
	for _, e := range result.Errors {
		if e.Value != nil {
			fmt.Fprintf(w, "  - %s: %s (value: %v)\n", e.Field, e.Message, e.Value)
		} else {
			fmt.Fprintf(w, "  - %s: %s\n", e.Field, e.Message)
		}
	}

	return fmt.Errorf("validation failed")
}
