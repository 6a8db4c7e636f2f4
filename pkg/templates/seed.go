package templates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout of a template seed file.
//
//	templates:
//	  - id: policy-content-healthcare
//	    name: Healthcare policy content
//	    field_type: policy_content
//	    industry: Healthcare
//	    body: |
//	      Write the policy content for {{title}} ...
type SeedFile struct {
	Templates []SeedTemplate `yaml:"templates"`
}

// SeedTemplate is one entry in a seed file. Active defaults to true.
type SeedTemplate struct {
	Template `yaml:",inline"`
	Active   *bool `yaml:"active"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Created   int
	Updated   int
	Unchanged int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged", r.Created, r.Updated, r.Unchanged)
}

// ParseSeed decodes seed YAML. Entries without an id get a name-derived
// UUID so repeated imports of the same file stay idempotent.
func ParseSeed(data []byte) ([]Template, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template seed: %w", err)
	}

	out := make([]Template, 0, len(file.Templates))
	var errs []error
	for i, st := range file.Templates {
		t := st.Template
		t.Active = st.Active == nil || *st.Active
		if t.ID == "" && t.Name != "" {
			t.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(t.FieldType)+"/"+t.Name)).String()
		}
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		out = append(out, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Import upserts templates into store. Existing templates keep their
// version unless their content changed, in which case it is incremented.
func Import(ctx context.Context, store Store, incoming []Template) (ImportResult, error) {
	var result ImportResult

	for _, t := range incoming {
		existing, err := store.Get(ctx, t.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			t.Version = 1
			result.Created++
		case err != nil:
			return result, err
		case sameContent(existing, t) && existing.Active == t.Active &&
			existing.IsDefault == t.IsDefault && existing.Name == t.Name &&
			existing.Description == t.Description:
			result.Unchanged++
			continue
		case sameContent(existing, t):
			t.Version = existing.Version
			t.CreatedAt = existing.CreatedAt
			result.Updated++
		default:
			t.Version = existing.Version + 1
			t.CreatedAt = existing.CreatedAt
			result.Updated++
		}

		if err := store.Upsert(ctx, t); err != nil {
			return result, err
		}
	}

	return result, nil
}

// ImportFile parses the seed file at path and imports it.
func ImportFile(ctx context.Context, store Store, path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read template seed: %w", err)
	}

	ts, err := ParseSeed(data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%s: %w", path, err)
	}

	result, err := Import(ctx, store, ts)
	if err != nil {
		return result, err
	}

	slog.Info("template seed imported",
		"path", path,
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
	)
	return result, nil
}
