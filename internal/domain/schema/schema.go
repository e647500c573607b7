// Package schema classifies user-facing field names into the storage
// model: typed columns, schemaless metadata keys, enumerations and
// date-typed fields. A Schema is built once from explicit configuration;
// nothing in this package consults global state.
package schema

import (
	"fmt"
	"strings"

	"github.com/tracebase/findex/internal/domain"
)

// MetadataPrefix is the naming convention for schemaless metadata keys.
const MetadataPrefix = "metadata."

// DateSuffix marks a metadata key as date-typed by convention.
const DateSuffix = "_date"

// EnumSpec describes a closed value set for an enumeration field.
type EnumSpec struct {
	values           []string
	labels           map[string]string
	translationScope string
}

// NewEnumSpec validates and creates an EnumSpec. The value set must be
// non-empty; labels and translationScope are optional.
func NewEnumSpec(values []string, labels map[string]string, translationScope string) (EnumSpec, error) {
	if len(values) == 0 {
		return EnumSpec{}, fmt.Errorf("%w: enum value set is empty", domain.ErrInvalidSchema)
	}
	return EnumSpec{values: values, labels: labels, translationScope: translationScope}, nil
}

// Values returns the closed set of valid values.
func (e EnumSpec) Values() []string { return e.values }

// Contains reports whether v is a member of the value set.
func (e EnumSpec) Contains(v string) bool {
	for _, val := range e.values {
		if val == v {
			return true
		}
	}
	return false
}

// Label returns the display label for a value: the pre-translated label
// when one is configured, otherwise a translation key built from the
// translation scope, otherwise the value itself.
func (e EnumSpec) Label(v string) string {
	if l, ok := e.labels[v]; ok {
		return l
	}
	if e.translationScope != "" {
		return e.translationScope + "." + v
	}
	return v
}

// Classification is the result of resolving a user-facing field name.
type Classification struct {
	key      string
	metadata bool
	date     bool
	enum     *EnumSpec
}

// Key returns the canonical storage key: a column name for typed fields,
// the metadata key (alias already applied) for metadata fields.
func (c Classification) Key() string { return c.key }

// IsMetadata reports whether the field lives in the schemaless metadata.
func (c Classification) IsMetadata() bool { return c.metadata }

// IsDate reports whether the field is date-typed.
func (c Classification) IsDate() bool { return c.date }

// Enum returns the enumeration spec, or nil for non-enum fields.
func (c Classification) Enum() *EnumSpec { return c.enum }

// Config is the raw material for a Schema, supplied by the caller.
type Config struct {
	// AllowedFields is the allow-list of typed (non-metadata) field names.
	AllowedFields []string
	// DateFields lists date-typed fields beyond the *_date convention.
	DateFields []string
	// Aliases maps user-facing names to their underlying storage key.
	Aliases map[string]string
	// Enums maps canonical keys to their enumeration spec.
	Enums map[string]EnumSpec
}

// Schema resolves field names for one record type.
type Schema struct {
	allowed map[string]bool
	dates   map[string]bool
	aliases map[string]string
	enums   map[string]EnumSpec
}

// New validates the configuration and builds a Schema.
// An enum entry for a field that is neither allowed nor metadata-addressable
// is a configuration error and fails loudly.
func New(cfg Config) (*Schema, error) {
	s := &Schema{
		allowed: make(map[string]bool, len(cfg.AllowedFields)),
		dates:   make(map[string]bool, len(cfg.DateFields)),
		aliases: make(map[string]string, len(cfg.Aliases)),
		enums:   make(map[string]EnumSpec, len(cfg.Enums)),
	}
	for _, f := range cfg.AllowedFields {
		if f == "" {
			return nil, fmt.Errorf("%w: empty allowed field name", domain.ErrInvalidSchema)
		}
		s.allowed[f] = true
	}
	for _, f := range cfg.DateFields {
		s.dates[f] = true
	}
	for from, to := range cfg.Aliases {
		if from == "" || to == "" {
			return nil, fmt.Errorf("%w: alias %q -> %q", domain.ErrInvalidSchema, from, to)
		}
		s.aliases[from] = to
	}
	for key, e := range cfg.Enums {
		if len(e.values) == 0 {
			return nil, fmt.Errorf("%w: enum %q has an empty value set", domain.ErrInvalidSchema, key)
		}
		s.enums[key] = e
	}
	return s, nil
}

// WithEnum attaches an enumeration spec to a canonical key, replacing any
// existing one. Used to merge specs built from a runtime catalog.
func (s *Schema) WithEnum(key string, e EnumSpec) *Schema {
	s.enums[key] = e
	return s
}

// Classify resolves a user-facing field name. The metadata prefix is
// stripped and the alias table applied before anything else, so the rest
// of the pipeline only ever sees canonical keys. Returns ok=false for an
// unknown non-metadata field; callers surface that as a field error.
func (s *Schema) Classify(name string) (Classification, bool) {
	key := name
	metadata := strings.HasPrefix(name, MetadataPrefix)
	if metadata {
		key = strings.TrimPrefix(name, MetadataPrefix)
	}
	if target, ok := s.aliases[key]; ok {
		key = target
	}
	if !metadata && !s.allowed[key] {
		return Classification{}, false
	}

	c := Classification{
		key:      key,
		metadata: metadata,
		date:     s.dates[key] || strings.HasSuffix(key, DateSuffix),
	}
	if e, ok := s.enums[key]; ok {
		c.enum = &e
	}
	return c, true
}

// IsDateField reports whether a user-facing field name resolves to a
// date-typed field, without requiring the field to be allowed.
func (s *Schema) IsDateField(name string) bool {
	key := strings.TrimPrefix(name, MetadataPrefix)
	if target, ok := s.aliases[key]; ok {
		key = target
	}
	return s.dates[key] || strings.HasSuffix(key, DateSuffix)
}
