package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	minSlugLen = 2
	maxSlugLen = 40
)

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	schemaPattern = regexp.MustCompile(`^tenant_[a-z0-9_]{1,40}_[0-9a-f]{8}$`)
)

// Schema is a validated tenant namespace name. The zero value is invalid.
type Schema string

// ValidateSlug checks that slug is lower-case alphanumerics separated by single
// hyphens, between 2 and 40 characters.
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLen || len(slug) > maxSlugLen || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// NamespaceName derives the namespace for a tenant: tenant_{slug}_{8 hex of id}.
// Hyphens in the slug become underscores.
func NamespaceName(slug string, tenantID uuid.UUID) (Schema, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	hex := strings.ReplaceAll(tenantID.String(), "-", "")[:8]
	return ParseSchema("tenant_" + strings.ReplaceAll(slug, "-", "_") + "_" + hex)
}

// ParseSchema validates name against the namespace allow-list.
func ParseSchema(name string) (Schema, error) {
	if !schemaPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSchema, name)
	}
	return Schema(name), nil
}

func (s Schema) Validate() error {
	_, err := ParseSchema(string(s))
	return err
}

func (s Schema) String() string { return string(s) }

// Ident returns the quoted schema identifier.
func (s Schema) Ident() string {
	return pgx.Identifier{string(s)}.Sanitize()
}

// Table returns the quoted, schema-qualified table identifier.
func (s Schema) Table(name string) string {
	return pgx.Identifier{string(s), name}.Sanitize()
}
