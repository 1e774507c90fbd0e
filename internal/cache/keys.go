package cache

import (
	"strings"

	"github.com/google/uuid"
)

// Domain is the first segment of a cache key. Every tenant domain key carries
// the tenant id as its second segment.
type Domain string

const (
	DomainOrg       Domain = "org"
	DomainPerms     Domain = "perms"
	DomainDashboard Domain = "dashboard"
	DomainStats     Domain = "stats"
	DomainEmployee  Domain = "employee"

	// DomainRateLimit is global: its keys are not tenant-qualified.
	DomainRateLimit Domain = "ratelimit"
)

// TenantDomains lists every tenant-qualified domain.
var TenantDomains = []Domain{DomainOrg, DomainPerms, DomainDashboard, DomainStats, DomainEmployee}

// Key renders {domain}:{tenantId}[:{qualifier}]*.
func Key(domain Domain, tenantID uuid.UUID, qualifiers ...string) string {
	var b strings.Builder
	b.WriteString(string(domain))
	b.WriteByte(':')
	b.WriteString(tenantID.String())
	for _, q := range qualifiers {
		b.WriteByte(':')
		b.WriteString(q)
	}
	return b.String()
}

// Pattern renders a glob matching every key strictly below
// {domain}:{tenantId}[:{qualifier}]*. Glob metacharacters in qualifiers are
// escaped so they match literally.
func Pattern(domain Domain, tenantID uuid.UUID, qualifiers ...string) string {
	var b strings.Builder
	b.WriteString(string(domain))
	b.WriteByte(':')
	b.WriteString(tenantID.String())
	for _, q := range qualifiers {
		b.WriteByte(':')
		b.WriteString(globEscaper.Replace(q))
	}
	b.WriteString(":*")
	return b.String()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// RateLimitKey is the global rate-limit counter key for subject.
func RateLimitKey(subject string) string {
	return string(DomainRateLimit) + ":" + subject
}
