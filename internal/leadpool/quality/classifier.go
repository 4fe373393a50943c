package quality

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
)

// Classifier applies a fixed rule set to leads.
type Classifier struct {
	rules Rules
}

// NewClassifier creates a classifier for the given rules.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules.normalized()}
}

// Default returns a classifier with the built-in rules.
func Default() *Classifier {
	return NewClassifier(DefaultRules())
}

// Classify returns the single-record flags of a lead. duplicate_phone needs
// the whole pool and is only produced by ClassifyBatch.
func (c *Classifier) Classify(lead domain.Lead) domain.Flags {
	flags := domain.NewFlags()

	email := strings.ToLower(strings.TrimSpace(lead.Email))
	phone := strings.TrimSpace(lead.Phone)
	firstName := strings.ToLower(strings.TrimSpace(lead.FirstName))
	lastName := strings.ToLower(strings.TrimSpace(lead.LastName))

	if email == "" && phone == "" {
		flags.Add(domain.FlagMissingContact)
	}
	if c.isTestData(firstName, lastName, email) {
		flags.Add(domain.FlagTestData)
	}
	if email != "" && hasDomain(email, c.rules.PlaceholderDomains) {
		flags.Add(domain.FlagPlaceholderEmail)
	}
	if phone != "" && len(lead.NormalizedPhone) < c.rules.MinPhoneDigits {
		flags.Add(domain.FlagShortPhone)
	}
	if firstName == "" && lastName == "" {
		flags.Add(domain.FlagMissingName)
	}

	return flags
}

// ClassifyBatch classifies every lead and flags duplicate_phone on all but
// the canonical member of each group sharing a non-empty normalized phone.
// The canonical member is the oldest lead, ties broken by smallest id.
func (c *Classifier) ClassifyBatch(leads []domain.Lead) map[uuid.UUID]domain.Flags {
	out := make(map[uuid.UUID]domain.Flags, len(leads))
	groups := make(map[string][]domain.Lead)

	for _, lead := range leads {
		out[lead.ID] = c.Classify(lead)
		if lead.NormalizedPhone != "" {
			groups[lead.NormalizedPhone] = append(groups[lead.NormalizedPhone], lead)
		}
	}

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Before(members[j]) })
		for _, dup := range members[1:] {
			out[dup.ID].Add(domain.FlagDuplicatePhone)
		}
	}

	return out
}

// isTestData reports whether a word of the names or of the email local
// part contains a test pattern, so "testuser@x.io" and "Demo1" match.
// Words on the allow list never match.
func (c *Classifier) isTestData(firstName, lastName, email string) bool {
	if email != "" && hasDomain(email, c.rules.TestDomains) {
		return true
	}
	tokens := words(firstName)
	tokens = append(tokens, words(lastName)...)
	tokens = append(tokens, words(localPart(email))...)
	for _, token := range tokens {
		if slices.Contains(c.rules.TestAllowWords, token) {
			continue
		}
		for _, pattern := range c.rules.TestPatterns {
			if strings.Contains(token, pattern) {
				return true
			}
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
}

func localPart(email string) string {
	if at := strings.LastIndex(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

func hasDomain(email string, domains []string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	host := email[at+1:]
	for _, d := range domains {
		if host == d {
			return true
		}
	}
	return false
}
