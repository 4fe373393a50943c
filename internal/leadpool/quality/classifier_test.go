package quality

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"leadpool_backend/internal/leadpool/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanLead() domain.Lead {
	return domain.Lead{
		ID:              uuid.New(),
		FirstName:       "Maria",
		LastName:        "Lopez",
		Email:           "maria.lopez@gmail.com",
		Phone:           "(415) 555-0134",
		NormalizedPhone: "4155550134",
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestClassifyCleanLeadHasNoFlags(t *testing.T) {
	flags := Default().Classify(cleanLead())
	assert.Empty(t, flags)
}

func TestClassifyFlags(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Lead)
		want   []domain.Flag
	}{
		{
			name: "missing contact",
			mutate: func(l *domain.Lead) {
				l.Email, l.Phone, l.NormalizedPhone = " ", "", ""
			},
			want: []domain.Flag{domain.FlagMissingContact},
		},
		{
			name:   "test word in name",
			mutate: func(l *domain.Lead) { l.LastName = "Test" },
			want:   []domain.Flag{domain.FlagTestData},
		},
		{
			name:   "test word in email",
			mutate: func(l *domain.Lead) { l.Email = "test123@gmail.com" },
			want:   []domain.Flag{domain.FlagTestData},
		},
		{
			name:   "test domain",
			mutate: func(l *domain.Lead) { l.Email = "maria@Example.com" },
			want:   []domain.Flag{domain.FlagTestData},
		},
		{
			name:   "placeholder email",
			mutate: func(l *domain.Lead) { l.Email = "4155550134@noemail.invalid" },
			want:   []domain.Flag{domain.FlagPlaceholderEmail},
		},
		{
			name:   "short phone",
			mutate: func(l *domain.Lead) { l.Phone, l.NormalizedPhone = "555-0134", "5550134" },
			want:   []domain.Flag{domain.FlagShortPhone},
		},
		{
			name:   "missing name",
			mutate: func(l *domain.Lead) { l.FirstName, l.LastName = "", "" },
			want:   []domain.Flag{domain.FlagMissingName},
		},
		{
			name:   "pattern inside a longer word",
			mutate: func(l *domain.Lead) { l.FirstName, l.Email = "Testuser", "testuser@gmail.com" },
			want:   []domain.Flag{domain.FlagTestData},
		},
		{
			name:   "pattern inside email local part",
			mutate: func(l *domain.Lead) { l.Email = "demoaccount@gmail.com" },
			want:   []domain.Flag{domain.FlagTestData},
		},
		{
			name:   "pattern followed by digits",
			mutate: func(l *domain.Lead) { l.LastName = "Demo1" },
			want:   []domain.Flag{domain.FlagTestData},
		},
		{
			name:   "allowed name containing a pattern",
			mutate: func(l *domain.Lead) { l.FirstName = "Demond" },
			want:   nil,
		},
	}

	c := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := cleanLead()
			tt.mutate(&lead)
			assert.True(t, domain.NewFlags(tt.want...).Equal(c.Classify(lead)), "got %v", c.Classify(lead).Sorted())
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := Default()
	lead := cleanLead()
	lead.Email = "demo@noemail.invalid"
	lead.NormalizedPhone = "123"

	first := c.Classify(lead)
	for range 50 {
		require.True(t, first.Equal(c.Classify(lead)))
	}
}

func TestClassifyBatchFlagsAllButOldestDuplicate(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	group := make([]domain.Lead, 4)
	for i := range group {
		group[i] = cleanLead()
		group[i].CreatedAt = base.Add(time.Duration(len(group)-i) * time.Hour)
	}
	oldest := group[3]

	other := cleanLead()
	other.Phone, other.NormalizedPhone = "(212) 555-0188", "2125550188"

	noPhone := cleanLead()
	noPhone.Phone, noPhone.NormalizedPhone = "", ""

	leads := append(append([]domain.Lead{}, group...), other, noPhone)
	result := Default().ClassifyBatch(leads)

	dupes := 0
	for _, lead := range group {
		if result[lead.ID].Has(domain.FlagDuplicatePhone) {
			dupes++
		}
	}
	assert.Equal(t, len(group)-1, dupes)
	assert.False(t, result[oldest.ID].Has(domain.FlagDuplicatePhone))
	assert.False(t, result[other.ID].Has(domain.FlagDuplicatePhone))
	assert.False(t, result[noPhone.ID].Has(domain.FlagDuplicatePhone))
}

func TestClassifyBatchTieBreaksOnID(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a, b := cleanLead(), cleanLead()
	a.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	a.CreatedAt, b.CreatedAt = at, at

	result := Default().ClassifyBatch([]domain.Lead{b, a})

	assert.False(t, result[a.ID].Has(domain.FlagDuplicatePhone))
	assert.True(t, result[b.ID].Has(domain.FlagDuplicatePhone))
}

func TestLoadRulesOverridesListsAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test_patterns: [\"qa\"]\nmin_phone_digits: 11\n"), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"qa"}, rules.TestPatterns)
	assert.Equal(t, 11, rules.MinPhoneDigits)
	assert.Equal(t, DefaultRules().PlaceholderDomains, rules.PlaceholderDomains)

	c := NewClassifier(rules)
	lead := cleanLead()
	lead.FirstName = "QA"
	assert.True(t, c.Classify(lead).Has(domain.FlagTestData))
	assert.True(t, c.Classify(lead).Has(domain.FlagShortPhone))
}

func TestLoadRulesReplacesAllowWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test_allow_words: [\"Testaverde\"]\n"), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"testaverde"}, rules.TestAllowWords)

	lead := cleanLead()
	lead.LastName = "Testaverde"
	assert.False(t, NewClassifier(rules).Classify(lead).Has(domain.FlagTestData))

	lead.FirstName = "Demond"
	assert.True(t, NewClassifier(rules).Classify(lead).Has(domain.FlagTestData))
}

func TestLoadRulesEmptyPathReturnsDefaults(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}
