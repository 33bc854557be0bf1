package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionCases_Integrity(t *testing.T) {
	cases := DecisionCases()
	require.Len(t, cases, 10)

	seen := make(map[string]bool)
	for _, c := range cases {
		assert.NotEmpty(t, c.ID)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
		assert.NotEmpty(t, c.Scenario, "case %s", c.ID)
		assert.NotEmpty(t, c.CorrectRecommendation, "case %s", c.ID)
		assert.NotEmpty(t, c.KeyBiases, "case %s", c.ID)
		assert.NotEmpty(t, c.RelevantBaseRates, "case %s", c.ID)
	}
}

func TestDecisionCases_ReturnsCopy(t *testing.T) {
	a := DecisionCases()
	a[0].ID = "mutated"
	b := DecisionCases()
	assert.NotEqual(t, "mutated", b[0].ID)
}

func TestDecisionCaseByID(t *testing.T) {
	c, ok := DecisionCaseByID("hiring_chemistry")
	require.True(t, ok)
	assert.Equal(t, "Candidate B (test scores)", c.CorrectRecommendation)

	_, ok = DecisionCaseByID("missing")
	assert.False(t, ok)
}

func TestLoadDecisionCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	content := `- id: custom_case
  name: Custom Case
  scenario: Should we renew the vendor contract?
  correct_recommendation: Renew with renegotiated terms
  key_biases:
    - status quo bias
  relevant_base_rates:
    - "70% of renewals keep legacy pricing"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cases, err := LoadDecisionCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "custom_case", cases[0].ID)
	assert.Equal(t, "Should we renew the vendor contract?", cases[0].Scenario)
	assert.Equal(t, []string{"status quo bias"}, cases[0].KeyBiases)
}

func TestLoadDecisionCases_MissingFile(t *testing.T) {
	_, err := LoadDecisionCases(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDecisionCases_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not a list"), 0o644))
	_, err := LoadDecisionCases(path)
	require.Error(t, err)
}

func TestLoadDecisionCases_MissingRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: No ID Here\n"), 0o644))
	_, err := LoadDecisionCases(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id and a scenario")
}
