package reconcile

import (
	"testing"

	"attendance/sync/internal/repository/postgres/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("kitten", "kitten"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 5, levenshtein("", "abcde"))
	assert.Equal(t, 5, levenshtein("abcde", ""))
	assert.Equal(t, 1, levenshtein("aziz", "azis"))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("Aziz Karimov", "aziz karimov"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("  Aziz  ", "aziz"), 1e-9)
	assert.Less(t, Similarity("Aziz Karimov", "Malika Yusupova"), 0.4)
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("Aziz", ""))
}

func TestScoreNameAndEmail(t *testing.T) {
	candidate := user.DirectoryUser{ID: 1, FullName: "Aziz Karimov", Email: "aziz@corp.uz"}

	// exact name, exact email
	assert.InDelta(t, 1.0, Score("Aziz Karimov", "AZIZ@corp.uz", candidate), 1e-9)

	// exact name, no vendor email: capped at the name weight
	assert.InDelta(t, 0.6, Score("Aziz Karimov", "", candidate), 1e-9)

	// email alone contributes its flat weight
	got := Score("Zulfiya", "aziz@corp.uz", candidate)
	assert.Greater(t, got, 0.4)
	assert.Less(t, got, 0.6)
}

func TestRankCandidatesOrderAndTies(t *testing.T) {
	directory := []user.DirectoryUser{
		{ID: 1, FullName: "Malika Yusupova"},
		{ID: 2, FullName: "Aziz Karimov"},
		{ID: 3, FullName: "Aziz Karimov"},
		{ID: 4, FullName: "Abbos Karimov"},
	}

	candidates := RankCandidates("Aziz Karimov", "", directory)
	require.Len(t, candidates, 4)

	assert.Equal(t, "Aziz Karimov", candidates[0].FullName)
	assert.Equal(t, "Aziz Karimov", candidates[1].FullName)
	assert.Equal(t, "Abbos Karimov", candidates[2].FullName)
	assert.Equal(t, "Malika Yusupova", candidates[3].FullName)

	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score, candidates[i].Score)
	}
}
