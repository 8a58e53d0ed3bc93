package filterlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plugins() []PluginView {
	return []PluginView{
		{ID: 1, Identifier: "k-means", Version: "0.9.0", Name: "K-Means", Type: "processing", Tags: []string{"clustering"}},
		{ID: 2, Identifier: "k-means", Version: "1.2.0", Name: "K-Means", Type: "processing", Tags: []string{"clustering"}},
		{ID: 3, Identifier: "k-means", Version: "2.0.0", Name: "K-Means", Type: "processing", Tags: []string{"clustering"}},
		{ID: 4, Identifier: "dbscan", Version: "1.1.0", Name: "DBSCAN", Type: "processing", Tags: []string{"clustering"}},
		{ID: 5, Identifier: "loader", Version: "1.0.0", Name: "Costume Loader", Type: "conversion", Tags: []string{"loading"}},
	}
}

func idsOf(set map[uint]struct{}) []uint {
	var ids []uint
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func TestMatchAllMatchesEverything(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindMatchAll}, plugins())
	require.NoError(t, err)
	assert.Len(t, set, 5)
}

func TestAndEmptyMatchesNothing(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindAnd, And: nil}, plugins())
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestOrEmptyMatchesNothing(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindOr, Or: nil}, plugins())
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestAndSingleChildEquivalence(t *testing.T) {
	tagExpr := Expr{Kind: KindTag, Tag: "clustering"}
	direct, err := EvaluateBatch(tagExpr, plugins())
	require.NoError(t, err)

	wrapped, err := EvaluateBatch(Expr{Kind: KindAnd, And: []Expr{tagExpr}}, plugins())
	require.NoError(t, err)

	assert.Equal(t, direct, wrapped)
}

func TestNotComplementsWithinBatch(t *testing.T) {
	tagExpr := Expr{Kind: KindTag, Tag: "loading"}
	matched, err := EvaluateBatch(tagExpr, plugins())
	require.NoError(t, err)

	negated, err := EvaluateBatch(Expr{Kind: KindNot, Not: &tagExpr}, plugins())
	require.NoError(t, err)

	for id := range matched {
		_, inNegated := negated[id]
		assert.False(t, inNegated)
	}
	assert.Equal(t, 5, len(matched)+len(negated))
}

func TestVersionSpecifierRange(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindAnd, And: []Expr{
		{Kind: KindTag, Tag: "clustering"},
		{Kind: KindVersion, Version: ">=1.0.0,<2.0.0"},
	}}, plugins())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{2, 4}, idsOf(set))
}

func TestIDFilterBareIdentifierMatchesAnyVersion(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindID, ID: "k-means"}, plugins())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2, 3}, idsOf(set))
}

func TestIDFilterFullIDMatchesExact(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindID, ID: "k-means@1.2.0"}, plugins())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{2}, idsOf(set))
}

func TestNameFilterUsesSimilarity(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindName, Name: "K Means"}, plugins())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2, 3}, idsOf(set))
}

func TestTypeFilterCaseInsensitive(t *testing.T) {
	set, err := EvaluateBatch(Expr{Kind: KindType, Type: "PROCESSING"}, plugins())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2, 3, 4}, idsOf(set))
}

func TestVersionFilterInvalidSpecifierErrors(t *testing.T) {
	_, err := EvaluateBatch(Expr{Kind: KindVersion, Version: "not-a-spec"}, plugins())
	assert.Error(t, err)
}

func TestParseRejectsMultipleKeys(t *testing.T) {
	_, err := Parse(`{"tag": "x", "type": "y"}`)
	assert.Error(t, err)
}

func TestParseEmptyStringMatchesAll(t *testing.T) {
	expr, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, KindMatchAll, expr.Kind)
}

func TestParseNestedAndOr(t *testing.T) {
	expr, err := Parse(`{"and":[{"tag":"clustering"},{"or":[{"type":"processing"},{"type":"conversion"}]}]}`)
	require.NoError(t, err)
	require.NoError(t, Validate(expr))
	assert.Equal(t, KindAnd, expr.Kind)
	require.Len(t, expr.And, 2)
	assert.Equal(t, KindOr, expr.And[1].Kind)
}

func TestValidateRejectsBadVersionSpecifier(t *testing.T) {
	expr, err := Parse(`{"version":"not-a-spec"}`)
	require.NoError(t, err)
	assert.Error(t, Validate(expr))
}

func TestValidateTabInvariantRejectsGroupKeyWithFilter(t *testing.T) {
	err := ValidateTabInvariant("group1", `{"tag":"x"}`, "library")
	assert.Error(t, err)
}

func TestValidateTabInvariantRejectsGroupKeyInWorkspace(t *testing.T) {
	err := ValidateTabInvariant("group1", "", "workspace/foo")
	assert.Error(t, err)
}

func TestValidateTabInvariantAllowsEmptyGroupKey(t *testing.T) {
	assert.NoError(t, ValidateTabInvariant("", `{"tag":"x"}`, "workspace/foo"))
}
