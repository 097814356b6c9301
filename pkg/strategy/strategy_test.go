package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_Classify(t *testing.T) {
	resolve, err := DefaultTable().Compile(DefaultStrategy)
	require.NoError(t, err)

	tests := []struct {
		path string
		want Strategy
	}{
		{"/_next/static/chunks/main.js", CacheFirst},
		{"/icons/icon-192x192.png", CacheFirst},
		{"/images/projects/hero.webp", CacheFirst},
		{"/videos/reel.mp4", CacheFirst},
		{"/api/contact", NetworkFirst},
		{"/projects/3", NetworkFirst},
		{"/about/", NetworkFirst},
		{"/contact/", NetworkFirst},
		{"/", StaleWhileRevalidate},
		{"/favicon.ico", StaleWhileRevalidate},
		// "/projects" lacks the trailing slash, so only "/" matches
		{"/projects", StaleWhileRevalidate},
		{"", NetworkFirst},
		{"projects", NetworkFirst},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(tt.path))
		})
	}
}

func TestCompile_PrecedenceFollowsRuleOrder(t *testing.T) {
	// A broad prefix listed first beats a longer prefix listed later
	table := Table{
		{Match: PathPrefix{"/"}, Strategy: StaleWhileRevalidate},
		{Match: PathPrefix{"/api/"}, Strategy: NetworkFirst},
	}
	resolve, err := table.Compile(DefaultStrategy)
	require.NoError(t, err)

	assert.Equal(t, StaleWhileRevalidate, resolve("/api/projects"))
}

func TestCompile_TrieMatchesLinearScan(t *testing.T) {
	table := DefaultTable()
	trie, err := table.Compile(DefaultStrategy)
	require.NoError(t, err)

	// Wrapping a predicate forces the ordered-scan resolver
	scanTable := append(Table{}, table...)
	scanTable[0].Match = PredicateFunc(table[0].Match.Matches)
	scan, err := scanTable.Compile(DefaultStrategy)
	require.NoError(t, err)

	paths := []string{
		"/", "", "/i", "/icons", "/icons/", "/icons/x.png", "/api", "/api/", "/api/x",
		"/_next/static/a.css", "/_next/data/x.json", "/about", "/about/me", "x/y",
	}
	for _, p := range paths {
		assert.Equal(t, scan(p), trie(p), "path %q", p)
	}
}

func TestCompile_CustomPredicate(t *testing.T) {
	table := Table{
		{Match: PredicateFunc(func(p string) bool { return strings.HasSuffix(p, ".mp4") }), Strategy: CacheFirst},
		{Match: PathPrefix{"/api/"}, Strategy: NetworkFirst},
	}
	resolve, err := table.Compile(StaleWhileRevalidate)
	require.NoError(t, err)

	assert.Equal(t, CacheFirst, resolve("/api/reel.mp4"))
	assert.Equal(t, NetworkFirst, resolve("/api/projects"))
	assert.Equal(t, StaleWhileRevalidate, resolve("/unmatched"))
}

func TestCompile_InvalidFallbackUsesDefault(t *testing.T) {
	resolve, err := Table{}.Compile(Strategy(0))
	require.NoError(t, err)
	assert.Equal(t, NetworkFirst, resolve("/anything"))
}

func TestTable_Validate(t *testing.T) {
	_, err := Table{{Match: nil, Strategy: CacheFirst}}.Compile(DefaultStrategy)
	assert.Error(t, err)

	_, err = Table{{Match: PathPrefix{"/"}, Strategy: Strategy(42)}}.Compile(DefaultStrategy)
	assert.Error(t, err)
}

func TestStrategy_StringAndParse(t *testing.T) {
	for _, s := range []Strategy{CacheFirst, NetworkFirst, StaleWhileRevalidate} {
		parsed, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	parsed, err := Parse("Stale-While-Revalidate")
	require.NoError(t, err)
	assert.Equal(t, StaleWhileRevalidate, parsed)

	_, err = Parse("cache-only")
	assert.Error(t, err)

	assert.Equal(t, "strategy(9)", Strategy(9).String())
}
