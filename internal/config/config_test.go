package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.KG.MaxTriples)
	assert.Equal(t, 0.8, cfg.Ranking.ModelWeight)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[linking]
primary_threshold = 0.7
linkers = ["lookup"]

[kg]
max_triples = 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Linking.PrimaryThreshold)
	assert.Equal(t, []string{"lookup"}, cfg.Linking.Linkers)
	assert.Equal(t, 25, cfg.KG.MaxTriples)
	// untouched sections keep their defaults
	assert.Equal(t, "sparql", cfg.KG.Backend)
	assert.Equal(t, DefaultJudgePrompt, cfg.Prompts.Judge)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Linking.FuzzyThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Linking.Linkers = []string{"wikidata", "oracle"}
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.KG.Backend = "graph"
	cfg.Graph.URI = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Ranking.ModelWeight = 0
	cfg.Ranking.TrustWeight = 0
	assert.Error(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("SEARCH_API_KEY", "secret")
	t.Setenv("TIME_STEPS", "true")

	cfg := Default()
	ApplyEnv(cfg)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.Web.APIKey)
	assert.True(t, cfg.Server.TimeSteps)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[kg]\nmax_triples = 10\n"), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SEARCH_API_KEY", "secret")
	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.KG.MaxTriples)
	assert.Equal(t, "secret", cfg.Web.APIKey)

	_, err = Resolve(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err, "an explicit path must exist")

	require.NoError(t, os.WriteFile(path, []byte("[linking]\nprimary_threshold = 2.0\n"), 0o644))
	_, err = Resolve(path)
	assert.Error(t, err)
}
