package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"github.com/sushant23/ai-agent-demo-sub001/pkg/config"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "REDIS_ADDR", "LOG_LEVEL", "PORT"} {
		t.Setenv(k, "")
	}
	c := config.Default()
	c.ApplyEnv()
	return c
}

func TestNewAppWithoutProviders(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = a.Close(ctx) }()

	assert.Empty(t, a.providers.Providers())
	assert.True(t, a.orchestrator.Status().IsRunning)

	resp, err := ask(ctx, a, "s1", "u1", "show my sales", "")
	require.NoError(t, err)
	assert.Equal(t, string(workflow.PatternRouting), resp.Pattern)

	conv, err := a.sessions.Load(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.HistoryLen())
}

func TestNewAppSkipsProviderWithoutKey(t *testing.T) {
	c := testConfig(t)
	c.LLM.Providers = []config.ProviderConfig{{Name: config.ProviderOpenAI}}

	ctx := context.Background()
	a, err := newApp(ctx, c, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = a.Close(ctx) }()
	assert.Empty(t, a.providers.Providers())
}

func TestNewAppOpenAIProvider(t *testing.T) {
	c := testConfig(t)
	c.LLM.Providers = []config.ProviderConfig{{Name: config.ProviderOpenAI, APIKey: "sk-test", RateLimit: 5, Burst: 2}}

	ctx := context.Background()
	a, err := newApp(ctx, c, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = a.Close(ctx) }()

	require.Len(t, a.providers.Providers(), 1)
	assert.Equal(t, "openai", a.providers.Providers()[0].Name())
}

func TestNewAppRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig(t)
	c.Session.Backend = config.BackendRedis
	c.Session.Redis.Addr = mr.Addr()

	ctx := context.Background()
	a, err := newApp(ctx, c, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = a.Close(ctx) }()

	_, err = ask(ctx, a, "s1", "u1", "check inventory", "")
	require.NoError(t, err)
	assert.True(t, mr.Exists("assistant:session:s1"))
}

func TestNewAppRestrictedPatterns(t *testing.T) {
	c := testConfig(t)
	c.Assistant.EnabledPatterns = []string{"routing"}

	ctx := context.Background()
	a, err := newApp(ctx, c, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = a.Close(ctx) }()

	assert.Equal(t, []workflow.PatternType{workflow.PatternRouting}, a.orchestrator.EnabledPatterns())
}

func TestSelectCommand(t *testing.T) {
	testConfig(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"select", "compare", "SKU-1001", "and", "SKU-2002", "sales"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "intent:     sales_analysis")
	assert.Contains(t, out.String(), "pattern:    parallel_fanout")
}

func TestInitConfigCommand(t *testing.T) {
	testConfig(t)
	path := filepath.Join(t.TempDir(), "assistant.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"init-config", path})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "wrote "+path)

	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Validate())
	assert.Len(t, loaded.Assistant.EnabledPatterns, len(workflow.BuiltinPatterns()))
	assert.NotEmpty(t, loaded.Flows)
	assert.Empty(t, loaded.LLM.Providers)

	rootCmd.SetArgs([]string{"init-config", path})
	assert.ErrorContains(t, rootCmd.Execute(), "already exists")
}

func TestServeRejectsBadStatusInterval(t *testing.T) {
	c := testConfig(t)
	c.Server.StatusInterval = "every minute"

	prevCfg, prevLogger := cfg, logger
	cfg, logger = c, zap.NewNop()
	defer func() { cfg, logger = prevCfg, prevLogger }()

	serveCmd.SetContext(context.Background())
	err := runServe(serveCmd, nil)
	assert.ErrorContains(t, err, "invalid server.status_interval")
}
