package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFilterPolicy(t *testing.T) {
	p := DefaultFilterPolicy()

	assert.True(t, p.LooksLikeBotGreeting("Seja BEM-VINDO à nossa loja"))
	assert.True(t, p.LooksLikeBotGreeting("Olá! Em que posso ajudar?"))
	assert.False(t, p.LooksLikeBotGreeting("olá, quero um corte"))
	assert.False(t, p.LooksLikeBotGreeting("quanto custa a barba?"))
}

func TestLoadFilterPolicy(t *testing.T) {
	dir := t.TempDir()

	custom := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("bot_greeting_patterns:\n  - 'mensagem autom[aá]tica'\n"), 0o600))
	p, err := LoadFilterPolicy(custom)
	require.NoError(t, err)
	assert.True(t, p.LooksLikeBotGreeting("Esta é uma Mensagem Automática"))
	assert.False(t, p.LooksLikeBotGreeting("bem-vindo"))

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("{}\n"), 0o600))
	p, err = LoadFilterPolicy(empty)
	require.NoError(t, err)
	assert.Equal(t, DefaultBotGreetingPatterns, p.BotGreetingPatterns)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bot_greeting_patterns:\n  - '('\n"), 0o600))
	_, err = LoadFilterPolicy(bad)
	assert.Error(t, err)

	_, err = LoadFilterPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	p, err = LoadFilterPolicy("")
	require.NoError(t, err)
	assert.True(t, p.LooksLikeBotGreeting("atendimento"))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TEARDOWN_WAIT", "10s")
	t.Setenv("HISTORY_LIMIT", "nope")

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "agendamento", cfg.SchedulingKeyword)
	assert.Equal(t, 6, cfg.HistoryLimit)
	assert.Equal(t, "3s", cfg.TeardownWait.String())
}
