package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultBotGreetingPatterns are typical openings of third-party auto
// responders. A match alone is not enough to drop a message: the sender
// must also be unknown to the tenant's address book.
var DefaultBotGreetingPatterns = []string{
	`bem-vindo`,
	`atendimento`,
	`direcionando`,
	`olá!`,
}

// FilterPolicy is the inbound filter policy table.
type FilterPolicy struct {
	BotGreetingPatterns []string `yaml:"bot_greeting_patterns"`

	compiled []*regexp.Regexp
}

// DefaultFilterPolicy returns the built-in policy.
func DefaultFilterPolicy() *FilterPolicy {
	p := &FilterPolicy{BotGreetingPatterns: append([]string(nil), DefaultBotGreetingPatterns...)}
	// defaults are known to compile
	_ = p.compile()
	return p
}

// LoadFilterPolicy reads a YAML policy file. An empty path yields the
// default policy; a file without patterns keeps the defaults.
func LoadFilterPolicy(path string) (*FilterPolicy, error) {
	if path == "" {
		return DefaultFilterPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filter policy: %w", err)
	}

	var p FilterPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing filter policy: %w", err)
	}
	if len(p.BotGreetingPatterns) == 0 {
		p.BotGreetingPatterns = append([]string(nil), DefaultBotGreetingPatterns...)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *FilterPolicy) compile() error {
	p.compiled = p.compiled[:0]
	for _, pattern := range p.BotGreetingPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return fmt.Errorf("invalid bot greeting pattern %q: %w", pattern, err)
		}
		p.compiled = append(p.compiled, re)
	}
	return nil
}

// LooksLikeBotGreeting reports whether body matches any greeting pattern.
func (p *FilterPolicy) LooksLikeBotGreeting(body string) bool {
	for _, re := range p.compiled {
		if re.MatchString(body) {
			return true
		}
	}
	return false
}
