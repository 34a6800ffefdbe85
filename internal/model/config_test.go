package model

import "testing"

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Compare.Epsilon != 1e-6 {
		t.Errorf("Compare.Epsilon = %v, want 1e-6", cfg.Compare.Epsilon)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"no data dir", func(c *Config) { c.Data.Dir = "" }},
		{"bad backend", func(c *Config) { c.Data.Backend = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Data.Backend = "sqlite"; c.Data.SQLitePath = "" }},
		{"no workers", func(c *Config) { c.Concurrency.Workers = 0 }},
		{"negative epsilon", func(c *Config) { c.Compare.Epsilon = -1 }},
		{"no articles", func(c *Config) { c.Limits.MaxArticles = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNextIDAndFindByID(t *testing.T) {
	records := []PriceRecord{{ID: 3}, {ID: 7}, {ID: 1}}
	if got := NextID(records); got != 8 {
		t.Errorf("NextID = %d, want 8", got)
	}
	if got := NextID(nil); got != 1 {
		t.Errorf("NextID(nil) = %d, want 1", got)
	}
	if got := FindByID(records, 7); got != 1 {
		t.Errorf("FindByID(7) = %d, want 1", got)
	}
	if got := FindByID(records, 9); got != -1 {
		t.Errorf("FindByID(9) = %d, want -1", got)
	}
}
