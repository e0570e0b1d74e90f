package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseEnvOnlyAppliesDefaults(t *testing.T) {
	t.Parallel()
	m := NewConfigManager("")
	m.SetLookup(envMap(map[string]string{
		EnvToken:   "tok",
		EnvGuildID: "123",
	}))
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Scan.WindowHours != DefaultWindowHours {
		t.Fatalf("WindowHours = %d, want %d", cfg.Scan.WindowHours, DefaultWindowHours)
	}
	if cfg.Scan.Concurrency != DefaultConcurrency {
		t.Fatalf("Concurrency = %d, want %d", cfg.Scan.Concurrency, DefaultConcurrency)
	}
	if cfg.Scan.MaxResults != DefaultMaxResults {
		t.Fatalf("MaxResults = %d, want %d", cfg.Scan.MaxResults, DefaultMaxResults)
	}
	if cfg.Discord.AckRoleID != DefaultAckRoleID {
		t.Fatalf("AckRoleID = %q, want default", cfg.Discord.AckRoleID)
	}
	if !cfg.Logging.ConsoleEnabled() {
		t.Fatal("console logging should default to enabled")
	}
}

func TestParseYAMLWithEnvOverride(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "ackscan.yaml")
	body := `
discord:
  token: file-token
  guild_id: 1438600000000000000
scan:
  window_hours: 24
  concurrency: 4
schedule: "0 9 * * *"
logging:
  level: DEBUG
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	m := NewConfigManager(path)
	m.SetLookup(envMap(map[string]string{
		EnvConcurrency: "7",
		EnvMaxResults:  "",
	}))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discord.GuildID != "1438600000000000000" {
		t.Fatalf("GuildID = %q", cfg.Discord.GuildID)
	}
	if cfg.Scan.WindowHours != 24 {
		t.Fatalf("WindowHours = %d, want 24", cfg.Scan.WindowHours)
	}
	if cfg.Scan.Concurrency != 7 {
		t.Fatalf("Concurrency = %d, want env override 7", cfg.Scan.Concurrency)
	}
	if cfg.Scan.MaxResults != DefaultMaxResults {
		t.Fatalf("empty env must not override: MaxResults = %d", cfg.Scan.MaxResults)
	}
	if got := cfg.Scan.Window().Hours(); got != 24 {
		t.Fatalf("Window = %vh, want 24h", got)
	}
	if m.Get() != cfg {
		t.Fatal("Load should commit the parsed config")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{
			name: "unknown field",
			file: `{"discord":{"token":"t","guild_id":"1"},"nope":true}`,
			want: "unknown field",
		},
		{
			name: "missing token",
			env:  map[string]string{EnvGuildID: "1"},
			want: "discord.token",
		},
		{
			name: "bad guild id",
			env:  map[string]string{EnvToken: "t", EnvGuildID: "abc"},
			want: "discord.guild_id",
		},
		{
			name: "negative window",
			env:  map[string]string{EnvToken: "t", EnvGuildID: "1", EnvWindowHours: "-1"},
			want: "scan.window_hours",
		},
		{
			name: "non-numeric concurrency",
			env:  map[string]string{EnvToken: "t", EnvGuildID: "1", EnvConcurrency: "ten"},
			want: EnvConcurrency,
		},
		{
			name: "bad timezone",
			file: `{"discord":{"token":"t","guild_id":"1"},"schedule":"@daily","timezone":"Mars/Olympus"}`,
			want: "timezone",
		},
		{
			name: "bad run timeout",
			file: `{"discord":{"token":"t","guild_id":"1"},"run_timeout":"soon"}`,
			want: "run_timeout",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "cfg.json")
				if err := os.WriteFile(path, []byte(tt.file), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			m := NewConfigManager(path)
			m.SetLookup(envMap(tt.env))
			_, err := m.Parse()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestOutputChannelIDsCoversEveryDestination(t *testing.T) {
	t.Parallel()
	cats := Categories()
	if len(cats) == 0 {
		t.Fatal("compiled category table is empty")
	}
	excl := OutputChannelIDs(cats)
	for _, c := range cats {
		if _, ok := excl[c.OrdersChannelID]; !ok {
			t.Fatalf("%s orders channel missing from exclusion set", c.Name)
		}
		if _, ok := excl[c.MessagesChannelID]; !ok {
			t.Fatalf("%s messages channel missing from exclusion set", c.Name)
		}
		if _, ok := excl[c.ID]; ok {
			t.Fatalf("category id %s must not be excluded", c.ID)
		}
	}
	if len(excl) != 2*len(cats) {
		t.Fatalf("exclusion set size = %d, want %d", len(excl), 2*len(cats))
	}
}

func TestCategoriesReturnsCopy(t *testing.T) {
	t.Parallel()
	a := Categories()
	a[0].Name = "mutated"
	if Categories()[0].Name == "mutated" {
		t.Fatal("Categories must not expose the compiled table")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Discord: DiscordConfig{Token: "a", GuildID: "1"}, Scan: ScanConfig{WindowHours: 168}}
	newCfg := &Config{Discord: DiscordConfig{Token: "a", GuildID: "1"}, Scan: ScanConfig{WindowHours: 24}, Schedule: "@hourly"}

	changed, _, restart := SummarizeConfigChange(oldCfg, newCfg)
	if strings.Join(changed, ",") != "scan,schedule" {
		t.Fatalf("changed = %v", changed)
	}
	if restart {
		t.Fatal("scan/schedule changes should apply without restart")
	}

	newCfg.Discord.Token = "b"
	if _, _, restart := SummarizeConfigChange(oldCfg, newCfg); !restart {
		t.Fatal("token change must require restart")
	}

	tzCfg := *oldCfg
	tzCfg.Timezone = "Europe/Berlin"
	changed, attrs, restart := SummarizeConfigChange(oldCfg, &tzCfg)
	if strings.Join(changed, ",") != "timezone" || !restart || len(attrs) != 1 {
		t.Fatalf("timezone change: changed=%v restart=%v attrs=%d", changed, restart, len(attrs))
	}
}
