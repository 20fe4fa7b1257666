package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/cuckoodo/internal/command"
	"github.com/calvinalkan/cuckoodo/internal/config"
	"github.com/calvinalkan/cuckoodo/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// load runs LoadConfig in an isolated dir with an isolated HOME.
func load(t *testing.T, dir string, env map[string]string, configPath string, storeOverride *string) (config.Config, error) {
	t.Helper()

	if env == nil {
		env = map[string]string{}
	}

	if _, ok := env["HOME"]; !ok {
		env["HOME"] = filepath.Join(dir, "home")
	}

	return config.LoadConfig(config.LoadConfigInput{
		WorkDirOverride: dir,
		ConfigPath:      configPath,
		StoreOverride:   storeOverride,
		Env:             env,
	})
}

func ptr(s string) *string { return &s }

func Test_LoadConfig_Returns_Defaults_When_No_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := load(t, dir, nil, "", nil)
	require.NoError(t, err)

	assert.Equal(t, store.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, ".cuckoodo", "issues.db"), cfg.StorePathAbs)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.FormatText, cfg.Log.Format)
	assert.Equal(t, config.DefaultPollTimeout, cfg.PollTimeout)
	assert.Equal(t, dir, cfg.EffectiveCwd)
	assert.Empty(t, cfg.Sources.Global)
	assert.Empty(t, cfg.Sources.Project)
}

func Test_LoadConfig_Applies_Layers_In_Precedence_Order(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")

	writeFile(t, filepath.Join(xdg, "cuckoodo", "config.json"), `{
		// global
		"token": "global-token",
		"log": {"level": "debug"},
		"poll_timeout": 10,
	}`)
	writeFile(t, filepath.Join(dir, config.ConfigFileName), `{
		"store": {"driver": "file", "path": "issues.json"},
		"log": {"format": "json"},
	}`)

	cfg, err := load(t, dir, map[string]string{"XDG_CONFIG_HOME": xdg}, "", nil)
	require.NoError(t, err)

	require.Equal(t, "global-token", cfg.Token)
	require.Equal(t, config.StoreConfig{Driver: store.DriverFile, Path: "issues.json"}, cfg.Store)
	require.Equal(t, config.LogConfig{Level: "debug", Format: config.FormatJSON}, cfg.Log)
	require.Equal(t, 10, cfg.PollTimeout)
	require.Equal(t, filepath.Join(xdg, "cuckoodo", "config.json"), cfg.Sources.Global)
	require.Equal(t, filepath.Join(dir, config.ConfigFileName), cfg.Sources.Project)
}

func Test_LoadConfig_Falls_Back_To_Home_For_Global_Config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	writeFile(t, filepath.Join(home, ".config", "cuckoodo", "config.json"), `{"token": "from-home"}`)

	cfg, err := load(t, dir, map[string]string{"HOME": home}, "", nil)
	require.NoError(t, err)
	require.Equal(t, "from-home", cfg.Token)
}

func Test_LoadConfig_Env_Overrides_Files_And_Flag_Overrides_Env(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFileName), `{"token": "file", "store": {"path": "a.db"}}`)

	env := map[string]string{config.EnvToken: "env-token", config.EnvStore: "file:b.json"}

	cfg, err := load(t, dir, env, "", nil)
	require.NoError(t, err)
	require.Equal(t, "env-token", cfg.Token)
	require.Equal(t, config.StoreConfig{Driver: store.DriverFile, Path: "b.json"}, cfg.Store)
	require.Equal(t, []string{config.EnvToken, config.EnvStore}, cfg.Sources.Env)

	cfg, err = load(t, dir, env, "", ptr("memory"))
	require.NoError(t, err)
	require.Equal(t, config.StoreConfig{Driver: store.DriverMemory}, cfg.Store)
	require.Empty(t, cfg.StorePathAbs)
	require.Equal(t, []string{"--store"}, cfg.Sources.Flags)
}

func Test_LoadConfig_Explicit_Config_Replaces_Project_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ConfigFileName), `{"token": "project"}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"token": "custom"}`)

	cfg, err := load(t, dir, nil, "custom.json", nil)
	require.NoError(t, err)
	require.Equal(t, "custom", cfg.Token)
	require.Equal(t, filepath.Join(dir, "custom.json"), cfg.Sources.Project)
}

func Test_LoadConfig_Returns_Error_When_Config_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "Malformed", content: `{invalid json}`, wantErr: config.ErrConfigInvalid},
		{name: "UnknownField", content: `{"tokn": "x"}`, wantErr: config.ErrConfigInvalid},
		{name: "EmptyStorePath", content: `{"store": {"path": ""}}`, wantErr: config.ErrStorePathEmpty},
		{name: "UnknownDriver", content: `{"store": {"driver": "redis"}}`, wantErr: store.ErrUnknownDriver},
		{name: "LogLevel", content: `{"log": {"level": "loud"}}`, wantErr: config.ErrLogLevel},
		{name: "LogFormat", content: `{"log": {"format": "xml"}}`, wantErr: config.ErrLogFormat},
		{name: "PollTimeout", content: `{"poll_timeout": -1}`, wantErr: config.ErrPollTimeout},
		{name: "AliasKind", content: `{"aliases": {"fly": ["f"]}}`, wantErr: config.ErrAliasKind},
		{name: "AliasConflict", content: `{"aliases": {"add": ["list"]}}`, wantErr: command.ErrAliasConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, config.ConfigFileName), tt.content)

			_, err := load(t, dir, nil, "", nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_LoadConfig_Returns_Error_When_Explicit_Config_Missing(t *testing.T) {
	t.Parallel()

	_, err := load(t, t.TempDir(), nil, "nope.json", nil)
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func Test_LoadConfig_Returns_Error_When_Store_Flag_Empty(t *testing.T) {
	t.Parallel()

	_, err := load(t, t.TempDir(), nil, "", ptr(""))
	require.ErrorIs(t, err, config.ErrStorePathEmpty)
}

func Test_LoadConfig_Merges_Aliases_Across_Layers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")
	writeFile(t, filepath.Join(xdg, "cuckoodo", "config.json"), `{"aliases": {"add": ["купи"]}}`)
	writeFile(t, filepath.Join(dir, config.ConfigFileName), `{"aliases": {"add": ["запиши"], "list": ["чё"]}}`)

	cfg, err := load(t, dir, map[string]string{"XDG_CONFIG_HOME": xdg}, "", nil)
	require.NoError(t, err)

	want := map[string][]string{"add": {"купи", "запиши"}, "list": {"чё"}}
	if diff := cmp.Diff(want, cfg.Aliases); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}

	aliases, err := cfg.AliasTable()
	require.NoError(t, err)

	kind, _, ok := aliases.Lookup("/купи молоко")
	require.True(t, ok)
	require.Equal(t, command.KindAdd, kind)

	kind, _, ok = aliases.Lookup("/add x")
	require.True(t, ok, "built-in words stay")
	require.Equal(t, command.KindAdd, kind)
}

func Test_ParseStoreAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr    string
		want    config.StoreConfig
		wantErr error
	}{
		{addr: "memory", want: config.StoreConfig{Driver: store.DriverMemory}},
		{addr: "sqlite:/tmp/x.db", want: config.StoreConfig{Driver: store.DriverSQLite, Path: "/tmp/x.db"}},
		{addr: "file:todo.json", want: config.StoreConfig{Driver: store.DriverFile, Path: "todo.json"}},
		{addr: "data/issues.JSON", want: config.StoreConfig{Driver: store.DriverFile, Path: "data/issues.JSON"}},
		{addr: "issues.db", want: config.StoreConfig{Driver: store.DriverSQLite, Path: "issues.db"}},
		{addr: "", wantErr: config.ErrStorePathEmpty},
		{addr: "sqlite:", wantErr: config.ErrStorePathEmpty},
		{addr: "memory:x", wantErr: config.ErrStoreAddress},
	}

	for _, tt := range tests {
		got, err := config.ParseStoreAddress(tt.addr)
		if tt.wantErr != nil {
			require.ErrorIs(t, err, tt.wantErr, tt.addr)

			continue
		}

		require.NoError(t, err, tt.addr)
		require.Equal(t, tt.want, got, tt.addr)
	}
}

func Test_MaskedToken(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                "",
		"abc":             "***",
		"123456:ABCDEFGH": "***********EFGH",
	}

	for token, want := range tests {
		if got := (config.Config{Token: token}).MaskedToken(); got != want {
			t.Errorf("MaskedToken(%q)=%q, want=%q", token, got, want)
		}
	}
}

func Test_NewLogger_Honors_Level_And_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := config.Config{Log: config.LogConfig{Level: "warn", Format: config.FormatJSON}}
	log := cfg.NewLogger(&buf)

	log.Info("hidden")
	log.Warn("shown", "chat", 1)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"shown"`)
	require.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func Test_WriteDefault_Writes_Loadable_Template_And_Refuses_Overwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path, err := config.WriteDefault(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, config.ConfigFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "{"))

	cfg, err := load(t, dir, nil, "", nil)
	require.NoError(t, err)

	want := config.DefaultConfig()
	require.Equal(t, want.Store, cfg.Store)
	require.Equal(t, want.Log, cfg.Log)
	require.Equal(t, want.PollTimeout, cfg.PollTimeout)

	_, err = config.WriteDefault(dir)
	require.ErrorIs(t, err, config.ErrConfigExists)
}
