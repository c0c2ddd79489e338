package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newBoundCmd(t *testing.T) (*cobra.Command, *viper.Viper) {
	t.Helper()
	v := viper.New()
	cmd := &cobra.Command{Use: "check"}
	require.NoError(t, BindFlags(cmd, v))
	return cmd, v
}

func TestLoadDefaults(t *testing.T) {
	_, v := newBoundCmd(t)

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.StutterLength)
	require.Equal(t, "0.99", cfg.MaxSchedProb.String())
	require.Equal(t, "z3", cfg.SolverPath)
	require.False(t, cfg.DontRestrictSched)
	require.False(t, cfg.AllowForallSched)
}

func TestLoadFlagOverridesDefault(t *testing.T) {
	cmd, v := newBoundCmd(t)
	require.NoError(t, cmd.Flags().Set(KeyStutterLength, "3"))
	require.NoError(t, cmd.Flags().Set(KeyMaxSchedProb, "0.8"))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.StutterLength)
	require.Equal(t, "0.8", cfg.MaxSchedProb.String())
}

func TestLoadRejectsMalformedMaxSchedProb(t *testing.T) {
	cmd, v := newBoundCmd(t)
	require.NoError(t, cmd.Flags().Set(KeyMaxSchedProb, "not-a-number"))

	_, err := Load(v)
	require.Error(t, err)
	var invalid *InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, KeyMaxSchedProb, invalid.Field)
}

func TestFileConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hyperprobcheck.toml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "stutter_length")

	fc, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, Defaults().StutterLength, fc.StutterLength)
	require.Equal(t, Defaults().MaxSchedProb.String(), fc.MaxSchedProb)
}

func TestFileConfigMergeIntoOverridesDefaultsNotFlags(t *testing.T) {
	cmd, v := newBoundCmd(t)
	fc := &FileConfig{StutterLength: 5, SolverPath: "cvc5"}
	fc.MergeInto(v)

	// No flag was set, so the file's values win over the hardcoded
	// defaults.
	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.StutterLength)
	require.Equal(t, "cvc5", cfg.SolverPath)

	// An explicit flag still wins over whatever the file set.
	require.NoError(t, cmd.Flags().Set(KeyStutterLength, "9"))
	cfg, err = Load(v)
	require.NoError(t, err)
	require.Equal(t, 9, cfg.StutterLength)
}
