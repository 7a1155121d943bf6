package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/satlayer-restaking/library/types"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestWriteDefaultThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	written, err := WriteDefault(path)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteDefault(path)
	require.NoError(t, err)
	assert.False(t, written)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"
genesis = "genesis.yaml"

[store]
backend = "redis"
redis_addr = "redis:6379"

[kafka]
brokers = ["kafka:9092"]
`), 0o600))
	t.Setenv("RESTAKING_API_ADDR", "0.0.0.0:1317")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "genesis.yaml"), cfg.Genesis)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "restaking", cfg.Store.Namespace)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "restaking-events", cfg.Kafka.Topic)
	assert.Equal(t, "0.0.0.0:1317", cfg.API.Addr)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[store]\nbackend = \"leveldb\"\n"), 0o600))
	_, err := Load(path)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/restaking.toml")
	p, err := Path("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/restaking.toml", p)

	p, err = Path("local.toml")
	require.NoError(t, err)
	assert.Equal(t, "local.toml", p)
}

func TestParseGenesis(t *testing.T) {
	owner := types.GenerateAddress("owner")
	operator := types.GenerateAddress("operator")
	g, err := ParseGenesis([]byte(`
owner: ` + owner + `
withdrawal_lock_period: 86400
min_withdrawal_delay_blocks: 10
guardrail:
  threshold: "0.5"
  members:
    - addr: ` + owner + `
      weight: 1
balances:
  - address: ` + owner + `
    denom: ubbn
    amount: "1000"
operators:
  - ` + operator + `
vaults:
  - denom: ubbn
    operator: ` + operator + `
    withdrawal_delay_blocks: 20
`))
	require.NoError(t, err)
	assert.Equal(t, owner, g.Owner)
	assert.Equal(t, int64(86400), g.WithdrawalLockPeriod)
	require.NotNil(t, g.Guardrail)
	assert.Equal(t, "0.5", g.Guardrail.Threshold)
	assert.Equal(t, []GenesisVault{{Denom: "ubbn", Operator: operator, WithdrawalDelayBlocks: 20}}, g.Vaults)

	bz, err := g.Marshal()
	require.NoError(t, err)
	again, err := ParseGenesis(bz)
	require.NoError(t, err)
	assert.Equal(t, g, again)
}

func TestGenesisValidation(t *testing.T) {
	owner := types.GenerateAddress("owner")
	tests := []struct {
		name string
		yaml string
	}{
		{"bad owner", "owner: nope\n"},
		{"negative lock", "owner: " + owner + "\nwithdrawal_lock_period: -1\n"},
		{"vault without operator", "owner: " + owner + "\nvaults:\n  - denom: ubbn\n    operator: " + owner + "\n"},
		{"balance without denom", "owner: " + owner + "\nbalances:\n  - address: " + owner + "\n    amount: \"1\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGenesis([]byte(tt.yaml))
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}
}
