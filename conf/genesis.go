package conf

import (
	"os"

	errorsmod "cosmossdk.io/errors"
	"gopkg.in/yaml.v3"

	"github.com/satlayer/satlayer-restaking/library/types"
)

// Genesis is the initial state applied once to an empty store.
type Genesis struct {
	Owner string `yaml:"owner"`
	// Seconds, zero keeps the router default.
	WithdrawalLockPeriod     int64            `yaml:"withdrawal_lock_period"`
	MinWithdrawalDelayBlocks int64            `yaml:"min_withdrawal_delay_blocks"`
	Guardrail                *GuardrailConfig `yaml:"guardrail,omitempty"`
	Balances                 []Balance        `yaml:"balances"`
	// Registered in the registry before vaults are deployed.
	Operators []string       `yaml:"operators"`
	Vaults    []GenesisVault `yaml:"vaults"`
}

type GuardrailConfig struct {
	Members   []GuardrailMember `yaml:"members"`
	Threshold string            `yaml:"threshold"`
}

type GuardrailMember struct {
	Addr   string `yaml:"addr"`
	Weight uint64 `yaml:"weight"`
}

type Balance struct {
	Address string `yaml:"address"`
	Denom   string `yaml:"denom"`
	Amount  string `yaml:"amount"`
}

// GenesisVault is deployed for its operator and whitelisted in the router.
type GenesisVault struct {
	Denom                 string `yaml:"denom"`
	Operator              string `yaml:"operator"`
	WithdrawalDelayBlocks int64  `yaml:"withdrawal_delay_blocks"`
}

func LoadGenesis(path string) (Genesis, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}
	return ParseGenesis(bz)
}

func ParseGenesis(bz []byte) (Genesis, error) {
	var g Genesis
	if err := yaml.Unmarshal(bz, &g); err != nil {
		return Genesis{}, errorsmod.Wrapf(types.ErrInvalidInput, "genesis: %v", err)
	}
	return g, g.Validate()
}

func (g Genesis) Validate() error {
	if err := types.ValidateAddress(g.Owner); err != nil {
		return errorsmod.Wrap(err, "genesis owner")
	}
	if g.WithdrawalLockPeriod < 0 || g.MinWithdrawalDelayBlocks < 0 {
		return errorsmod.Wrap(types.ErrInvalidInput, "genesis periods cannot be negative")
	}
	for _, b := range g.Balances {
		if err := types.ValidateAddress(b.Address); err != nil {
			return errorsmod.Wrap(err, "genesis balance")
		}
		if b.Denom == "" {
			return errorsmod.Wrapf(types.ErrInvalidInput, "genesis balance of %s has no denom", b.Address)
		}
	}
	operators := make(map[string]bool, len(g.Operators))
	for _, op := range g.Operators {
		if err := types.ValidateAddress(op); err != nil {
			return errorsmod.Wrap(err, "genesis operator")
		}
		operators[op] = true
	}
	for _, v := range g.Vaults {
		if !operators[v.Operator] {
			return errorsmod.Wrapf(types.ErrInvalidInput, "genesis vault operator %s is not listed in operators", v.Operator)
		}
	}
	return nil
}

func (g Genesis) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}
