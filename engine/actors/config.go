package actors

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"collective/engine/library"
	"collective/state/membership"
	"collective/state/votes"
)

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/collective/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	SetDefaults(config)
	// Create our working directory and config file if not exist
	initRootDir(config)
	if err := Touch(config.GetString("rootDir") + "config.yaml"); err != nil {
		library.LogCLI(err.Error(), 0)
	}
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
}

// SetDefaults fills in every key the engine reads.
func SetDefaults(config *viper.Viper) {
	d := membership.DefaultConfig()
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("snapshotDb", "snapshots.db")
	config.SetDefault("eventLog", "events.jsonl")
	config.SetDefault("logLevel", 4)
	config.SetDefault("verifySignatures", true)
	config.SetDefault("relays", []string{})
	config.SetDefault("treasuryAccount", "treasury")
	config.SetDefault("governance.minimumStake", d.MinimumStake)
	config.SetDefault("governance.applicationBond", d.ApplicationBond)
	config.SetDefault("governance.sponsorBond", d.SponsorBond)
	config.SetDefault("governance.voteBond", d.VoteBond)
	config.SetDefault("governance.floorPriceNumerator", d.FloorPriceNumerator)
	config.SetDefault("governance.floorPriceDenominator", d.FloorPriceDenominator)
	config.SetDefault("governance.maximumShareIssuance", d.MaximumShareIssuance)
	config.SetDefault("governance.threshold", d.Threshold.String())
	config.SetDefault("governance.applicationTimeLimit", d.ApplicationTimeLimit)
	config.SetDefault("governance.votingPeriod", d.VotingPeriod)
}

// MembershipConfig reads the governance parameters.
func MembershipConfig(config *viper.Viper) (membership.Config, error) {
	policy, err := votes.ParsePolicy(config.GetString("governance.threshold"))
	if err != nil {
		return membership.Config{}, err
	}
	c := membership.Config{
		MinimumStake:          config.GetUint64("governance.minimumStake"),
		ApplicationBond:       config.GetUint64("governance.applicationBond"),
		SponsorBond:           config.GetUint64("governance.sponsorBond"),
		VoteBond:              config.GetUint64("governance.voteBond"),
		FloorPriceNumerator:   config.GetUint64("governance.floorPriceNumerator"),
		FloorPriceDenominator: config.GetUint64("governance.floorPriceDenominator"),
		MaximumShareIssuance:  config.GetUint64("governance.maximumShareIssuance"),
		Threshold:             policy,
		ApplicationTimeLimit:  config.GetUint64("governance.applicationTimeLimit"),
		VotingPeriod:          config.GetUint64("governance.votingPeriod"),
	}
	if err := c.ValidateBasic(); err != nil {
		return membership.Config{}, fmt.Errorf("governance config: %w", err)
	}
	return c, nil
}

// Genesis reads the founding members from the "genesis" key, a list of
// {account, shares, capital}.
func Genesis(config *viper.Viper) ([]membership.GenesisMember, error) {
	var founders []membership.GenesisMember
	if err := config.UnmarshalKey("genesis", &founders); err != nil {
		return nil, fmt.Errorf("genesis config: %w", err)
	}
	return founders, nil
}

// Path resolves a configured file name against rootDir.
func Path(config *viper.Viper, key string) string {
	name := config.GetString(key)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(config.GetString("rootDir"), name)
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.MkdirAll(conf.GetString("rootDir"), 0755)
		if err != nil {
			library.LogCLI(err, 0)
		}
	}
}

// Touch creates the file if it does not exist.
func Touch(name string) error {
	f, err := os.OpenFile(name, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}
