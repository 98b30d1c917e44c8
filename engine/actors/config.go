package actors

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"keeperx/engine/library"
	"keeperx/state/token"
)

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/keeperx/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	SetDefaults(config)
	// Create our working directory and config file if not exist
	initRootDir(config)
	if err = touch(config.GetString("rootDir") + "config.yaml"); err != nil {
		library.LogCLI(err.Error(), 1)
	}
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 1)
	}
}

// SetDefaults registers every engine setting with its default value.
func SetDefaults(config *viper.Viper) {
	p := token.DefaultParams()
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("logLevel", 4)
	config.SetDefault("pairAddress", "")
	config.SetDefault("rebaseIntervalDays", int(p.RebaseInterval/(24*time.Hour)))
	config.SetDefault("rebaseBurnBPS", p.RebaseBurnBPS)
	config.SetDefault("minLockDays", int(p.MinLockPeriod/(24*time.Hour)))
	config.SetDefault("saleCapTokens", library.FormatUnits(p.SaleCap))
	config.SetDefault("salePeriodHours", int(p.SalePeriod/time.Hour))
	config.SetDefault("baseAPR", p.BaseAPR)
	config.SetDefault("floorAPR", p.FloorAPR)
	config.SetDefault("utilizationKinkBPS", p.UtilizationKinkBPS)
	config.SetDefault("metricsAddr", "")
	config.SetDefault("pushgatewayURL", "")
	config.SetDefault("refreshSeconds", 2)
	config.SetDefault("doNotPublish", true)
	config.SetDefault("relays", []string{})
}

// ParamsFromConfig maps the policy settings onto token parameters.
func ParamsFromConfig(config *viper.Viper) (token.Params, error) {
	p := token.DefaultParams()
	p.RebaseInterval = time.Duration(config.GetInt64("rebaseIntervalDays")) * 24 * time.Hour
	p.RebaseBurnBPS = config.GetUint64("rebaseBurnBPS")
	p.MinLockPeriod = time.Duration(config.GetInt64("minLockDays")) * 24 * time.Hour
	p.SalePeriod = time.Duration(config.GetInt64("salePeriodHours")) * time.Hour
	p.BaseAPR = config.GetUint64("baseAPR")
	p.FloorAPR = config.GetUint64("floorAPR")
	p.UtilizationKinkBPS = config.GetUint64("utilizationKinkBPS")
	saleCap, err := library.ParseUnits(config.GetString("saleCapTokens"))
	if err != nil {
		return p, fmt.Errorf("saleCapTokens: %w", err)
	}
	p.SaleCap = saleCap
	if err = p.Validate(); err != nil {
		return p, err
	}
	return p, nil
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

func touch(name string) error {
	f, err := os.OpenFile(name, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	if conf == nil {
		conf = viper.New()
		SetDefaults(conf)
	}
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}
