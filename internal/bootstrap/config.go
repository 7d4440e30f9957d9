package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort        string  `mapstructure:"SERVER_PORT"`
	RedisUrl          string  `mapstructure:"REDIS_URL"`
	MongoUri          string  `mapstructure:"MONGO_URI"`
	IsLocalCors       bool    `mapstructure:"LOCAL_CORS"`
	MatchCreationFee  float64 `mapstructure:"MATCH_CREATION_FEE"`
	MoveFee           float64 `mapstructure:"MOVE_FEE"`
	StartingBalance   float64 `mapstructure:"STARTING_BALANCE"`
	AiTimeoutMs       int     `mapstructure:"AI_TIMEOUT_MS"`
	PageLimitPlayers  int     `mapstructure:"PAGE_LIMIT_PLAYERS"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MATCH_CREATION_FEE", 0.45)
	viper.SetDefault("MOVE_FEE", 0.0125)
	viper.SetDefault("STARTING_BALANCE", 10.0)
	viper.SetDefault("AI_TIMEOUT_MS", 5000)
	viper.SetDefault("PAGE_LIMIT_PLAYERS", 50)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
