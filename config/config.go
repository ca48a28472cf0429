package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName 是配置文件名，位于 Load 传入的目录下。
const FileName = "reachplot.cfg.json"

// EnvPrefix 是环境变量前缀，例如 REACHPLOT_OUTPUT_FORMAT 覆盖 output.format。
const EnvPrefix = "REACHPLOT"

// Load reads configuration from the JSON file in configDir and sets default values.
// A missing file is not an error; environment variables override both.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")
	viper.SetDefault("figure", "")
	viper.SetDefault("assetsDir", ".")
	viper.SetDefault("image", "")

	viper.SetDefault("output.format", "svg")
	viper.SetDefault("output.dpmm", 1.0)

	viper.SetDefault("serve.address", "127.0.0.1:5006")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetFloat64 returns a float config value.
func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}
