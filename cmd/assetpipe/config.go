package main

import (
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/askiada/go-assetpipe/pkg/stages"
)

const envPrefix = "ASSETPIPE"

// envKeys can be set from the environment even when no configuration file mentions them.
var envKeys = []string{
	"path.src",
	"path.temp",
	"path.dist",
	"legacy",
	"autoprefixer.command",
}

// loadConfig reads configFile, or assetpipe.yaml in the working directory when it is
// empty, overlays the environment and fills the omitted fields with their defaults.
func loadConfig(v *viper.Viper, configFile string) (stages.Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		err := v.BindEnv(key)
		if err != nil {
			return stages.Config{}, errors.Wrapf(err, "unable to bind %s", key)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("assetpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return stages.Config{}, errors.Wrap(err, "unable to read configuration")
		}
	}

	var cfg stages.Config
	err = v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.DecodeHookFuncType(scalarToList)))
	if err != nil {
		return stages.Config{}, errors.Wrap(err, "unable to decode configuration")
	}

	return cfg.WithDefaults()
}

// scalarToList turns a single string into a one element list. Globs hold commas, so the
// list is never split.
func scalarToList(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}

	return []string{reflect.ValueOf(data).String()}, nil
}
