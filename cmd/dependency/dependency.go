/*
 *     Copyright 2024 The Nocsentry Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dependency

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/types"
)

// InitCommandAndConfig initializes flags binding and common sub cmds.
// config is a pointer to configuration struct.
func InitCommandAndConfig(cmd *cobra.Command, useConfigFile bool, config any) {
	rootName := cmd.Root().Name()
	cobra.OnInitialize(func() {
		if err := initConfig(viper.GetViper(), useConfigFile, rootName, config); err != nil {
			logger.Fatalf("init config: %s", err.Error())
		}
	})

	if !cmd.HasParent() {
		flags := cmd.PersistentFlags()
		flags.Bool("console", false, "whether logger output records to the stdout")
		flags.Bool("verbose", false, "whether logger use debug level")
		flags.Bool("progress", false, "whether show a progress bar of every stage")

		if useConfigFile {
			flags.String("config", "", fmt.Sprintf("the path of configuration file with yaml extension name, default is %s, it can also be set by env var: %s", defaultConfigFile(rootName), strings.ToUpper(rootName+"_config")))
		}

		// Bind common flags.
		if err := viper.BindPFlags(flags); err != nil {
			panic(errors.Wrap(err, "bind flags to viper"))
		}

		// Config for binding env.
		viper.SetEnvPrefix(rootName)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		// Add common cmds only on root cmd.
		cmd.AddCommand(VersionCmd)
	}
}

// SetupQuitSignalHandler sets up a signal handler for SIGTERM and SIGINT,
// handler is called once on the first signal.
func SetupQuitSignalHandler(handler func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		logger.Infof("receive %s signal", sig)
		signal.Stop(signals)
		handler()
	}()
}

func defaultConfigFile(name string) string {
	return filepath.Join("/etc", name, name+".yaml")
}

// initConfig reads in config file and env variables if set.
func initConfig(v *viper.Viper, useConfigFile bool, name string, config any) error {
	if useConfigFile {
		cfgFile := v.GetString("config")
		if cfgFile == "" {
			cfgFile = defaultConfigFile(name)
		}
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			// The default config file is optional.
			if !os.IsNotExist(err) || v.GetString("config") != "" {
				return errors.Wrapf(err, "read config file %s", cfgFile)
			}
		} else {
			logger.Infof("load config from %s", v.ConfigFileUsed())
		}
	}

	if err := v.Unmarshal(config, initDecoderConfig); err != nil {
		return errors.Wrap(err, "unmarshal config to struct")
	}

	return nil
}

func initDecoderConfig(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		decodeWithYAML(
			reflect.TypeOf(time.Second),
			reflect.TypeOf(types.GranularityRouter),
			reflect.TypeOf(types.ScenarioModeEdges),
		),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// decodeWithYAML returns a mapstructure.DecodeHookFunc to decode the given
// types by unmarshalling from yaml text.
func decodeWithYAML(types ...reflect.Type) mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data any) (any, error) {
		for _, typ := range types {
			if t == typ {
				b, _ := yaml.Marshal(data)
				v := reflect.New(t)
				if err := yaml.Unmarshal(b, v.Interface()); err != nil {
					return nil, err
				}

				return v.Elem().Interface(), nil
			}
		}
		return data, nil
	}
}
