package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"collective/engine/actors"
	"collective/engine/library"
)

func main() {
	// Various aspect of this application require global and local settings. To keep things
	// clean and tidy we put these settings in a Viper configuration.
	conf := viper.New()

	// Now we initialise this configuration with basic settings that are required on startup.
	actors.InitConfig(conf)
	// make the config accessible globally
	actors.SetConfig(conf)
	library.SetLogLevel(conf.GetInt("logLevel"))

	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
