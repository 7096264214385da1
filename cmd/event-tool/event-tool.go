package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"collective/engine/actors"
	"collective/engine/library"
)

func main() {
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
