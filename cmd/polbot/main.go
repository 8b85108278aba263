package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/m3rciful/polbot/bot/app"
	corecmd "github.com/m3rciful/polbot/core/cmd"
	"github.com/m3rciful/polbot/core/buildinfo"
)

func main() {
	version := flag.Bool("version", false, "print build info and exit")
	configPath := flag.String("config", corecmd.DefaultConfigPath, "config file used when CONFIG_PATH is unset")
	flag.Parse()

	if *version {
		fmt.Println("polbot", buildinfo.String())
		return
	}

	if err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: *configPath,
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatalf("polbot: %v", err)
	}
}
