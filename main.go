package main

import (
	"os"

	"adboard/cmd"

	log "github.com/sirupsen/logrus"

	_ "golang.org/x/crypto/x509roots/fallback" // We need this to make TLS work in scratch containers
)

func main() {
	app := cmd.RootApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
