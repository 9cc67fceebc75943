package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"userapi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("userapi failed")
		os.Exit(1)
	}
}
