package main

import (
	"os"

	"github.com/huimingz/shipit-go/internal/cli"
	serrors "github.com/huimingz/shipit-go/internal/errors"
	"github.com/huimingz/shipit-go/internal/log"
)

// Version information (injected at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	cli.SetVersionInfo(Version, GitCommit, BuildTime)
	if err := cli.Execute(); err != nil {
		log.Error("%v", err)
		if hint := serrors.HintOf(err); hint != "" {
			log.Hint("%s", hint)
		}
		os.Exit(cli.ExitCode(err))
	}
}
