package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conclist/bench"
	"github.com/conclist/config"
	"github.com/conclist/dump"
	"github.com/conclist/lib/logger"
	"github.com/conclist/lib/utils"
)

var banner = `
   ___              ___ __
  / __|___ _ _  __ | (_) /_
 | (__/ _ \ ' \/ _|| | (_-<
  \___\___/_||_\__||_|_/__/
`

const defaultConfigFile = "listbench.conf"

// cancelOnSignal cancels ctx on the first termination signal
func cancelOnSignal(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutting down on ", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

func main() {
	print(banner)

	configFilename := os.Getenv("CONFIG")
	if configFilename == "" {
		if utils.PathExists(defaultConfigFile) {
			config.SetupConfig(defaultConfigFile)
		}
	} else {
		config.SetupConfig(configFilename)
	}

	logger.Setup(&logger.Settings{
		Path:       config.Properties.LogPath,
		Name:       "listbench",
		Ext:        "log",
		TimeFormat: "2006-01-02",
	})

	report, err := bench.Run(cancelOnSignal(context.Background()), config.Properties)
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("run %s ok in %s: pushed %d, popped %d, still in %d, decimals found %d",
		report.RunID, report.Elapsed, report.Pushed, report.Popped, len(report.Survivors), report.Decimals))

	if config.Properties.RDBFilename == "" {
		return
	}
	vals := make([][]byte, len(report.Survivors))
	for i, v := range report.Survivors {
		vals[i] = []byte(v)
	}
	if err := dump.WriteList(config.Properties.RDBFilename, "listbench:"+report.RunID, vals); err != nil {
		logger.Error("write rdb file failed: ", err)
		os.Exit(1)
	}
	logger.Info("survivors written to ", config.Properties.RDBFilename)
}
