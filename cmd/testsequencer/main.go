package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/jrife/distbench/credentials"
	"github.com/jrife/distbench/sequencer"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	port, err := getenvInt("PORT", 10000)
	if err != nil {
		logger.Fatal("invalid PORT", zap.Error(err))
	}

	srv := sequencer.NewServer(logger)

	serverCredentials, channelCredentials := credentials.Insecure()

	if err := srv.Initialize(sequencer.Opts{
		Port:               port,
		ServerCredentials:  serverCredentials,
		ChannelCredentials: channelCredentials,
	}); err != nil {
		logger.Fatal("could not initialize test sequencer", zap.Error(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	srv.Shutdown()

	if err := srv.Wait(); err != nil {
		logger.Error("test sequencer exited with error", zap.Error(err))
	}
}

func getenvInt(name string, def int) (int, error) {
	value := os.Getenv(name)
	if value == "" {
		return def, nil
	}

	return strconv.Atoi(value)
}
