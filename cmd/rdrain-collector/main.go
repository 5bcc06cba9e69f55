// rdrain-collector receives drain controller status records over HTTP
// and answers each with a drain decision.
package main

import (
	"context"
	"flag"

	"github.com/coreos/go-systemd/daemon"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/temoto/rdrain/helpers/cli"
	"github.com/temoto/rdrain/internal/collector"
	"github.com/temoto/rdrain/internal/config"
)

func main() {
	flagConfig := flag.String("config", "rdrain.hcl", "")
	flagListen := flag.String("listen", "", "host:port, overrides config")
	flagDebug := flag.Bool("debug", false, "")
	flag.Parse()

	log := cli.NewLog(*flagDebug)
	ctx, cancel := cli.SignalContext(context.Background(), log)
	defer cancel()

	fs, err := config.NewOsFullReader("")
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	c, err := config.ReadConfig(log, fs, *flagConfig)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	if *flagListen != "" {
		c.Collector.Listen = *flagListen
	}
	apiKey, err := c.CollectorAPIKey(fs)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	if apiKey == "" {
		log.Infof("collector api key not set, accepting any client")
	}

	if !*flagDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := collector.NewServer(c.Collector.Listen, apiKey, collector.NewStore(c.StateTTL()), log)
	if err := srv.Start(); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	cli.SdNotify(log, daemon.SdNotifyReady)

	<-ctx.Done()
	cli.SdNotify(log, daemon.SdNotifyStopping)
	if err := srv.Stop(); err != nil {
		log.Errorf("collector stop: %v", err)
	}
}
