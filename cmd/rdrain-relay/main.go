// rdrain-relay forwards status lines from the drain controller serial port
// to the collector and passes drain requests back to the device.
package main

import (
	"context"
	"flag"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/rdrain/helpers/cli"
	"github.com/temoto/rdrain/internal/config"
	"github.com/temoto/rdrain/internal/relay"
	"github.com/temoto/rdrain/log2"
	"github.com/temoto/rdrain/serial"
	"golang.org/x/sync/errgroup"
)

const statInterval = 10 * time.Minute

func main() {
	flagConfig := flag.String("config", "rdrain.hcl", "")
	flagDevice := flag.String("device", "", "serial device path, overrides config")
	flagDebug := flag.Bool("debug", false, "")
	flag.Parse()

	log := cli.NewLog(*flagDebug)
	log.Infof("hello")

	ctx, cancel := cli.SignalContext(context.Background(), log)
	defer cancel()

	r, err := setup(log, *flagConfig, *flagDevice, *flagDebug)
	if err != nil {
		log.Fatalf("%s: %s", relay.KindStartupFailure, errors.ErrorStack(err))
	}
	cli.SdNotify(log, daemon.SdNotifyReady)
	log.Infof("relay running")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Run(gctx) })
	g.Go(func() error {
		t := time.NewTicker(statInterval)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				log.Infof("stat %s", r.Stat.String())
			}
		}
	})
	err = g.Wait()
	cli.SdNotify(log, daemon.SdNotifyStopping)
	r.Wait()
	log.Infof("stat %s", r.Stat.String())
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

// setup is the startup phase, any error here is fatal before the first frame.
func setup(log *log2.Log, configPath, device string, debug bool) (*relay.Relay, error) {
	fs, err := config.NewOsFullReader("")
	if err != nil {
		return nil, errors.Trace(err)
	}
	c, err := config.ReadConfig(log, fs, configPath)
	if err != nil {
		return nil, errors.Annotatef(err, "config=%s", configPath)
	}
	if device != "" {
		c.Serial.Device = device
	}

	session, err := c.LoadSession(fs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if _, err := url.ParseRequestURI(session.URL()); err != nil {
		return nil, errors.Annotate(err, "uplink endpoint")
	}
	log.Infof("uplink endpoint=%s timeout=%s", session.Endpoint, c.UplinkTimeout())

	link, err := serial.Open(c.SerialConfig())
	if err != nil {
		return nil, errors.Trace(err)
	}
	// drop whatever accumulated in device buffers before we started
	if err := link.Flush(); err != nil {
		_ = link.Close()
		return nil, errors.Annotate(err, "serial flush")
	}
	log.Infof("serial device=%s baud=%d", c.Serial.Device, c.Serial.Baud)

	relayLog := log.Clone(logLevel(debug || c.Serial.LogDebug))
	uplinkLog := log.Clone(logLevel(debug || c.Uplink.LogDebug))
	client := &http.Client{Timeout: c.UplinkTimeout()}
	uplink := relay.NewUplink(client, session, uplinkLog)
	return relay.New(link, uplink, c.Serial.MaxFrame, relayLog), nil
}

func logLevel(debug bool) log2.Level {
	if debug {
		return log2.LDebug
	}
	return log2.LInfo
}
