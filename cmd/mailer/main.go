// Package main: mailer service
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/idefi-ai/agents/lib/config"
	"github.com/idefi-ai/agents/lib/logging"
	"github.com/idefi-ai/agents/lib/msg/amqp"
	"github.com/idefi-ai/agents/lib/notify"
	"github.com/idefi-ai/agents/mailer"
)

func main() {
	// get command line flags
	confPath := flag.String("c", "", "flag to get configuration from json file")
	monitor := flag.Bool("m", false, "flag to monitor the server with Prometheus at http://localhost:9090")
	flag.Parse()

	log := logging.New("mailer")

	// extract configuration
	conf, err := config.ExtractConfiguration(*confPath, log)
	if err != nil {
		log.WithError(err).Fatal("Error reading configuration")
	}

	log.WithFields(logging.Fields{"smtp": conf.SMTP.Host, "mb": conf.MbType}).Info("Configuration loaded")

	// load Prometheus monitor
	if *monitor {
		go func() {
			log.Infof("Serving metrics API on %s", conf.Metrics)

			h := http.NewServeMux()
			h.Handle("/metrics", promhttp.Handler())

			if err := http.ListenAndServe(conf.Metrics, h); err != nil { //nolint:gosec // metrics endpoint
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	// load message broker
	if conf.MbType != "amqp" {
		log.Fatalf("Unknown message broker type: %s", conf.MbType)
	}

	mb, err := amqp.New(conf.MbConn)
	if err != nil {
		time.Sleep(10 * time.Second) // wait 10s for AMQP to be ready and try to reconnect

		if mb, err = amqp.New(conf.MbConn); err != nil {
			log.WithError(err).Fatal("Error connecting to message broker")
		}
	}

	defer func() {
		log.WithError(mb.Close()).Info("Closing message broker")
	}()

	if err = mb.Setup(nil); err != nil {
		log.WithError(err).Error("Error setting up message broker")

		return
	}

	// create mailer service
	m := mailer.New(mb, notify.NewSMTPSender(conf.SMTP), log)

	// capture CTRL+C or docker's SIGTERM for gracious exit
	go func() {
		sigchan := make(chan os.Signal, 10)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		log.Info("Program killed !")
		m.Stop()
	}()

	done, err := m.Run()
	if err != nil {
		log.WithError(err).Error("Error consuming mails")

		return
	}

	log.Infof("Mailer: %s", <-done)
}
