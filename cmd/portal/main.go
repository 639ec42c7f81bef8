// Package main: portal service.
//
// The portal serves the RESTful API of the iDefi agents front end. Notification mails are handed to the mailer
// service through the message broker (mailtype "amqp"), written to the database outbox (mailtype "outbox") or sent
// directly over SMTP (mailtype "smtp").
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/idefi-ai/agents/lib/block"
	"github.com/idefi-ai/agents/lib/config"
	"github.com/idefi-ai/agents/lib/logging"
	"github.com/idefi-ai/agents/lib/msg"
	"github.com/idefi-ai/agents/lib/msg/amqp"
	"github.com/idefi-ai/agents/lib/notify"
	"github.com/idefi-ai/agents/lib/store"
	"github.com/idefi-ai/agents/lib/store/db"
	"github.com/idefi-ai/agents/portal"
)

func main() {
	// get command line flags
	confPath := flag.String("c", "", "flag to get configuration from json file")
	monitor := flag.Bool("m", false, "flag to monitor the server with Prometheus at http://localhost:9090")
	flag.Parse()

	log := logging.New("portal")

	// extract configuration
	conf, err := config.ExtractConfiguration(*confPath, log)
	if err != nil {
		log.WithError(err).Fatal("Error reading configuration")
	}

	log.WithFields(logging.Fields{"env": conf.Env, "db": conf.DBType, "mail": conf.MailType}).Info("Configuration loaded")

	// connect to database
	var dbConn store.DB

	if conf.DBConn != "" || conf.DBType == db.MEMORY {
		if dbConn, err = db.New(conf.DBType, conf.DBConn); err != nil {
			log.WithError(err).Fatal("Error connecting to database")
		}

		log.Infof("Connected to %s database", conf.DBType)
	}

	// load all blockchains
	blocks := block.Init(conf.Bc, log)
	log.Infof("%d blockchain clients loaded", len(blocks))

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
	var mb msg.MsgBroker

	if conf.MailType == notify.AMQP {
		switch conf.MbType {
		case "amqp":
			var r *amqp.Amqp
			if r, err = amqp.New(conf.MbConn); err != nil {
				time.Sleep(10 * time.Second) // wait 10s for AMQP to be ready and try to reconnect

				if r, err = amqp.New(conf.MbConn); err != nil {
					log.WithError(err).Fatal("Error connecting to message broker")
				}
			}

			if err = r.Setup(nil); err != nil {
				log.WithError(err).Fatal("Error setting up message broker")
			}

			mb = r
		default:
			log.Errorf("Unknown message broker type: %s", conf.MbType)
		}
	}

	// create portal service
	p, err := portal.New(conf, dbConn, mb, blocks, log)
	if err != nil {
		log.WithError(err).Fatal("Error creating portal")
	}

	// capture CTRL+C or docker's SIGTERM for gracious exit
	finish := make(chan struct{})

	go func() {
		sigchan := make(chan os.Signal, 10)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		log.Info("Program killed !")
		// do last actions and wait for all write operations to end
		p.Stop()
		close(finish)
	}()

	// init RESTful API, wait for its return and log response
	log.Infof("Portal: %s", p.Init(conf.RestfulEndpoint, conf.Port, conf.SSLPort, conf.SSLCert, conf.SSLKey))

	<-finish
}
