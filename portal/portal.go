// Package portal implements the portal microservice.
//
// This microservice serves the RESTful API used by the iDefi agents web front end: notification preferences and
// wallet monitoring for the signed-in user, agent creation, dataset visualisation, the financial roadmap and the
// investment simulator. Requests under /api/ are proxied to the agents backend of the configured environment.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idefi-ai/agents/lib/api"
	"github.com/idefi-ai/agents/lib/block"
	"github.com/idefi-ai/agents/lib/config"
	"github.com/idefi-ai/agents/lib/msg"
	"github.com/idefi-ai/agents/lib/notify"
	"github.com/idefi-ai/agents/lib/session"
	"github.com/idefi-ai/agents/lib/store"
	"github.com/idefi-ai/agents/lib/store/db"
	"github.com/idefi-ai/agents/monitor"
	"github.com/idefi-ai/agents/panel"
)

// DefaultNet is the network monitored addresses are registered under when no blockchain is configured.
const DefaultNet = "mainNet"

// Errors returned by New.
var (
	ErrNoBroker   = errors.New("mail type amqp requires a message broker")
	ErrNoStore    = errors.New("a database is required")
	ErrNoSecret   = errors.New("jwt secret is required")
	ErrMailType   = errors.New("unknown mail type")
	ErrBadAddress = errors.New("invalid ethereum address")
)

// Portal contains the data necessary to deliver the service
type Portal struct {
	dbtype string
	db     store.DB               // db connection
	bc     map[string]block.Chain // blockchain clients
	mb     msg.MsgBroker
	log    *logrus.Logger
	net    string // network monitored addresses are registered under

	ver     *session.Verifier
	panels  *panel.Registry
	agents  *api.Agents
	vis     *api.Visualizer
	planner *api.Planner
	proxy   http.Handler

	l  sync.Mutex    // guards s, ss and sc between Init and Stop
	s  *http.Server  // http server
	ss *http.Server  // https server
	sc chan struct{} // http server channel used for graceful shutdowns
}

// New returns a pointer to a new Portal service. mb may be nil unless conf.MailType is amqp.
func New(conf config.ServiceConfig, dbConn store.DB, mb msg.MsgBroker, bc map[string]block.Chain,
	log *logrus.Logger,
) (*Portal, error) {
	if dbConn == nil {
		return nil, ErrNoStore
	}

	if conf.JWTSecret == "" {
		return nil, ErrNoSecret
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	var d notify.Dispatcher

	switch conf.MailType {
	case notify.AMQP:
		if mb == nil {
			return nil, ErrNoBroker
		}

		d = notify.NewBrokerDispatcher(mb)
	case notify.OUTBOX:
		d = notify.NewOutboxDispatcher(dbConn)
	case notify.SMTP:
		d = notify.NewSMTPSender(conf.SMTP)
	default:
		return nil, fmt.Errorf("%w: %s", ErrMailType, conf.MailType)
	}

	proxy, err := newProxy(conf.ProxyTarget(), log)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(conf.API.TimeoutInSec) * time.Second
	internal := api.NewClient(conf.InternalAPI(), timeout)

	net := DefaultNet
	if len(conf.Bc) > 0 {
		net = conf.Bc[0].Name
	}

	mon := monitor.New(conf.AgentName, internal, d, dbConn, log)

	return &Portal{
		dbtype:  conf.DBType,
		db:      dbConn,
		bc:      bc,
		mb:      mb,
		log:     log,
		net:     net,
		ver:     session.NewVerifier(conf.JWTSecret),
		panels:  panel.NewRegistry(dbConn, mon, net, log),
		agents:  api.NewAgents(internal),
		vis:     api.NewVisualizer(internal),
		planner: api.NewPlanner(api.NewClient(conf.API.Metrics, timeout), api.NewClient(conf.API.Quantum, timeout)),
		proxy:   proxy,
	}, nil
}

// Stop shuts down the http servers implementing the RESTful API and closes gracefully the connections to message
// broker, blockchains and database.
func (p *Portal) Stop() {
	var err error

	p.l.Lock()
	s, ss, sc := p.s, p.ss, p.sc
	p.sc = nil
	p.l.Unlock()

	// shutdown http servers
	if s != nil {
		if err = s.Shutdown(context.Background()); err != nil {
			p.log.WithError(err).Error("Error in http server shutdown")
		}
	}

	if ss != nil {
		if err = ss.Shutdown(context.Background()); err != nil {
			p.log.WithError(err).Error("Error in https server shutdown")
		}
	}

	if sc != nil {
		close(sc) // indicate shutdowns have finished
	}

	if p.mb != nil {
		if err = p.mb.Close(); err != nil {
			p.log.WithError(err).Error("Error closing message broker")
		}
	}

	block.End(p.bc)

	if p.db != nil {
		err = db.Close(p.dbtype, p.db)
		p.log.WithError(err).Infof("Disconnecting %v database", p.dbtype)
	}
}
