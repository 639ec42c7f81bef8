package portal

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const timeout = 30

// Router returns the handler of the RESTful API.
func (p *Portal) Router() http.Handler {
	r := mux.NewRouter()
	r.PathPrefix("/api/").Handler(p.proxy) // environment dependent proxy to the agents backend
	r.HandleFunc("/", p.homeHandler)

	a := r.NewRoute().Subrouter()
	a.Use(p.authenticate)
	a.HandleFunc("/preferences", p.getPrefsHandler).Methods("GET")             // load preferences
	a.HandleFunc("/preferences/{key}", p.togglePrefHandler).Methods("POST")    // toggle one preference
	a.HandleFunc("/panel", p.panelHandler).Methods("PUT", "DELETE")            // edit or reset the panel
	a.HandleFunc("/monitor", p.monitorHandler).Methods("POST")                 // check the wallet for dusting
	a.HandleFunc("/alerts", p.alertsHandler).Methods("GET")                    // alerts of the panel
	a.HandleFunc("/insights/{address}", p.insightsHandler).Methods("GET")      // insight log of an address
	a.HandleFunc("/monitored", p.monitoredHandler).Methods("GET")              // monitored addresses
	a.HandleFunc("/monitored/{address}", p.unmonitorHandler).Methods("DELETE") // stop monitoring an address
	a.HandleFunc("/agents", p.agentsHandler).Methods("POST")                   // create an agent
	a.HandleFunc("/visualize/files", p.filesHandler).Methods("GET")            // local datasets
	a.HandleFunc("/visualize", p.visualizeHandler).Methods("POST")             // visualise a dataset
	a.HandleFunc("/roadmap/{address}", p.roadmapHandler).Methods("GET")        // financial roadmap
	a.HandleFunc("/simulator/{address}", p.simulatorHandler).Methods("GET")    // investment simulator

	return r
}

// Init sets up and starts the http/https server to service the RESTful API. If sslPort, sslCert and sslKey are
// informed, it will also start an https (TLS) server on the specified endpoint. It returns once Stop is called.
func (p *Portal) Init(endpoint, port, sslPort, sslCert, sslKey string) string {
	var s, ss *http.Server

	// each server reports its exit error once
	errc, errTLSc := make(chan error, 1), make(chan error, 1)

	r := p.Router()

	// setup shutdown channel
	sc := make(chan struct{})

	p.l.Lock()
	p.sc = sc
	// start http server
	if port != "" {
		s = &http.Server{
			Handler:      r,
			Addr:         endpoint + ":" + port,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}
		p.s = s

		go func() {
			errc <- s.ListenAndServe()
		}()

		p.log.Infof("Listening to API http requests on %s:%s", endpoint, port)
	}
	// start https server
	if sslPort != "" && sslCert != "" && sslKey != "" {
		ss = &http.Server{
			Handler:      r,
			Addr:         endpoint + ":" + sslPort,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}
		p.ss = ss

		go func() {
			errTLSc <- ss.ListenAndServeTLS(sslCert, sslKey)
		}()

		p.log.Infof("Listening to API https requests on %s:%s", endpoint, sslPort)
	}
	p.l.Unlock()

	// wait for servers to be shutdown
	<-sc

	return fmt.Sprintf("shutdown http server:%v, https server:%v", serveErr(s, errc), serveErr(ss, errTLSc))
}

// serveErr returns the exit error of server s, nil if it was never started.
func serveErr(s *http.Server, c <-chan error) error {
	if s == nil {
		return nil
	}

	return <-c
}
