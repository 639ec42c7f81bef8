package portal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/idefi-ai/agents/lib/api"
	"github.com/idefi-ai/agents/lib/prefs"
	"github.com/idefi-ai/agents/lib/session"
	"github.com/idefi-ai/agents/lib/store"
	"github.com/idefi-ai/agents/lib/util"
	"github.com/idefi-ai/agents/panel"
)

// Errors returned to client requests.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNoAddr     = errors.New("undefined address - missing in uri")
	ErrNoNet      = errors.New("only one network can be queried: ?net=<blockchain>")
)

// Welcome is the body replied by the home route.
const Welcome = "Hello, this is your iDefi agents portal!"

// Response defines the data structure returned to the client making the http request.
type Response struct {
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// panelEdit holds the optional fields of a panel update.
type panelEdit struct {
	WalletAddress     *string `json:"walletAddress"`
	NotificationEmail *string `json:"notificationEmail"`
}

// monitorReply is the body replied by the monitor route.
type monitorReply struct {
	Alert         string          `json:"alert"`
	Dusting       bool            `json:"dusting"`
	Data          json.RawMessage `json:"monitoringData,omitempty"`
	Alerts        []string        `json:"alerts"`
	DispatchError string          `json:"dispatchError,omitempty"`
	InsightError  string          `json:"insightError,omitempty"`
}

type agentReply struct {
	Message string                 `json:"message"`
	Agent   map[string]interface{} `json:"agent,omitempty"`
}

type visualizeInput struct {
	SourceType string `json:"sourceType"`
	Address    string `json:"address"`
	Filename   string `json:"filename"`
	MaxNodes   int    `json:"maxNodes"`
}

type visualizeReply struct {
	URL     string `json:"visualization_url,omitempty"`
	Message string `json:"message,omitempty"`
}

type roadmapReply struct {
	Metrics      *api.RoadmapMetrics `json:"metrics,omitempty"`
	MetricsError string              `json:"metricsError,omitempty"`
	Risk         api.RiskAnalysis    `json:"riskAnalysis,omitempty"`
	RiskLevel    string              `json:"riskLevel,omitempty"`
	RiskError    string              `json:"riskError,omitempty"`
	Balances     map[string]string   `json:"balances"`
}

type simulatorReply struct {
	Optimization      *api.Optimization `json:"optimization,omitempty"`
	OptimizationError string            `json:"optimizationError,omitempty"`
	Risk              api.RiskAnalysis  `json:"riskAnalysis,omitempty"`
	RiskLevel         string            `json:"riskLevel,omitempty"`
	RiskError         string            `json:"riskError,omitempty"`
}

// reply writes the response envelope. A nil body is left empty and err sets the status code.
func (p *Portal) reply(rw http.ResponseWriter, r *http.Request, status int, body interface{}, err error) {
	var res Response

	if err != nil {
		res.Error = err.Error()
		status = errStatus(err)
	}

	switch b := body.(type) {
	case nil:
	case string:
		res.Body = b
	default:
		tmp, _ := json.Marshal(b)
		res.Body = string(tmp)
	}
	// log request
	p.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "uri": r.RequestURI, "status": status}).WithError(err).
		Info("httpreq")
	// reply
	rw.Header().Set("Content-Type", "application/json;charset=utf8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(&res)
}

// errStatus maps err to the http status replied to the client.
func errStatus(err error) int {
	var (
		ne *api.NetworkError
		ae *api.ApplicationError
	)

	switch {
	case errors.Is(err, session.ErrNoToken), errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrNoSubject):
		return http.StatusUnauthorized
	case errors.Is(err, api.ErrValidation), errors.Is(err, prefs.ErrUnknownKey), errors.Is(err, ErrBadAddress),
		errors.Is(err, ErrBadRequest), errors.Is(err, ErrNoAddr), errors.Is(err, ErrNoNet):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrDataNotFound), errors.Is(err, store.ErrAddrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ae):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ne):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decode reads an optional JSON body into v. An empty body is not an error.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return ErrBadRequest
	}

	return nil
}

// panel returns the panel of the authenticated user.
func (p *Portal) panel(r *http.Request) *panel.Panel {
	s, _ := session.FromContext(r.Context())

	return p.panels.Get(s)
}

// homeHandler just replies a welcome message to the client.
func (p *Portal) homeHandler(rw http.ResponseWriter, r *http.Request) {
	p.reply(rw, r, http.StatusOK, Welcome, nil)
}

// getPrefsHandler replies the stored preferences, wallet address and alerts of the user.
func (p *Portal) getPrefsHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	pn := p.panel(r)
	if err = pn.Load(r.Context()); err != nil {
		return
	}

	body = pn.State()
}

// togglePrefHandler flips one notification preference and persists the record.
func (p *Portal) togglePrefHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	var k prefs.Key
	if k, err = prefs.ParseKey(mux.Vars(r)["key"]); err != nil {
		return
	}

	var np prefs.Preferences
	if np, err = p.panel(r).Toggle(r.Context(), k); err == nil {
		body = np
	}
}

// panelHandler sets the wallet address and notification email (PUT) or resets the panel (DELETE).
func (p *Portal) panelHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	if r.Method == http.MethodDelete {
		s, _ := session.FromContext(r.Context())
		p.panels.Reset(s)
		body = "panel reset"

		return
	}

	var pe panelEdit
	if err = decode(r, &pe); err != nil {
		return
	}

	pn := p.panel(r)
	_ = pn.Load(r.Context()) // defaults on error, retried on next use

	if pe.WalletAddress != nil {
		pn.SetWalletAddress(*pe.WalletAddress)
	}

	if pe.NotificationEmail != nil {
		pn.SetNotificationEmail(*pe.NotificationEmail)
	}

	body = pn.State()
}

// monitorHandler checks the panel's wallet address for dusting. The body may set the address and email first. The
// reply always carries the resulting alert; the error is set when the check was rejected or failed.
func (p *Portal) monitorHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	var pe panelEdit
	if err = decode(r, &pe); err != nil {
		return
	}

	pn := p.panel(r)
	_ = pn.Load(r.Context())

	if pe.WalletAddress != nil {
		pn.SetWalletAddress(*pe.WalletAddress)
	}

	if pe.NotificationEmail != nil {
		pn.SetNotificationEmail(*pe.NotificationEmail)
	}

	rep := pn.Monitor(r.Context())
	mr := monitorReply{Alert: rep.Alert, Dusting: rep.Dusting, Data: rep.Data, Alerts: pn.Alerts()}

	if rep.DispatchErr != nil {
		mr.DispatchError = rep.DispatchErr.Error()
	}

	if rep.InsightErr != nil {
		mr.InsightError = rep.InsightErr.Error()
	}

	body, err = mr, rep.Err
}

// alertsHandler replies the alerts of the panel in insertion order.
func (p *Portal) alertsHandler(rw http.ResponseWriter, r *http.Request) {
	p.reply(rw, r, http.StatusOK, p.panel(r).Alerts(), nil)
}

// insightsHandler replies the insight log of an address.
func (p *Portal) insightsHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	address, ok := mux.Vars(r)["address"]
	if !ok || address == "" {
		err = ErrNoAddr

		return
	}

	var ins []store.Insight
	if ins, err = p.db.GetInsights(r.Context(), address); err == nil {
		body = ins
	}
}

// monitoredHandler replies the addresses monitored by the user for the specified network. If no network is queried,
// addresses from all the networks are returned.
func (p *Portal) monitoredHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	if err = r.ParseForm(); err != nil {
		return
	}

	net, ok := r.Form["net"]
	if ok && len(net) != 1 { // we only allow 1 net per request
		err = ErrNoNet

		return
	}

	var all []store.ListenedAddresses
	if all, err = p.db.GetAddresses(r.Context(), net); err != nil {
		return
	}

	s, _ := session.FromContext(r.Context())
	mine := make([]store.ListenedAddresses, 0, len(all))

	for _, la := range all {
		own := store.ListenedAddresses{Net: la.Net, Addr: []store.Address{}}

		for _, a := range la.Addr {
			if a.Name == s.UserID {
				own.Addr = append(own.Addr, a)
			}
		}

		mine = append(mine, own)
	}

	body = mine
}

// unmonitorHandler removes the caller's own entry for the address in the uri. Entries of other users monitoring the
// same address are kept. The network defaults to the one addresses are registered under.
func (p *Portal) unmonitorHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	address, ok := mux.Vars(r)["address"]
	if !ok || address == "" {
		err = ErrNoAddr

		return
	}

	if err = r.ParseForm(); err != nil {
		return
	}

	net := p.net

	if n, ok := r.Form["net"]; ok {
		if len(n) != 1 {
			err = ErrNoNet

			return
		}

		net = n[0]
	}

	s, _ := session.FromContext(r.Context())
	if err = p.db.RemoveAddress(r.Context(), store.Address{Name: s.UserID, Addr: address}, net); err == nil {
		body = fmt.Sprintf("address %s removed from %s", address, net)
	}
}

// agentsHandler creates an agent on the agents backend.
func (p *Portal) agentsHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	var req api.AgentRequest
	if err = decode(r, &req); err != nil {
		return
	}

	var ar agentReply
	ar.Message, ar.Agent, err = p.agents.Create(r.Context(), req)
	body = ar
}

// filesHandler replies the local datasets available for visualisation.
func (p *Portal) filesHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	var files []string
	if files, err = p.vis.ListFiles(r.Context()); err == nil {
		body = map[string][]string{"files": files}
	}
}

// visualizeHandler renders a dataset and replies its visualisation url.
func (p *Portal) visualizeHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	var in visualizeInput
	if err = decode(r, &in); err != nil {
		return
	}

	var vr visualizeReply
	if vr.URL, err = p.vis.Visualize(r.Context(), api.NewVisualizeRequest(in.SourceType, in.Address, in.Filename,
		in.MaxNodes)); err != nil {
		if msg := api.RemoteMessage(err); msg != "" {
			vr.Message = msg
		} else if !errors.Is(err, api.ErrValidation) {
			vr.Message = api.MsgVisualizeFailed
		}
	}

	body = vr
}

// roadmapHandler replies the financial roadmap of an address together with its native balance on every network.
func (p *Portal) roadmapHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	address := mux.Vars(r)["address"]
	if !util.IsAddress(address) {
		err = ErrBadAddress

		return
	}

	rm := p.planner.Roadmap(r.Context(), address)
	rr := roadmapReply{Metrics: rm.Metrics, Risk: rm.Risk, Balances: p.balances(address)}

	if rm.MetricsErr != nil {
		rr.MetricsError = rm.MetricsErr.Error()
	}

	if rm.RiskErr != nil {
		rr.RiskError = rm.RiskErr.Error()
	} else {
		rr.RiskLevel = riskLevel(rm.Risk)
	}

	body = rr
}

// simulatorHandler replies the investment simulation of an address.
func (p *Portal) simulatorHandler(rw http.ResponseWriter, r *http.Request) {
	var err error

	var body interface{}

	defer func() { p.reply(rw, r, http.StatusOK, body, err) }()

	address := mux.Vars(r)["address"]
	if !util.IsAddress(address) {
		err = ErrBadAddress

		return
	}

	sim := p.planner.Simulate(r.Context(), address)
	sr := simulatorReply{Optimization: sim.Optimization, Risk: sim.Risk}

	if sim.OptimizationErr != nil {
		sr.OptimizationError = sim.OptimizationErr.Error()
	}

	if sim.RiskErr != nil {
		sr.RiskError = sim.RiskErr.Error()
	} else {
		sr.RiskLevel = riskLevel(sim.Risk)
	}

	body = sr
}

// balances returns the native balance of address on every connected network. Networks failing to reply are skipped.
func (p *Portal) balances(address string) map[string]string {
	bals := make(map[string]string, len(p.bc))

	for name, client := range p.bc {
		bal, err := client.Balance(address)
		if err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{"net": name, "address": address}).Warn("Error getting balance")

			continue
		}

		bals[name] = bal.String()
	}

	return bals
}

func riskLevel(ra api.RiskAnalysis) string {
	s, _ := ra["risk_level"].(string)

	return api.MapRiskLevel(s)
}
