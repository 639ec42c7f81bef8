// Package monitor checks a wallet address for dusting patterns through the agents backend. When dusting is found the
// owner is notified by email, and every successful check is written to the insight log.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idefi-ai/agents/lib/api"
	"github.com/idefi-ai/agents/lib/notify"
	"github.com/idefi-ai/agents/lib/store"
)

// Path of the inspection endpoint on the agents backend.
const Path = "/agents_security_check"

// Alerts produced by a monitor call.
const (
	AlertNoAddress = "Please enter a wallet address."
	AlertNoEmail   = "Please enter an email address for notifications."
	AlertFailed    = "Failed to monitor the address. Please try again."
	AlertDusting   = "Dusting patterns detected on your wallet."
	AlertSafe      = "No dusting patterns found. Your wallet is safe."
)

// Notification sent when dusting is detected, and the text of the insight written after every successful check.
const (
	DustingSubject = "Dusting detected on your wallet"
	DustingBody    = "We found dusting patterns in your monitored wallet."
	InsightText    = "Monitoring insights were generated."
)

// Recorder appends insight records.
type Recorder interface {
	AddInsight(ctx context.Context, i store.Insight) error
}

// Request holds the inputs of a monitor call.
type Request struct {
	WalletAddress     string `json:"walletAddress"`
	NotificationEmail string `json:"notificationEmail"`
}

// Result is the inspection reply. Only DustingPatterns is interpreted; Raw keeps the whole document.
type Result struct {
	DustingPatterns []json.RawMessage `json:"dusting_patterns"`
	Raw             json.RawMessage   `json:"-"`
}

// Report is the outcome of a monitor call. Err is set when the check itself was rejected or failed, in which case
// Alert is a validation or failure message. DispatchErr and InsightErr report the side effects of a successful check
// and never change Alert.
type Report struct {
	Alert       string          `json:"alert"`
	Data        json.RawMessage `json:"data,omitempty"`
	Dusting     bool            `json:"dusting"`
	Err         error           `json:"-"`
	DispatchErr error           `json:"-"`
	InsightErr  error           `json:"-"`
}

// Client runs monitor calls.
type Client struct {
	agent string
	c     *api.Client
	d     notify.Dispatcher
	rec   Recorder
	log   *logrus.Logger
	now   func() time.Time
}

// New returns a monitor client. agent is the agent name sent with each inspection call.
func New(agent string, c *api.Client, d notify.Dispatcher, rec Recorder, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{agent: agent, c: c, d: d, rec: rec, log: log, now: time.Now}
}

// Monitor validates the request, runs the inspection and performs the notification and insight side effects. It
// never panics on remote failures: everything is reported in the returned Report.
func (m *Client) Monitor(ctx context.Context, r Request) Report {
	switch {
	case r.WalletAddress == "":
		monitorCalls.WithLabelValues(outcomeRejected).Inc()

		return Report{Alert: AlertNoAddress, Err: api.Validation("wallet address is required")}
	case r.NotificationEmail == "":
		monitorCalls.WithLabelValues(outcomeRejected).Inc()

		return Report{Alert: AlertNoEmail, Err: api.Validation("notification email is required")}
	}

	log := m.log.WithField("address", r.WalletAddress)

	res, err := m.inspect(ctx, r.WalletAddress)
	if err != nil {
		monitorCalls.WithLabelValues(outcomeFailed).Inc()
		log.WithError(err).Error("Error monitoring address")

		return Report{Alert: AlertFailed, Err: err}
	}

	rep := Report{Alert: AlertSafe, Data: res.Raw}

	if len(res.DustingPatterns) > 0 {
		monitorCalls.WithLabelValues(outcomeDusting).Inc()

		rep.Alert, rep.Dusting = AlertDusting, true

		if rep.DispatchErr = m.d.Send(ctx, DustingSubject, DustingBody, r.NotificationEmail); rep.DispatchErr != nil {
			dispatches.WithLabelValues(resultError).Inc()
			log.WithError(rep.DispatchErr).Warn("Error dispatching dusting notification")
		} else {
			dispatches.WithLabelValues(resultOK).Inc()
		}
	} else {
		monitorCalls.WithLabelValues(outcomeSafe).Inc()
	}

	ins := store.Insight{UserAddress: r.WalletAddress, Insights: InsightText, Timestamp: m.now().UnixMilli()}
	if rep.InsightErr = m.rec.AddInsight(ctx, ins); rep.InsightErr != nil {
		log.WithError(rep.InsightErr).Warn("Error recording insight")
	}

	log.WithField("dusting", rep.Dusting).Info("Address monitored")

	return rep
}

func (m *Client) inspect(ctx context.Context, address string) (*Result, error) {
	req := struct {
		Name    string `json:"agent_name"`
		Address string `json:"address"`
	}{m.agent, address}

	var raw json.RawMessage
	if err := m.c.Post(ctx, Path, req, &raw); err != nil {
		return nil, err
	}

	res := &Result{Raw: raw}
	if len(raw) == 0 {
		return res, nil
	}

	if err := json.Unmarshal(raw, res); err != nil {
		// dusting_patterns of an unexpected shape is not a dusting signal
		var ute *json.UnmarshalTypeError
		if !errors.As(err, &ute) {
			return nil, &api.NetworkError{Op: Path, Err: err}
		}

		res.DustingPatterns = nil
	}

	return res, nil
}
