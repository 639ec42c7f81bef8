// Package agents and its sub-packages implement the backend services of the iDefi agents portal.
/*
agents provides you with two microservices:

1) a portal microservice (package portal) that implements the RESTful API used by the web front end: notification
 preferences and wallet monitoring, agent creation, dataset visualisation, the financial roadmap and the investment
 simulator.

2) a mailer microservice (package mailer) that delivers the notification mails produced by the portal.

Architecture

Every request to the portal acts on behalf of a signed-in user identified by a bearer token (package lib/session).
Each user has a notification panel (package panel) holding the preferences being edited, the wallet address and email
to monitor and the alerts produced so far. Toggling a preference persists the whole record immediately.

Monitoring a wallet (package monitor) is a single call to the security check endpoint of the agents backend. When
dusting patterns are reported the owner is notified by email, and every successful check is appended to the insight
log. The notification is handed to a dispatcher (package lib/notify): the message broker (package lib/msg) for the
mailer service to deliver, the mail outbox of the database, or SMTP directly.

The remote services (agents backend, metrics and quantum APIs) are reached through package lib/api. Persistence is a
database product agnostic layer (package lib/store) with MongoDB, PostgreSQL and in-memory implementations. A
blockchain layer (package lib/block) provides the native balances shown in the roadmap.

The microservices can also be monitored via a Prometheus API by setting the flag "-m" at startup.

Portal

The portal microservice can be started running cmd/portal/main.go. Requests under /api/ are proxied to the agents
backend of the configured environment.

Mailer

The mailer microservice can be started running cmd/mailer/main.go. It consumes mails from the message broker and
sends them over SMTP, acknowledging each one once delivery was attempted.

*/
package agents
