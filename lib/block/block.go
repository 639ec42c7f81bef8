// Package block defines the interface required for blockchain or network connections. The portal only reads native
// balances to enrich the roadmap and simulator views.
package block

import (
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/idefi-ai/agents/lib/block/ethereum"
	"github.com/idefi-ai/agents/lib/config"
)

// Chain is an interface that contains the required methods.
type Chain interface {
	Close()
	Balance(account string) (*big.Int, error)
}

// Init loads all the clients read from the config to blockchains into a map. Networks that cannot be reached are
// logged and skipped.
func Init(bc []config.BlockConfig, log *logrus.Logger) map[string]Chain {
	m := make(map[string]Chain)

	for _, b := range bc {
		c, err := ethereum.Init(b.Node, b.Secret)
		if err != nil {
			log.WithError(err).WithField("net", b.Name).Warn("Blockchain client not loaded. Ignoring...")

			continue
		}

		m[b.Name] = c
	}

	return m
}

// End closes gracefully all the blockchain clients opened.
func End(bc map[string]Chain) {
	for _, c := range bc {
		c.Close()
	}
}
