// Package ethereum implements the chain interface for ethereum networks.
package ethereum

import (
	"errors"
	"math/big"

	"github.com/tarancss/ethcli"
)

// ErrNoNode is returned when the node client cannot be created.
var ErrNoNode = errors.New("cannot connect to ethereum node")

// Ethereum implements a connection to an ethereum-type chain.
type Ethereum struct {
	c *ethcli.EthCli
}

// Init returns a connection to an ethereum node, using secret if necessary for authentication.
func Init(node, secret string) (*Ethereum, error) {
	c := ethcli.Init(node, secret)
	if c == nil {
		return nil, ErrNoNode
	}

	return &Ethereum{c: c}, nil
}

// Close ends a connection
func (e *Ethereum) Close() {
	e.c.End()
}

// Balance returns the ether balance of address in wei.
func (e *Ethereum) Balance(address string) (*big.Int, error) {
	bal, tok := new(big.Int), new(big.Int)
	if err := e.c.GetBalance(address, "", bal, tok); err != nil {
		return nil, err
	}

	return bal, nil
}
