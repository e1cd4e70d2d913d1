package capture

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract binds an ABI to a deployed address.
type Contract struct {
	Name    string
	Address common.Address
	ABI     *abi.ABI
}

func NewContract(name string, address common.Address, parsed *abi.ABI) *Contract {
	return &Contract{Name: name, Address: address, ABI: parsed}
}

func (c *Contract) String() string {
	if c.Name == "" {
		return c.Address.Hex()
	}
	return fmt.Sprintf("%s(%s)", c.Name, c.Address.Hex())
}

func (c *Contract) method(name string) (abi.Method, error) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		return abi.Method{}, fmt.Errorf("method %s not found on %s", name, c)
	}
	return m, nil
}
