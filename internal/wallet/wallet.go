// Package wallet define el contrato con el proveedor externo de fondos y
// la implementación simulada que usamos en desarrollo y tests. Los tres
// prototipos tenían cada uno su propio mock; acá se unifican en uno solo
// configurable.
package wallet

import (
	"context"
	"time"
)

// Tokens que el proveedor acepta. Un código fuera de esta lista se
// normaliza a DefaultToken antes de llamar al proveedor.
var allowedTokens = map[string]bool{
	"ETH":  true,
	"BTC":  true,
	"USDC": true,
	"USDT": true,
	"DAI":  true,
	"POL":  true,
}

const DefaultToken = "USDC"

// NormalizeToken devuelve el código tal cual si el proveedor lo acepta,
// o DefaultToken si no. Regla heredada del SDK original.
func NormalizeToken(code string) string {
	if allowedTokens[code] {
		return code
	}
	return DefaultToken
}

// Result es la respuesta del proveedor a cualquiera de sus operaciones
type Result struct {
	Success       bool   `json:"success"`
	WalletAddress string `json:"wallet_address,omitempty"`
	Reference     string `json:"reference,omitempty"` // hash de la transferencia, si aplica
}

// Provider es el contrato con la wallet externa. Los montos viajan como
// string decimal, igual que en el SDK original.
type Provider interface {
	Authenticate(ctx context.Context) (Result, error)
	Deposit(ctx context.Context, amount string, token string) (Result, error)
	Withdraw(ctx context.Context, amount string, token string) (Result, error)
}

// Modos del proveedor simulado
const (
	ModeSuccess = "success"
	ModeFailure = "failure"
)

// MockProvider simula la wallet externa. Mode controla si las operaciones
// reportan éxito o fallo; Latency inyecta una demora artificial para
// probar los timeouts del ledger.
type MockProvider struct {
	Mode    string
	Latency time.Duration
	Address string
}

// NewMockProvider crea un proveedor simulado que siempre tiene éxito
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Mode:    ModeSuccess,
		Address: "mock-wallet-address",
	}
}

func (p *MockProvider) wait(ctx context.Context) error {
	if p.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(p.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MockProvider) Authenticate(ctx context.Context) (Result, error) {
	if err := p.wait(ctx); err != nil {
		return Result{}, err
	}
	if p.Mode == ModeFailure {
		return Result{Success: false}, nil
	}
	return Result{Success: true, WalletAddress: p.Address}, nil
}

func (p *MockProvider) Deposit(ctx context.Context, amount string, token string) (Result, error) {
	if err := p.wait(ctx); err != nil {
		return Result{}, err
	}
	if p.Mode == ModeFailure {
		return Result{Success: false}, nil
	}
	return Result{Success: true}, nil
}

func (p *MockProvider) Withdraw(ctx context.Context, amount string, token string) (Result, error) {
	if err := p.wait(ctx); err != nil {
		return Result{}, err
	}
	if p.Mode == ModeFailure {
		return Result{Success: false}, nil
	}
	return Result{Success: true, Reference: "mock-withdraw-txhash"}, nil
}
