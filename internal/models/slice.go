package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de transacción dentro de una slice
const (
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"
)

// Monedas soportadas para crear una slice
var Currencies = []string{"ARS", "USD", "ETH", "BTC", "USDC", "USDT", "DAI", "POL"}

// Subconjunto cripto de las monedas soportadas. ARS y USD son fiat y
// nunca pasan por el proveedor de wallet.
var cryptoCurrencies = map[string]bool{
	"ETH":  true,
	"BTC":  true,
	"USDC": true,
	"USDT": true,
	"DAI":  true,
	"POL":  true,
}

// IsValidCurrency verifica que el código de moneda esté en el conjunto soportado
func IsValidCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// IsCryptoCurrency indica si la moneda pertenece al subconjunto cripto
func IsCryptoCurrency(code string) bool {
	return cryptoCurrencies[code]
}

// IsFiatCurrency indica si la moneda es fiat (sin movimiento externo de fondos)
func IsFiatCurrency(code string) bool {
	return IsValidCurrency(code) && !cryptoCurrencies[code]
}

// Transaction representa un movimiento dentro de una slice.
// El historial es append-only: una transacción nunca se edita ni se borra.
type Transaction struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"` // deposit | withdrawal
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"` // hash de la transferencia externa, si hubo
	Timestamp time.Time       `json:"timestamp"`
}

// Slice representa una reserva de ahorro con un objetivo específico
type Slice struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Currency      string          `json:"currency"`
	Goal          decimal.Decimal `json:"goal"`           // la "meta" a alcanzar, siempre > 0
	CurrentAmount decimal.Decimal `json:"current_amount"` // balance acumulado, nunca negativo
	CreatedAt     time.Time       `json:"created_at"`
	Transactions  []Transaction   `json:"transactions"`
}

// Clone devuelve una copia profunda de la slice, con su historial incluido
func (s Slice) Clone() Slice {
	out := s
	out.Transactions = make([]Transaction, len(s.Transactions))
	copy(out.Transactions, s.Transactions)
	return out
}

// DisplaySlice es la proyección de una slice para el dashboard, con los
// campos calculados. No se almacena nunca.
type DisplaySlice struct {
	Slice
	IsCrypto         bool             `json:"is_crypto"`
	USDEquivalent    *decimal.Decimal `json:"usd_equivalent,omitempty"` // solo cripto o USD
	PercentCompleted float64          `json:"percent_completed"`        // 0-100, nunca excede 100
	RemainingAmount  decimal.Decimal  `json:"remaining_amount"`         // nunca negativo
}

// DashboardSummary contiene los totales agregados de todas las slices
type DashboardSummary struct {
	TotalSlices   int             `json:"total_slices"`
	Completed     int             `json:"completed"`
	InProgress    int             `json:"in_progress"`
	TotalSavedUSD decimal.Decimal `json:"total_saved_usd"`
}

// GenerateID genera un identificador único para slices y transacciones
func GenerateID() string {
	return uuid.NewString()
}

// NormalizeName limpia el nombre recibido desde la request
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
