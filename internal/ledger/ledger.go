// Package ledger implementa el componente central de la app: la colección
// autoritativa de slices, sus reglas de mutación y la proyección derivada
// para el dashboard. Los screens de la app nunca tocan los datos
// directamente, siempre pasan por acá.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slicesapp/Slices_Api/internal/models"
	"github.com/slicesapp/Slices_Api/internal/storage"
	"github.com/slicesapp/Slices_Api/internal/wallet"
)

const defaultWalletTimeout = 10 * time.Second

// Ledger mantiene la colección de slices en memoria y la reescribe
// completa en el store en cada mutación. Toda validación ocurre antes de
// cualquier llamada externa, y toda llamada externa ocurre antes de
// cualquier mutación local: si la wallet falla, el ledger queda intacto.
type Ledger struct {
	mu            sync.Mutex
	store         storage.Store
	wallet        wallet.Provider
	col           *storage.Collection
	walletAddress string
	walletTimeout time.Duration
	subs          map[chan struct{}]bool
}

// New carga la colección desde el store (una sola vez, al iniciar) y deja
// el ledger listo para operar. Si walletTimeout es 0 se usa el default.
func New(store storage.Store, provider wallet.Provider, walletTimeout time.Duration) (*Ledger, error) {
	col, err := store.Load()
	if err != nil {
		return nil, err
	}
	if walletTimeout <= 0 {
		walletTimeout = defaultWalletTimeout
	}
	return &Ledger{
		store:         store,
		wallet:        provider,
		col:           col,
		walletTimeout: walletTimeout,
		subs:          make(map[chan struct{}]bool),
	}, nil
}

// ConnectWallet autentica contra el proveedor externo y guarda la
// dirección de la wallet para la sesión. Sin esto, las operaciones que
// mueven fondos cripto quedan bloqueadas.
func (l *Ledger) ConnectWallet(ctx context.Context) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, l.walletTimeout)
	defer cancel()

	res, err := l.wallet.Authenticate(cctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrWalletNotAuthenticated, err)
	}
	if !res.Success {
		return "", models.ErrWalletNotAuthenticated
	}

	l.mu.Lock()
	l.walletAddress = res.WalletAddress
	l.mu.Unlock()

	return res.WalletAddress, nil
}

// WalletAddress devuelve la dirección autenticada, o vacío si no hay sesión
func (l *Ledger) WalletAddress() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.walletAddress
}

// externalDeposit llama al proveedor antes de acreditar fondos cripto.
// Se llama con el mutex tomado.
func (l *Ledger) externalDeposit(ctx context.Context, amount decimal.Decimal, currency string) error {
	if l.walletAddress == "" {
		return models.ErrWalletNotAuthenticated
	}

	cctx, cancel := context.WithTimeout(ctx, l.walletTimeout)
	defer cancel()

	res, err := l.wallet.Deposit(cctx, amount.String(), wallet.NormalizeToken(currency))
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrExternalTransferTimeout
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrExternalTransferFailed, err)
	}
	if !res.Success {
		return models.ErrExternalTransferFailed
	}
	return nil
}

// externalWithdraw llama al proveedor antes de debitar fondos cripto y
// devuelve la referencia de la transferencia. Se llama con el mutex tomado.
func (l *Ledger) externalWithdraw(ctx context.Context, amount decimal.Decimal, currency string) (string, error) {
	if l.walletAddress == "" {
		return "", models.ErrWalletNotAuthenticated
	}

	cctx, cancel := context.WithTimeout(ctx, l.walletTimeout)
	defer cancel()

	res, err := l.wallet.Withdraw(cctx, amount.String(), wallet.NormalizeToken(currency))
	if errors.Is(err, context.DeadlineExceeded) {
		return "", models.ErrExternalTransferTimeout
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrExternalTransferFailed, err)
	}
	if !res.Success {
		return "", models.ErrExternalTransferFailed
	}
	return res.Reference, nil
}

// Create valida los datos, mueve fondos externos si hace falta y recién
// entonces agrega la slice a la colección. El monto inicial, si existe,
// queda registrado como una transacción de depósito sintética para que el
// balance siempre sea la suma del historial.
func (l *Ledger) Create(ctx context.Context, name, currency string, goal, initialAmount decimal.Decimal) (models.Slice, error) {
	name = models.NormalizeName(name)
	if name == "" {
		return models.Slice{}, models.ErrInvalidName
	}
	if !models.IsValidCurrency(currency) {
		return models.Slice{}, models.ErrInvalidCurrency
	}
	if !goal.IsPositive() {
		return models.Slice{}, models.ErrInvalidGoal
	}
	if initialAmount.IsNegative() {
		return models.Slice{}, models.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// El movimiento externo va primero: si falla, no se persiste nada
	if initialAmount.IsPositive() && models.IsCryptoCurrency(currency) {
		if err := l.externalDeposit(ctx, initialAmount, currency); err != nil {
			return models.Slice{}, err
		}
	}

	now := time.Now()
	slice := models.Slice{
		ID:            models.GenerateID(),
		Name:          name,
		Currency:      currency,
		Goal:          goal,
		CurrentAmount: initialAmount,
		CreatedAt:     now,
		Transactions:  []models.Transaction{},
	}
	if initialAmount.IsPositive() {
		slice.Transactions = append(slice.Transactions, models.Transaction{
			ID:        models.GenerateID(),
			Kind:      models.TransactionDeposit,
			Amount:    initialAmount,
			Timestamp: now,
		})
	}

	l.col.Slices = append(l.col.Slices, slice)
	return slice.Clone(), l.persistAndNotify()
}

// Deposit acredita fondos en una slice existente
func (l *Ledger) Deposit(ctx context.Context, sliceID string, amount decimal.Decimal) (models.Slice, error) {
	if !amount.IsPositive() {
		return models.Slice{}, models.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.find(sliceID)
	if idx < 0 {
		return models.Slice{}, models.ErrSliceNotFound
	}
	slice := &l.col.Slices[idx]

	if models.IsCryptoCurrency(slice.Currency) {
		if err := l.externalDeposit(ctx, amount, slice.Currency); err != nil {
			return models.Slice{}, err
		}
	}

	slice.CurrentAmount = slice.CurrentAmount.Add(amount)
	slice.Transactions = append(slice.Transactions, models.Transaction{
		ID:        models.GenerateID(),
		Kind:      models.TransactionDeposit,
		Amount:    amount,
		Timestamp: time.Now(),
	})

	return slice.Clone(), l.persistAndNotify()
}

// Withdraw debita fondos de una slice. La verificación de fondos es local
// y va antes de la llamada externa, que es la parte cara.
func (l *Ledger) Withdraw(ctx context.Context, sliceID string, amount decimal.Decimal) (models.Slice, error) {
	if !amount.IsPositive() {
		return models.Slice{}, models.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.find(sliceID)
	if idx < 0 {
		return models.Slice{}, models.ErrSliceNotFound
	}
	slice := &l.col.Slices[idx]

	if amount.GreaterThan(slice.CurrentAmount) {
		return models.Slice{}, models.ErrInsufficientFunds
	}

	var reference string
	if models.IsCryptoCurrency(slice.Currency) {
		ref, err := l.externalWithdraw(ctx, amount, slice.Currency)
		if err != nil {
			return models.Slice{}, err
		}
		reference = ref
	}

	slice.CurrentAmount = slice.CurrentAmount.Sub(amount)
	slice.Transactions = append(slice.Transactions, models.Transaction{
		ID:        models.GenerateID(),
		Kind:      models.TransactionWithdrawal,
		Amount:    amount,
		Reference: reference,
		Timestamp: time.Now(),
	})

	return slice.Clone(), l.persistAndNotify()
}

// Edit actualiza nombre y/o meta. El balance y el historial no se tocan.
func (l *Ledger) Edit(sliceID string, newName *string, newGoal *decimal.Decimal) (models.Slice, error) {
	var name string
	if newName != nil {
		name = models.NormalizeName(*newName)
		if name == "" {
			return models.Slice{}, models.ErrInvalidName
		}
	}
	if newGoal != nil && !newGoal.IsPositive() {
		return models.Slice{}, models.ErrInvalidGoal
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.find(sliceID)
	if idx < 0 {
		return models.Slice{}, models.ErrSliceNotFound
	}
	slice := &l.col.Slices[idx]

	if newName != nil {
		slice.Name = name
	}
	if newGoal != nil {
		slice.Goal = *newGoal
	}

	return slice.Clone(), l.persistAndNotify()
}

// Delete elimina la slice y su historial
func (l *Ledger) Delete(sliceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.find(sliceID)
	if idx < 0 {
		return models.ErrSliceNotFound
	}

	l.col.Slices = append(l.col.Slices[:idx], l.col.Slices[idx+1:]...)
	return l.persistAndNotify()
}

// Get devuelve una copia de la slice pedida
func (l *Ledger) Get(sliceID string) (models.Slice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.find(sliceID)
	if idx < 0 {
		return models.Slice{}, models.ErrSliceNotFound
	}
	return l.col.Slices[idx].Clone(), nil
}

// ListAll devuelve un snapshot de todas las slices en orden de creación
func (l *Ledger) ListAll() []models.Slice {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Slice, len(l.col.Slices))
	for i, s := range l.col.Slices {
		out[i] = s.Clone()
	}
	return out
}

// Summary calcula los totales agregados que muestra el header del dashboard
func (l *Ledger) Summary(prices PriceTable) models.DashboardSummary {
	slices := l.ListAll()

	summary := models.DashboardSummary{
		TotalSlices:   len(slices),
		TotalSavedUSD: decimal.Zero,
	}
	for _, s := range slices {
		display := ComputeDisplay(s, prices)
		if display.PercentCompleted >= 100 {
			summary.Completed++
		} else {
			summary.InProgress++
		}
		if display.USDEquivalent != nil {
			summary.TotalSavedUSD = summary.TotalSavedUSD.Add(*display.USDEquivalent)
		}
	}
	return summary
}

// Subscribe registra un observador que recibe una señal después de cada
// mutación exitosa. El observador relee via ListAll, la señal no lleva payload.
func (l *Ledger) Subscribe() chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan struct{}, 1)
	l.subs[ch] = true
	return ch
}

// Unsubscribe da de baja un observador registrado con Subscribe
func (l *Ledger) Unsubscribe(ch chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subs, ch)
}

// find devuelve el índice de la slice o -1. Se llama con el mutex tomado.
func (l *Ledger) find(sliceID string) int {
	for i := range l.col.Slices {
		if l.col.Slices[i].ID == sliceID {
			return i
		}
	}
	return -1
}

// persistAndNotify reescribe la colección completa y avisa a los
// observadores. La versión en memoria solo avanza si la escritura
// funcionó. Ante un conflicto de versión perdimos contra otra escritura:
// la mutación local se descarta y se recarga el estado persistido, así
// la próxima operación parte de la versión ganadora en lugar de pisarla.
// Ante un fallo simple de persistencia la mutación queda en memoria (no
// hay un segundo store contra el cual reconciliar) y el error avisa al
// caller que el cambio puede no sobrevivir un reinicio.
func (l *Ledger) persistAndNotify() error {
	l.col.Version++
	err := l.store.Save(l.col)
	if err != nil {
		l.col.Version--
		if errors.Is(err, models.ErrVersionConflict) {
			if fresh, loadErr := l.store.Load(); loadErr == nil {
				l.col = fresh
			}
			return err
		}
	}

	for ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	return err
}
