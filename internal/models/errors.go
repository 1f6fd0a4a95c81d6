package models

import (
	"errors"
	"fmt"
)

// Errores del ledger. Cada operación rechazada devuelve un error
// distinguible para que el handler pueda responder un mensaje accionable,
// nunca un fallo genérico.
var (
	ErrInvalidInput = errors.New("entrada inválida")

	ErrInvalidName     = fmt.Errorf("%w: el nombre es requerido", ErrInvalidInput)
	ErrInvalidCurrency = fmt.Errorf("%w: moneda no soportada", ErrInvalidInput)
	ErrInvalidGoal     = fmt.Errorf("%w: la meta debe ser mayor a 0", ErrInvalidInput)
	ErrInvalidAmount   = fmt.Errorf("%w: el monto debe ser mayor a 0", ErrInvalidInput)

	ErrSliceNotFound     = errors.New("slice no encontrada")
	ErrInsufficientFunds = errors.New("el monto excede el balance disponible")

	ErrExternalTransferFailed  = errors.New("la transferencia externa falló")
	ErrExternalTransferTimeout = fmt.Errorf("%w: tiempo de espera agotado", ErrExternalTransferFailed)
	ErrWalletNotAuthenticated  = errors.New("wallet no autenticada")

	ErrPersistence     = errors.New("error de persistencia")
	ErrVersionConflict = fmt.Errorf("%w: conflicto de versión, otra escritura modificó la colección", ErrPersistence)
)
