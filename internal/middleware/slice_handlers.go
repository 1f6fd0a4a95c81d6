package middleware

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/slicesapp/Slices_Api/internal/ledger"
	"github.com/slicesapp/Slices_Api/internal/models"
	"github.com/slicesapp/Slices_Api/internal/services"
)

var (
	ledgerInstance *ledger.Ledger
	priceService   *services.PriceService
)

// InitLedger deja disponibles el ledger y el servicio de precios para los handlers
func InitLedger(l *ledger.Ledger, ps *services.PriceService) {
	ledgerInstance = l
	priceService = ps
}

// respondLedgerError traduce los errores del ledger a códigos HTTP. Cada
// tipo de rechazo llega distinguible al cliente para que la UI pueda
// mostrar un mensaje accionable.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrSliceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrWalletNotAuthenticated):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrExternalTransferFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// respondMutated responde una mutación que ya se aplicó en memoria. Si la
// persistencia falló, el cambio queda pero puede no sobrevivir un
// reinicio, y eso se le comunica al cliente explícitamente.
func respondMutated(c *gin.Context, status int, message string, slice models.Slice, err error) {
	if err != nil {
		if errors.Is(err, models.ErrPersistence) && !errors.Is(err, models.ErrVersionConflict) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   err.Error(),
				"warning": "El cambio se aplicó pero puede no sobrevivir un reinicio",
				"slice":   slice,
			})
			return
		}
		respondLedgerError(c, err)
		return
	}
	c.JSON(status, gin.H{"message": message, "slice": slice})
}

// ConnectWallet autentica contra el proveedor de wallet y guarda la sesión
func ConnectWallet(c *gin.Context) {
	address, err := ledgerInstance.ConnectWallet(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Wallet conectada exitosamente",
		"wallet_address": address,
	})
}

// CreateSlice crea una nueva reserva de ahorro
func CreateSlice(c *gin.Context) {
	var req struct {
		Name          string          `json:"name" binding:"required"`
		Currency      string          `json:"currency" binding:"required"`
		Goal          decimal.Decimal `json:"goal"`
		InitialAmount decimal.Decimal `json:"initial_amount"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slice, err := ledgerInstance.Create(c.Request.Context(), req.Name, req.Currency, req.Goal, req.InitialAmount)
	respondMutated(c, http.StatusCreated, "Slice creada exitosamente", slice, err)
}

// GetSlices devuelve todas las slices proyectadas para el dashboard
func GetSlices(c *gin.Context) {
	prices := priceService.Snapshot()

	slices := ledgerInstance.ListAll()
	display := make([]models.DisplaySlice, len(slices))
	for i, s := range slices {
		display[i] = ledger.ComputeDisplay(s, prices)
	}

	c.JSON(http.StatusOK, display)
}

// GetSlice devuelve una slice con sus campos calculados y su historial
func GetSlice(c *gin.Context) {
	slice, err := ledgerInstance.Get(c.Param("id"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger.ComputeDisplay(slice, priceService.Snapshot()))
}

// UpdateSlice edita nombre y/o meta de una slice
func UpdateSlice(c *gin.Context) {
	var req struct {
		Name *string          `json:"name"`
		Goal *decimal.Decimal `json:"goal"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slice, err := ledgerInstance.Edit(c.Param("id"), req.Name, req.Goal)
	respondMutated(c, http.StatusOK, "Slice actualizada exitosamente", slice, err)
}

// DeleteSlice elimina una slice y su historial
func DeleteSlice(c *gin.Context) {
	if err := ledgerInstance.Delete(c.Param("id")); err != nil {
		if errors.Is(err, models.ErrPersistence) && !errors.Is(err, models.ErrVersionConflict) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   err.Error(),
				"warning": "El cambio se aplicó pero puede no sobrevivir un reinicio",
			})
			return
		}
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Slice eliminada exitosamente"})
}

// DepositToSlice acredita fondos en una slice
func DepositToSlice(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slice, err := ledgerInstance.Deposit(c.Request.Context(), c.Param("id"), req.Amount)
	respondMutated(c, http.StatusOK, "Depósito realizado exitosamente", slice, err)
}

// WithdrawFromSlice debita fondos de una slice
func WithdrawFromSlice(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slice, err := ledgerInstance.Withdraw(c.Request.Context(), c.Param("id"), req.Amount)
	respondMutated(c, http.StatusOK, "Retiro realizado exitosamente", slice, err)
}

// GetDashboard devuelve los totales agregados de todas las slices
func GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerInstance.Summary(priceService.Snapshot()))
}

// GetPrices devuelve la tabla de cotizaciones vigente
func GetPrices(c *gin.Context) {
	c.JSON(http.StatusOK, priceService.Snapshot())
}

// StreamEvents expone la señal de "colección cambiada" como un stream SSE.
// Reemplaza al evento de storage que usaban los prototipos: el cliente
// recibe la señal y relee via GET /slices.
func StreamEvents(c *gin.Context) {
	ch := ledgerInstance.Subscribe()
	defer ledgerInstance.Unsubscribe(ch)

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ch:
			c.SSEvent("change", gin.H{"at": time.Now()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
