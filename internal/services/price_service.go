package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slicesapp/Slices_Api/internal/ledger"
)

// Mapeo de nuestros tickers a los ids de CoinGecko
var coingeckoIDs = map[string]string{
	"ETH": "ethereum",
	"BTC": "bitcoin",
	"POL": "matic-network",
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// PriceService mantiene la tabla de cotizaciones en USD y la refresca
// periódicamente desde CoinGecko. Si el refresh falla se conserva la
// última tabla conocida, arrancando desde los precios por defecto.
type PriceService struct {
	interval  time.Duration
	mutex     sync.RWMutex
	prices    ledger.PriceTable
	isRunning bool
	stopChan  chan struct{}
}

// NewPriceService crea el servicio con la tabla de precios por defecto
func NewPriceService(interval time.Duration) *PriceService {
	return &PriceService{
		interval: interval,
		prices:   ledger.DefaultPrices(),
		stopChan: make(chan struct{}),
	}
}

// Start inicia el refresco periódico en segundo plano
func (s *PriceService) Start() {
	s.mutex.Lock()
	if s.isRunning {
		s.mutex.Unlock()
		return
	}
	s.isRunning = true
	s.mutex.Unlock()

	log.Printf("Iniciando servicio de actualización de precios (intervalo: %v)", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.refresh()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop detiene el refresco periódico
func (s *PriceService) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
	log.Println("Servicio de actualización de precios detenido")
}

// Snapshot devuelve una copia de la tabla actual, segura para usar
// mientras el refresco sigue corriendo
func (s *PriceService) Snapshot() ledger.PriceTable {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(ledger.PriceTable, len(s.prices))
	for k, v := range s.prices {
		out[k] = v
	}
	return out
}

// refresh consulta CoinGecko y actualiza los precios que obtenga. Las
// stablecoins quedan fijas en 1, y ante cualquier error se mantiene la
// tabla anterior.
func (s *PriceService) refresh() {
	fetched, err := fetchPricesFromCoinGecko()
	if err != nil {
		log.Printf("Error al actualizar precios, se mantiene la tabla anterior: %v", err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for ticker, price := range fetched {
		s.prices[ticker] = price
	}
}

// fetchPricesFromCoinGecko obtiene las cotizaciones en USD de los tickers mapeados
func fetchPricesFromCoinGecko() (ledger.PriceTable, error) {
	url := "https://api.coingecko.com/api/v3/simple/price?ids=ethereum,bitcoin,matic-network&vs_currencies=usd"

	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CoinGecko respondió %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]map[string]float64
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	prices := ledger.PriceTable{}
	for ticker, id := range coingeckoIDs {
		if usd, ok := result[id]["usd"]; ok {
			prices[ticker] = decimal.NewFromFloat(usd)
		}
	}
	return prices, nil
}
