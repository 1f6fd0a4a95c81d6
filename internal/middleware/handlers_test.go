package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/slicesapp/Slices_Api/internal/database"
	"github.com/slicesapp/Slices_Api/internal/ledger"
	"github.com/slicesapp/Slices_Api/internal/middleware"
	"github.com/slicesapp/Slices_Api/internal/models"
	routes "github.com/slicesapp/Slices_Api/internal/server"
	"github.com/slicesapp/Slices_Api/internal/services"
	"github.com/slicesapp/Slices_Api/internal/storage"
	"github.com/slicesapp/Slices_Api/internal/wallet"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "secreto-de-test")

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("error abriendo la base: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	database.DB = db
	middleware.InitAuth()

	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "slices.json"))
	if err != nil {
		t.Fatalf("error creando el store: %v", err)
	}
	ldg, err := ledger.New(store, wallet.NewMockProvider(), 0)
	if err != nil {
		t.Fatalf("error creando el ledger: %v", err)
	}

	// Sin Start: la tabla por defecto alcanza para los tests
	middleware.InitLedger(ldg, services.NewPriceService(time.Hour))

	router := gin.New()
	routes.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("error serializando el body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signupAndLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doRequest(t, router, http.MethodPost, "/signup", "", gin.H{
		"email":    "test@slices.app",
		"password": "secreta123",
		"name":     "Tester",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup falló con %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error parseando la respuesta de signup: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("signup no devolvió token")
	}
	return resp.Token
}

func TestRutasProtegidasSinToken(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/slices", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("sin token se esperaba 401, se obtuvo %d", w.Code)
	}
}

func TestFlujoCompletoDeSlices(t *testing.T) {
	router := setupRouter(t)
	token := signupAndLogin(t, router)

	// Conectar la wallet para habilitar movimientos cripto
	w := doRequest(t, router, http.MethodPost, "/wallet/session", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("conexión de wallet falló con %d: %s", w.Code, w.Body.String())
	}

	// Crear una slice en ETH con monto inicial
	w = doRequest(t, router, http.MethodPost, "/slices", token, gin.H{
		"name":           "Car",
		"currency":       "ETH",
		"goal":           10,
		"initial_amount": 2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("creación falló con %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Slice models.Slice `json:"slice"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("error parseando la slice creada: %v", err)
	}
	sliceID := created.Slice.ID

	// Depositar 3 → balance 5
	w = doRequest(t, router, http.MethodPost, "/slices/"+sliceID+"/deposit", token, gin.H{"amount": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("depósito falló con %d: %s", w.Code, w.Body.String())
	}
	var deposited struct {
		Slice models.Slice `json:"slice"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &deposited); err != nil {
		t.Fatalf("error parseando la respuesta del depósito: %v", err)
	}
	if !deposited.Slice.CurrentAmount.Equal(decimal.NewFromInt(5)) {
		t.Errorf("balance incorrecto tras depósito: %s", deposited.Slice.CurrentAmount)
	}

	// Retirar más del balance → 409 con mensaje distinguible
	w = doRequest(t, router, http.MethodPost, "/slices/"+sliceID+"/withdraw", token, gin.H{"amount": 6})
	if w.Code != http.StatusConflict {
		t.Errorf("retiro excedido: se esperaba 409, se obtuvo %d: %s", w.Code, w.Body.String())
	}

	// Listar: una sola slice con su proyección calculada
	w = doRequest(t, router, http.MethodGet, "/slices", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("listado falló con %d", w.Code)
	}
	var list []models.DisplaySlice
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("error parseando el listado: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("se esperaba 1 slice, hay %d", len(list))
	}
	if list[0].PercentCompleted != 50 {
		t.Errorf("porcentaje incorrecto: %v", list[0].PercentCompleted)
	}
	if !list[0].IsCrypto {
		t.Errorf("una slice ETH debería marcarse como cripto")
	}

	// Editar la meta
	w = doRequest(t, router, http.MethodPut, "/slices/"+sliceID, token, gin.H{"goal": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("edición falló con %d: %s", w.Code, w.Body.String())
	}

	// Dashboard: la slice quedó completada
	w = doRequest(t, router, http.MethodGet, "/dashboard", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard falló con %d", w.Code)
	}
	var summary models.DashboardSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("error parseando el dashboard: %v", err)
	}
	if summary.TotalSlices != 1 || summary.Completed != 1 {
		t.Errorf("resumen incorrecto: %+v", summary)
	}

	// Eliminar la slice
	w = doRequest(t, router, http.MethodDelete, "/slices/"+sliceID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("eliminación falló con %d: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, router, http.MethodGet, "/slices/"+sliceID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("tras eliminar se esperaba 404, se obtuvo %d", w.Code)
	}
}

func TestUsuarioActual(t *testing.T) {
	router := setupRouter(t)
	token := signupAndLogin(t, router)

	w := doRequest(t, router, http.MethodGet, "/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /me falló con %d: %s", w.Code, w.Body.String())
	}

	var user models.User
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("error parseando el usuario: %v", err)
	}
	if user.Email != "test@slices.app" || user.Name != "Tester" {
		t.Errorf("usuario incorrecto: %+v", user)
	}

	// Sin token no hay usuario actual
	w = doRequest(t, router, http.MethodGet, "/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("sin token se esperaba 401, se obtuvo %d", w.Code)
	}
}

func TestCreacionInvalidaRespondeBadRequest(t *testing.T) {
	router := setupRouter(t)
	token := signupAndLogin(t, router)

	w := doRequest(t, router, http.MethodPost, "/slices", token, gin.H{
		"name":     "Inválida",
		"currency": "DOGE",
		"goal":     100,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("moneda inválida: se esperaba 400, se obtuvo %d: %s", w.Code, w.Body.String())
	}
}
