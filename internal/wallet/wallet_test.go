package wallet_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slicesapp/Slices_Api/internal/wallet"
)

func TestNormalizeToken(t *testing.T) {
	casos := map[string]string{
		"ETH":  "ETH",
		"BTC":  "BTC",
		"USDC": "USDC",
		"ARS":  "USDC", // fuera de la lista, cae al default
		"USD":  "USDC",
		"DOGE": "USDC",
	}

	for in, want := range casos {
		if got := wallet.NormalizeToken(in); got != want {
			t.Errorf("NormalizeToken(%q) = %q, se esperaba %q", in, got, want)
		}
	}
}

func TestMockProviderExitoso(t *testing.T) {
	p := wallet.NewMockProvider()
	ctx := context.Background()

	auth, err := p.Authenticate(ctx)
	if err != nil || !auth.Success || auth.WalletAddress == "" {
		t.Fatalf("la autenticación simulada debería funcionar: %+v, %v", auth, err)
	}

	dep, err := p.Deposit(ctx, "1.5", "ETH")
	if err != nil || !dep.Success {
		t.Errorf("el depósito simulado debería funcionar: %+v, %v", dep, err)
	}

	wd, err := p.Withdraw(ctx, "0.5", "ETH")
	if err != nil || !wd.Success {
		t.Errorf("el retiro simulado debería funcionar: %+v, %v", wd, err)
	}
	if wd.Reference == "" {
		t.Errorf("el retiro debería devolver una referencia")
	}
}

func TestMockProviderEnModoFallo(t *testing.T) {
	p := wallet.NewMockProvider()
	p.Mode = wallet.ModeFailure
	ctx := context.Background()

	if auth, _ := p.Authenticate(ctx); auth.Success {
		t.Errorf("la autenticación debería fallar en modo failure")
	}
	if dep, _ := p.Deposit(ctx, "1", "ETH"); dep.Success {
		t.Errorf("el depósito debería fallar en modo failure")
	}
	if wd, _ := p.Withdraw(ctx, "1", "ETH"); wd.Success {
		t.Errorf("el retiro debería fallar en modo failure")
	}
}

func TestMockProviderRespetaElContexto(t *testing.T) {
	p := wallet.NewMockProvider()
	p.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Deposit(ctx, "1", "ETH")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("se esperaba DeadlineExceeded, se obtuvo %v", err)
	}
}
