package wallet

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAddress = "0x1111111111111111111111111111111111111111"

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		rpcURL  string
		address string
		logger  *zap.Logger
		wantErr string
	}{
		{"valid", "https://polygon-rpc.com", testAddress, zap.NewNop(), ""},
		{"empty rpc", "", testAddress, zap.NewNop(), "rpcURL cannot be empty"},
		{"bad address", "https://polygon-rpc.com", "not-an-address", zap.NewNop(), "invalid wallet address"},
		{"nil logger", "https://polygon-rpc.com", testAddress, nil, "logger cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.rpcURL, tt.address, tt.logger)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, client)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBalanceConversions(t *testing.T) {
	b := &Balances{
		POL:   big.NewInt(1_234_500_000_000_000_000), // 1.2345 POL
		USDCe: big.NewInt(412_500_000),               // $412.50
	}

	assert.InDelta(t, 1.2345, b.POLFloat(), 1e-9)
	assert.InDelta(t, 412.50, b.USDCeFloat(), 1e-9)
}
