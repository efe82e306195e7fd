package builder

import (
	"testing"

	"github.com/expansion/v1/pkg/types"
)

func TestAmount_String(t *testing.T) {
	tests := []struct {
		name  string
		units uint64
		want  string
	}{
		{"1 SUI", 1_000_000_000, "1.000000000"},
		{"1.5 SUI", 1_500_000_000, "1.500000000"},
		{"1 mist", 1, "0.000000001"},
		{"zero", 0, "0.000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt := NewAmountFromUnits(tt.units)
			if got := amt.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := NewAmountFromUnits(1_500_000_000).StringTrimmed(); got != "1.5" {
		t.Errorf("StringTrimmed() = %v, want 1.5", got)
	}
	if got := NewAmountFromUnits(2_000_000_000).StringTrimmed(); got != "2" {
		t.Errorf("StringTrimmed() = %v, want 2", got)
	}
}

func TestGasAmount(t *testing.T) {
	tests := []struct {
		name string
		gas  types.GasCostSummary
		want string
	}{
		{"net rebate", types.GasCostSummary{ComputationCost: 1000, StorageCost: 500, StorageRebate: 2000}, "-0.0000005"},
		{"net cost", types.GasCostSummary{ComputationCost: 1_000_000_000, StorageCost: 500_000_000}, "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GasAmount(tt.gas).StringTrimmed(); got != tt.want {
				t.Errorf("GasAmount() = %v, want %v", got, tt.want)
			}
		})
	}
}
