package wallet

import (
	"testing"
)

func TestDefaultDerivationPath(t *testing.T) {
	dp := DefaultDerivationPath()

	if dp.Purpose != Secp256k1Purpose {
		t.Errorf("Purpose = %d, want %d", dp.Purpose, Secp256k1Purpose)
	}
	if dp.CoinType != SuiCoinType {
		t.Errorf("CoinType = %d, want %d", dp.CoinType, SuiCoinType)
	}
	if dp.Account != DefaultAccount || dp.Change != ExternalChain || dp.AddressIndex != DefaultAddressIndex {
		t.Errorf("unexpected default path %s", dp)
	}
}

func TestDerivationPath_String(t *testing.T) {
	tests := []struct {
		name string
		path *DerivationPath
		want string
	}{
		{"default path", DefaultDerivationPath(), "m/54'/784'/0'/0/0"},
		{"account 1", NewDerivationPath(1, ExternalChain, 0), "m/54'/784'/1'/0/0"},
		{"internal chain", NewDerivationPath(0, InternalChain, 5), "m/54'/784'/0'/1/5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    *DerivationPath
		wantErr bool
	}{
		{"with m prefix", "m/54'/784'/0'/0/0", DefaultDerivationPath(), false},
		{"without prefix", "54'/784'/2'/0/7", NewDerivationPath(2, 0, 7), false},
		{"h hardened marker", "m/54h/784h/0h/1/3", NewDerivationPath(0, 1, 3), false},
		{"wrong purpose", "m/44'/784'/0'/0/0", nil, true},
		{"wrong coin type", "m/54'/60'/0'/0/0", nil, true},
		{"account not hardened", "m/54'/784'/0/0/0", nil, true},
		{"bad change", "m/54'/784'/0'/2/0", nil, true},
		{"too short", "m/54'/784'/0'", nil, true},
		{"not a number", "m/54'/784'/x'/0/0", nil, true},
		{"index overflow", "m/54'/784'/0'/0/2147483648", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDerivationPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDerivationPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if *got != *tt.want {
				t.Errorf("ParseDerivationPath() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDerivationPath_ToUint32Array(t *testing.T) {
	got := NewDerivationPath(3, 1, 9).ToUint32Array()
	want := []uint32{54 + HardenedOffset, 784 + HardenedOffset, 3 + HardenedOffset, 1, 9}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDerivationPath_With(t *testing.T) {
	base := DefaultDerivationPath()

	next := base.WithAddressIndex(2)
	if next.AddressIndex != 2 || base.AddressIndex != 0 {
		t.Errorf("WithAddressIndex modified base or failed: %s / %s", base, next)
	}
}
