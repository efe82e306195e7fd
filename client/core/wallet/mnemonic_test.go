package wallet

import (
	"errors"
	"strings"
	"testing"
)

func TestMnemonicManager_GenerateMnemonic(t *testing.T) {
	mm := NewMnemonicManager()

	tests := []struct {
		name      string
		strength  MnemonicStrength
		wantWords int
		wantErr   bool
	}{
		{"12 words", Mnemonic12Words, 12, false},
		{"18 words", Mnemonic18Words, 18, false},
		{"24 words", Mnemonic24Words, 24, false},
		{"invalid strength", MnemonicStrength(100), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mnemonic, err := mm.GenerateMnemonic(tt.strength)
			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateMnemonic() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got := len(strings.Split(mnemonic, " ")); got != tt.wantWords {
				t.Errorf("GenerateMnemonic() got %d words, want %d", got, tt.wantWords)
			}
			if !mm.ValidateMnemonic(mnemonic) {
				t.Error("GenerateMnemonic() generated invalid mnemonic")
			}
		})
	}
}

func TestMnemonicManager_ValidateMnemonicWithDetails(t *testing.T) {
	mm := NewMnemonicManager()
	valid, _ := mm.GenerateMnemonic(Mnemonic12Words)

	tests := []struct {
		name     string
		mnemonic string
		wantErr  bool
	}{
		{"valid", valid, false},
		{"extra spaces", "  " + strings.ReplaceAll(valid, " ", "   ") + " ", false},
		{"empty", "", true},
		{"wrong word count", "abandon abandon abandon", true},
		{"unknown word", strings.Repeat("abandon ", 11) + "notaword", true},
		{"wrong checksum", strings.TrimSpace(strings.Repeat("abandon ", 12)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mm.ValidateMnemonicWithDetails(tt.mnemonic)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMnemonicWithDetails() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMnemonic) {
				t.Errorf("error %v does not wrap ErrInvalidMnemonic", err)
			}
		})
	}
}

func TestMnemonicManager_MnemonicToSeed(t *testing.T) {
	mm := NewMnemonicManager()
	mnemonic, _ := mm.GenerateMnemonic(Mnemonic12Words)

	seed1, err := mm.MnemonicToSeed(mnemonic, "")
	if err != nil {
		t.Fatalf("MnemonicToSeed() error = %v", err)
	}
	if len(seed1) != 64 {
		t.Errorf("seed length = %d, want 64", len(seed1))
	}

	seed2, _ := mm.MnemonicToSeed(mnemonic, "")
	if string(seed1) != string(seed2) {
		t.Error("same mnemonic produced different seeds")
	}

	seed3, _ := mm.MnemonicToSeed(mnemonic, "passphrase")
	if string(seed1) == string(seed3) {
		t.Error("passphrase did not change the seed")
	}

	if _, err := mm.MnemonicToSeed("invalid mnemonic", ""); err == nil {
		t.Error("MnemonicToSeed() accepted an invalid mnemonic")
	}
}
