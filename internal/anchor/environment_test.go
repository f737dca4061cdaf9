package anchor

import (
	"errors"
	"testing"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
)

func TestEnvironmentFromID(t *testing.T) {
	tests := []struct {
		id      uint8
		want    Environment
		wantErr bool
	}{
		{0, Mainnet, false},
		{1, Testnet, false},
		{2, Local, false},
		{3, 0, true},
		{255, 0, true},
	}

	for _, tt := range tests {
		got, err := EnvironmentFromID(tt.id)
		if tt.wantErr {
			if !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("EnvironmentFromID(%d) error = %v, want ErrInvalidInput", tt.id, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("EnvironmentFromID(%d) = %v, %v; want %v", tt.id, got, err, tt.want)
		}
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in      string
		want    Environment
		wantErr bool
	}{
		{"mainnet", Mainnet, false},
		{"MAINNET", Mainnet, false},
		{"ic", Mainnet, false},
		{"testnet", Testnet, false},
		{" test ", Testnet, false},
		{"local", Local, false},
		{"dfx", Local, false},
		{"0", Mainnet, false},
		{"2", Local, false},
		{"3", 0, true},
		{"256", 0, true},
		{"", 0, true},
		{"devnet", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEnvironment(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEnvironment(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseEnvironment(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	if Mainnet.String() != "mainnet" || Testnet.String() != "testnet" || Local.String() != "local" {
		t.Error("unexpected environment names")
	}
	if got := Environment(9).String(); got != "environment(9)" {
		t.Errorf("String() = %s", got)
	}
}

func TestEnvironmentText(t *testing.T) {
	for _, env := range AllEnvironments {
		text, err := env.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s) error = %v", env, err)
		}
		var back Environment
		if err := back.UnmarshalText(text); err != nil || back != env {
			t.Errorf("UnmarshalText(%s) = %s, %v", text, back, err)
		}
	}

	if _, err := Environment(5).MarshalText(); err == nil {
		t.Error("expected error marshaling unknown environment")
	}
}

func TestEnvironmentFlagValue(t *testing.T) {
	var env Environment
	if err := env.Set("testnet"); err != nil || env != Testnet {
		t.Errorf("Set(testnet) = %s, %v", env, err)
	}
	if err := env.Set("bogus"); err == nil {
		t.Error("expected error for bogus environment")
	}
	if env != Testnet {
		t.Error("failed Set should leave the value unchanged")
	}
	if env.Type() != "environment" {
		t.Errorf("Type() = %s", env.Type())
	}
}
