package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"valid amount", 100, false},
		{"minimum amount", 1, false},
		{"maximum amount", MaxAmount, false},
		{"zero amount", 0, true},
		{"negative amount", -10, true},
		{"too large", MaxAmount + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.wantErr && !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ValidateAmount(%d) = %v, want ErrInvalidAmount", tt.amount, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateAmount(%d) unexpected error: %v", tt.amount, err)
			}
		})
	}
}

func TestValidateKind(t *testing.T) {
	tests := []struct {
		kind    string
		want    Kind
		wantErr bool
	}{
		{"credit", KindCredit, false},
		{"debit", KindDebit, false},
		{"c", "", true},
		{"CREDIT", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := ValidateKind(tt.kind)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKind) {
					t.Errorf("ValidateKind(%q) = %v, want ErrInvalidKind", tt.kind, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ValidateKind(%q) = %q, %v", tt.kind, got, err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantErr     bool
	}{
		{"single character", "a", false},
		{"ten characters", strings.Repeat("x", 10), false},
		{"ten multibyte characters", strings.Repeat("ç", 10), false},
		{"empty", "", true},
		{"eleven characters", strings.Repeat("x", 11), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescription(tt.description)
			if tt.wantErr && !errors.Is(err, ErrInvalidDescription) {
				t.Errorf("ValidateDescription(%q) = %v, want ErrInvalidDescription", tt.description, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateDescription(%q) unexpected error: %v", tt.description, err)
			}
		})
	}
}
