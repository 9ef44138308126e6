package errors

import (
	"testing"
)

func TestValidateVariableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "x", false},
		{"valid with dash", "agent-1", false},
		{"valid with underscore", "x_12", false},
		{"valid with dot", "room.3", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"space", "a b", true},
		{"comma", "a,b", true},
		{"equals", "a=1", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariableName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVariableName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDomain(t *testing.T) {
	tests := []struct {
		name    string
		domain  int
		wantErr bool
	}{
		{"binary", 2, false},
		{"unary", 1, false},
		{"zero", 0, true},
		{"negative", -3, true},
		{"huge", 1 << 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDomain("v", tt.domain)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDomain(%d) error = %v, wantErr %v", tt.domain, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateDomain(%d) code = %v, want %v", tt.domain, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateState(t *testing.T) {
	if err := ValidateState("v", 1, 2); err != nil {
		t.Errorf("ValidateState(1, 2) = %v, want nil", err)
	}
	for _, state := range []int{-1, 2, 7} {
		err := ValidateState("v", state, 2)
		if !Is(err, ErrCodeInvalidIndex) {
			t.Errorf("ValidateState(%d, 2) = %v, want %s", state, err, ErrCodeInvalidIndex)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "problems/chain.json", false},
		{"absolute", "/tmp/chain.yaml", false},
		{"empty", "", true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRedisAddr(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"localhost:6379", false},
		{"cache.internal:6380", false},
		{":6379", false},
		{"", true},
		{"localhost", true},
		{"redis://localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateRedisAddr(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRedisAddr(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
