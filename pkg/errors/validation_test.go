package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "u1", false},
		{"valid hierarchical", "core/alu/add_0", false},
		{"valid escaped bus", `data\[3\]`, false},
		{"valid brackets", "q[7]", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 2000), true},
		{"null byte", "u\x001", true},
		{"newline", "u\n1", true},
		{"tab", "u\t1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("instance", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidNetlist) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidNetlist)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid relative", "designs/top.json", false},
		{"valid absolute", "/tmp/top.gt", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "a\x00b", true},
		{"control char", "a\x01b", true},
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

func TestValidateURI(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		schemes []string
		wantErr bool
	}{
		{"bolt", "bolt://localhost:7687", []string{"bolt", "neo4j"}, false},
		{"neo4j", "neo4j://db:7687", []string{"bolt", "neo4j"}, false},
		{"redis", "redis://localhost:6379/0", []string{"redis", "rediss"}, false},

		{"empty", "", []string{"bolt"}, true},
		{"wrong scheme", "http://localhost", []string{"bolt", "neo4j"}, true},
		{"no scheme", "localhost:7687", []string{"bolt"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURI(tt.input, tt.schemes...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURI(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
