package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateID(t *testing.T) {
	tc := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{
			name: "canonical uuid",
			id:   "3f2b8c1e-9a4d-4e6f-8b1a-2c3d4e5f6a7b",
			want: "3f2b8c1e-9a4d-4e6f-8b1a-2c3d4e5f6a7b",
		},
		{
			name: "uppercase and padded",
			id:   "  3F2B8C1E-9A4D-4E6F-8B1A-2C3D4E5F6A7B ",
			want: "3f2b8c1e-9a4d-4e6f-8b1a-2c3d4e5f6a7b",
		},
		{
			name:    "path traversal",
			id:      "../auth/users",
			wantErr: true,
		},
		{
			name:    "empty",
			id:      "",
			wantErr: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ValidateID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON([]byte(`{"userNames":["bob"]}`)); err != nil {
		t.Errorf("expected valid JSON, got %v", err)
	}
	if err := ValidateJSON([]byte(`{"userNames":`)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "snipx.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("hello", "key", "value")

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected log file at %s: %v", path, err)
	}
}
