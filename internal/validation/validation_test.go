package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Password1", false},
		{"valid long", "Abcdefgh123456", false},
		{"too short", "Pass1", true},
		{"no uppercase", "password1", true},
		{"no digit", "Passwordd", true},
		{"empty", "", true},
		{"exactly eight", "Abcdefg1", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateUsername("maria_garcia"))
	assert.NoError(t, ValidateUsername("user-123"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("_leading"))
	assert.Error(t, ValidateUsername("trailing-"))
	assert.Error(t, ValidateUsername("has spaces"))
	assert.Error(t, ValidateUsername("acentuádo"))
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateEmail("maria@example.com"))
	assert.NoError(t, ValidateEmail("a.b+c@sub.dominio.es"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail("@example.com"))
}

func TestValidatePDF(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePDF("solicitud.pdf"))
	assert.NoError(t, ValidatePDF("SOLICITUD.PDF"))
	assert.Error(t, ValidatePDF("foto.jpg"))
	assert.Error(t, ValidatePDF("documento.pdf.exe"))
	assert.Error(t, ValidatePDF("sin_extension"))
}
