package util

import (
	"Purng/internal/api/dto"
	"Purng/internal/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDTO(t *testing.T) {
	require.NoError(t, ValidateDTO(&dto.AddPushupsDTO{Date: "2025-03-01", Count: 1}))

	err := ValidateDTO(&dto.AddPushupsDTO{Date: "2025-13-01"})
	assert.ErrorIs(t, err, service.ErrValidationFailed)
	assert.Contains(t, err.Error(), "Date")

	err = ValidateDTO(&dto.FeedbackBaseDTO{Type: "praise", Message: "hi"})
	assert.ErrorIs(t, err, service.ErrValidationFailed)
	assert.Contains(t, err.Error(), "oneof")
}

func TestParseCursor(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{name: "empty", raw: "", want: 0},
		{name: "millis", raw: "1735689600000", want: 1735689600000},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "garbage", raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCursor(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, service.ErrParamInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseYear(t *testing.T) {
	year, err := ParseYear("")
	require.NoError(t, err)
	assert.Equal(t, 0, year)

	year, err = ParseYear("2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)

	_, err = ParseYear("25")
	assert.ErrorIs(t, err, service.ErrParamInvalid)
	_, err = ParseYear("x")
	assert.ErrorIs(t, err, service.ErrParamInvalid)
}
