package token

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "1", want: "1"},
		{name: "seven places", input: "0.0000001", want: "0.0000001"},
		{name: "trailing zeros", input: "2.5000000", want: "2.5"},
		{name: "eight places", input: "0.00000001", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatAmount(got))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.2345678", FormatAmount(decimal.RequireFromString("1.23456789")))
	assert.Equal(t, "10", FormatAmount(decimal.NewFromInt(10)))
}
