package date

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-03-01", want: "2024-03-01"},
		{in: "2024-12-31", want: "2024-12-31"},
		{in: "2024-3-1", wantErr: true},
		{in: "03/01/2024", wantErr: true},
		{in: "2024-02-30", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestOfUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2024, 6, 30, 22, 0, 0, 0, loc)

	assert.Equal(t, "2024-07-01", Of(late).String())
}

func TestJSONRoundTrip(t *testing.T) {
	d := MustParse("2025-01-15")

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-01-15"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)
}

func TestScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-04", d.String())

	require.NoError(t, d.Scan([]byte("2024-05-05T00:00:00Z")))
	assert.Equal(t, "2024-05-05", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-05", v)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))
}

func TestOrdering(t *testing.T) {
	a := MustParse("2024-01-01")
	b := MustParse("2024-01-02")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
}
