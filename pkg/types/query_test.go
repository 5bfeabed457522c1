package types

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryValues(t *testing.T) {
	q := Query{
		Sort:   "title",
		Order:  Desc,
		Start:  30,
		End:    60,
		Params: url.Values{"from": {"2024-01-01"}, "sort": {"ignored"}},
	}

	v := q.Values()
	assert.Equal(t, "title", v.Get(ParamSort))
	assert.Equal(t, "desc", v.Get(ParamOrder))
	assert.Equal(t, "30", v.Get(ParamStart))
	assert.Equal(t, "60", v.Get(ParamEnd))
	assert.Equal(t, "2024-01-01", v.Get("from"))
	assert.Equal(t, 30, q.Limit())
}

func TestQueryValuesUnsortedUnbounded(t *testing.T) {
	v := Query{End: -1}.Values()
	assert.False(t, v.Has(ParamSort))
	assert.False(t, v.Has(ParamOrder))
	assert.False(t, v.Has(ParamEnd))
	assert.Equal(t, "0", v.Get(ParamStart))
}

func TestParseQueryRoundTrip(t *testing.T) {
	in := Query{Sort: "quantity", Order: Asc, Start: 0, End: 30, Params: url.Values{"to": {"2024-02-01"}}}

	out, err := ParseQuery(in.Values())
	require.NoError(t, err)
	assert.Equal(t, in.Sort, out.Sort)
	assert.Equal(t, in.Order, out.Order)
	assert.Equal(t, in.Start, out.Start)
	assert.Equal(t, in.End, out.End)
	assert.Equal(t, "2024-02-01", out.Params.Get("to"))
	assert.False(t, out.Params.Has(ParamSort))
}

func TestParseQueryErrors(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		wantErr error
	}{
		{name: "negative start", values: url.Values{"start": {"-1"}}, wantErr: ErrInvalidWindow},
		{name: "non-numeric end", values: url.Values{"end": {"ten"}}, wantErr: ErrInvalidWindow},
		{name: "end before start", values: url.Values{"start": {"10"}, "end": {"5"}}, wantErr: ErrInvalidWindow},
		{name: "bad order", values: url.Values{"order": {"sideways"}}, wantErr: ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuery(tt.values)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseQueryDefaults(t *testing.T) {
	q, err := ParseQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 0, q.Start)
	assert.Equal(t, -1, q.End)
	assert.Equal(t, -1, q.Limit())
	assert.Equal(t, Asc, q.Order)
}
