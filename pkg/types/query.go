package types

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query parameter names of the remote data-source protocol.
const (
	ParamSort  = "sort"
	ParamOrder = "order"
	ParamStart = "start"
	ParamEnd   = "end"
)

// Range filter parameters. The row server matches them against its
// configured range column, both ends inclusive.
const (
	ParamFrom = "from"
	ParamTo   = "to"
)

// Query is one remote page request: sort column and direction, a zero-based
// start offset and an exclusive end offset, plus pass-through filter params
// such as a date range. End < 0 means no upper bound.
type Query struct {
	Sort   string
	Order  Direction
	Start  int
	End    int
	Params url.Values
}

// Limit returns the number of rows the window asks for, or -1 when unbounded.
func (q Query) Limit() int {
	if q.End < 0 {
		return -1
	}
	return q.End - q.Start
}

// Values encodes the query as URL parameters. Filter params never override
// the protocol parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	for k, vs := range q.Params {
		if isProtocolParam(k) {
			continue
		}
		v[k] = append([]string(nil), vs...)
	}
	if q.Sort != "" {
		v.Set(ParamSort, q.Sort)
		v.Set(ParamOrder, q.Order.String())
	}
	v.Set(ParamStart, strconv.Itoa(q.Start))
	if q.End >= 0 {
		v.Set(ParamEnd, strconv.Itoa(q.End))
	}
	return v
}

// ParseQuery decodes URL parameters produced by Values. A missing start is 0
// and a missing end is unbounded. Unknown parameters land in Params.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{Sort: v.Get(ParamSort), End: -1, Params: url.Values{}}

	order, err := ParseDirection(v.Get(ParamOrder))
	if err != nil {
		return Query{}, err
	}
	q.Order = order

	if s := v.Get(ParamStart); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Query{}, fmt.Errorf("%w: start=%q", ErrInvalidWindow, s)
		}
		q.Start = n
	}
	if s := v.Get(ParamEnd); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < q.Start {
			return Query{}, fmt.Errorf("%w: end=%q", ErrInvalidWindow, s)
		}
		q.End = n
	}

	for k, vs := range v {
		if isProtocolParam(k) {
			continue
		}
		q.Params[k] = append([]string(nil), vs...)
	}
	return q, nil
}

func isProtocolParam(k string) bool {
	switch k {
	case ParamSort, ParamOrder, ParamStart, ParamEnd:
		return true
	}
	return false
}
