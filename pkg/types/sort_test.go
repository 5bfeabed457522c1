package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Direction
		wantErr error
	}{
		{name: "empty defaults to asc", in: "", want: Asc},
		{name: "asc", in: "asc", want: Asc},
		{name: "desc", in: "desc", want: Desc},
		{name: "unknown rejected", in: "up", wantErr: ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectionFlipAndMultiplier(t *testing.T) {
	assert.Equal(t, Desc, Asc.Flip())
	assert.Equal(t, Asc, Desc.Flip())
	assert.Equal(t, 1, Asc.Multiplier())
	assert.Equal(t, -1, Desc.Multiplier())
	assert.Equal(t, "asc", Asc.String())
	assert.Equal(t, "desc", Desc.String())
}

func TestSortStateIsSorted(t *testing.T) {
	assert.False(t, SortState{}.IsSorted())
	assert.True(t, SortState{ColumnID: "name"}.IsSorted())
}

func TestPageStateNextWindow(t *testing.T) {
	tests := []struct {
		name       string
		state      PageState
		start, end int
	}{
		{name: "nothing loaded", state: PageState{PageSize: 2}, start: 0, end: 2},
		{name: "one page loaded", state: PageState{PageSize: 2, LoadedPages: 1}, start: 2, end: 4},
		{name: "three pages of thirty", state: PageState{PageSize: 30, LoadedPages: 3}, start: 90, end: 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.state.NextWindow()
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestParseSortKindAndMode(t *testing.T) {
	k, err := ParseSortKind("number")
	assert.NoError(t, err)
	assert.Equal(t, SortNumber, k)

	k, err = ParseSortKind("")
	assert.NoError(t, err)
	assert.Equal(t, SortString, k)

	_, err = ParseSortKind("date")
	assert.ErrorIs(t, err, ErrInvalidSortKind)

	m, err := ParseSortMode("LOCAL")
	assert.NoError(t, err)
	assert.Equal(t, ModeLocal, m)

	_, err = ParseSortMode("hybrid")
	assert.ErrorIs(t, err, ErrInvalidSortMode)
}
