package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{name: "defaults", in: Params{}, want: Params{Page: 1, Limit: 10}},
		{name: "negative page", in: Params{Page: -3, Limit: 25}, want: Params{Page: 1, Limit: 25}},
		{name: "limit capped", in: Params{Page: 2, Limit: 500}, want: Params{Page: 2, Limit: 100}},
		{name: "passthrough", in: Params{Page: 4, Limit: 50}, want: Params{Page: 4, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 30, Params{Page: 4, Limit: 10}.Offset())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestNewPage(t *testing.T) {
	page := NewPage(Params{Page: 2, Limit: 10}, 25)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.Pages)

	empty := NewPage(Params{}, 0)
	assert.Equal(t, 0, empty.Pages)
}
