package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name       string
		requested  int
		total      int
		wantPage   int
		wantLast   int
		wantOffset int
	}{
		{name: "empty collection", requested: 1, total: 0, wantPage: 1, wantLast: 1, wantOffset: 0},
		{name: "page zero", requested: 0, total: 35, wantPage: 1, wantLast: 4, wantOffset: 0},
		{name: "negative page", requested: -3, total: 35, wantPage: 1, wantLast: 4, wantOffset: 0},
		{name: "middle page", requested: 2, total: 35, wantPage: 2, wantLast: 4, wantOffset: 10},
		{name: "beyond last", requested: 9, total: 35, wantPage: 4, wantLast: 4, wantOffset: 30},
		{name: "exact multiple", requested: 3, total: 30, wantPage: 3, wantLast: 3, wantOffset: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, last, offset := Clamp(tt.requested, tt.total)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLast, last)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestClampBounds(t *testing.T) {
	for total := 0; total <= 105; total++ {
		for requested := -2; requested <= 13; requested++ {
			page, last, offset := Clamp(requested, total)
			assert.GreaterOrEqual(t, page, 1)
			assert.LessOrEqual(t, page, last)
			assert.Equal(t, (page-1)*PageSize, offset)
			assert.LessOrEqual(t, offset, total)
		}
	}
}

func TestLinks(t *testing.T) {
	assert.Empty(t, Links("/businesses", 1, 1))

	assert.Equal(t, map[string]string{
		"nextPage": "/businesses?page=2",
		"lastPage": "/businesses?page=3",
	}, Links("/businesses", 1, 3))

	assert.Equal(t, map[string]string{
		"nextPage":  "/fields?page=3",
		"lastPage":  "/fields?page=3",
		"prevPage":  "/fields?page=1",
		"firstPage": "/fields?page=1",
	}, Links("/fields", 2, 3))

	assert.Equal(t, map[string]string{
		"prevPage":  "/photos?page=2",
		"firstPage": "/photos?page=1",
	}, Links("/photos", 3, 3))
}
