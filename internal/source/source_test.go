package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToGemstone_NormalizesCodes(t *testing.T) {
	item := GemstoneItem{
		SerialNumber: " GEM-7 ",
		Type:         "Paraiba  Tourmaline",
		Color:        "Blue",
		Cut:          "Oval",
		Clarity:      "vs1",
		PriceAmount:  125000,
		InStock:      true,
	}
	g := item.ToGemstone()

	assert.Equal(t, "GEM-7", g.SerialNumber)
	assert.Equal(t, "paraiba_tourmaline", g.TypeCode)
	assert.Equal(t, "paraiba tourmaline", g.Name.DisplayName())
	assert.Equal(t, "blue", g.ColorCode)
	assert.Equal(t, "oval", g.CutCode)
	assert.Equal(t, "VS1", g.ClarityCode)
	assert.Equal(t, "USD", g.PriceCurrency)
	assert.True(t, g.InStock)
}

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.JPG", "jpeg"},
		{"https://cdn.example.com/a/b.webp?sig=1", "webp"},
		{"clip.mp4", "mp4"},
		{"noext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromName(tt.in))
		})
	}
	assert.Equal(t, "video", KindForFormat("mp4"))
	assert.Equal(t, "image", KindForFormat("png"))
}
