package pdfdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wudi/pdfkit/ir/semantic"
)

func TestCropPage(t *testing.T) {
	page := &semantic.Page{
		MediaBox: semantic.Rectangle{LLX: 0, LLY: 0, URX: 612, URY: 792},
	}

	// Middle band, fractions measured from the top of the page.
	cropPage(page, Band{Top: 0.32, Bottom: 0.68})

	assert.InDelta(t, 792*(1-0.32), page.CropBox.URY, 0.01)
	assert.InDelta(t, 792*(1-0.68), page.CropBox.LLY, 0.01)
	assert.Equal(t, 0.0, page.CropBox.LLX)
	assert.Equal(t, 612.0, page.CropBox.URX)
	assert.Equal(t, page.CropBox, page.MediaBox)
	assert.True(t, page.Dirty)
}

func TestCropPageRespectsOffsetMediaBox(t *testing.T) {
	page := &semantic.Page{
		MediaBox: semantic.Rectangle{LLX: 10, LLY: 100, URX: 622, URY: 892},
	}

	cropPage(page, Band{Top: 0, Bottom: 0.5})

	assert.InDelta(t, 892.0, page.CropBox.URY, 0.01)
	assert.InDelta(t, 892-0.5*792, page.CropBox.LLY, 0.01)
	assert.Equal(t, 10.0, page.CropBox.LLX)
}
