package share

import (
	"fmt"
	"strings"
)

// Format is an export geometry for the card image.
type Format string

const (
	FormatStory  Format = "story"
	FormatSquare Format = "square"
)

// exportPadding is the margin kept around the card on every side.
const exportPadding = 40

// Size is a pixel size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Placement positions scaled card content inside an export canvas.
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// ParseFormat reads a format name. Empty means story.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatStory, nil
	case FormatStory, FormatSquare:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want story or square)", s)
}

// Size returns the canvas size of the format.
func (f Format) Size() Size {
	if f == FormatSquare {
		return Size{Width: 1080, Height: 1080}
	}
	return Size{Width: 1080, Height: 1920}
}

// Fit scales content of the given size to fit the canvas inside the
// padding, keeping its aspect ratio, and centers it.
func (f Format) Fit(contentWidth, contentHeight float64) Placement {
	if contentWidth <= 0 || contentHeight <= 0 {
		return Placement{}
	}
	size := f.Size()
	w, h := float64(size.Width), float64(size.Height)

	scale := min((w-2*exportPadding)/contentWidth, (h-2*exportPadding)/contentHeight)
	sw, sh := contentWidth*scale, contentHeight*scale
	return Placement{
		X:      (w - sw) / 2,
		Y:      (h - sh) / 2,
		Width:  sw,
		Height: sh,
		Scale:  scale,
	}
}
