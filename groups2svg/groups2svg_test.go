package groups2svg

import (
	"bytes"
	"encoding/xml"
	"image"
	"strings"
	"testing"

	cftypes "centroidfinder/type"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedSVG struct {
	Width   string `xml:"width,attr"`
	Height  string `xml:"height,attr"`
	Circles []struct {
		CX    string `xml:"cx,attr"`
		CY    string `xml:"cy,attr"`
		R     string `xml:"r,attr"`
		Style string `xml:"style,attr"`
	} `xml:"circle"`
	Images []struct{} `xml:"image"`
}

func render(t *testing.T, w, h int, groups []cftypes.Group, opts Options) parsedSVG {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, w, h, groups, opts))
	var out parsedSVG
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRender(t *testing.T) {
	groups := []cftypes.Group{
		{Size: 314, Centroid: cftypes.Coordinate{X: 40, Y: 30}},
		{Size: 1, Centroid: cftypes.Coordinate{X: 5, Y: 6}},
	}
	out := render(t, 100, 80, groups, Options{})
	assert.Equal(t, "100", out.Width)
	assert.Equal(t, "80", out.Height)
	require.Len(t, out.Circles, 2)

	// 最大区域最后绘制，位于最上层
	last := out.Circles[1]
	assert.Equal(t, "40", last.CX)
	assert.Equal(t, "30", last.CY)
	assert.Equal(t, "10", last.R)
	assert.True(t, strings.Contains(last.Style, "#ff3030"))
	assert.Equal(t, "2", out.Circles[0].R)
	assert.Empty(t, out.Images)
}

func TestRenderMaxGroupsAndBackground(t *testing.T) {
	groups := []cftypes.Group{
		{Size: 9, Centroid: cftypes.Coordinate{X: 1, Y: 1}},
		{Size: 4, Centroid: cftypes.Coordinate{X: 2, Y: 2}},
		{Size: 1, Centroid: cftypes.Coordinate{X: 3, Y: 3}},
	}
	out := render(t, 4, 4, groups, Options{MaxGroups: 2, Background: image.NewRGBA(image.Rect(0, 0, 4, 4))})
	assert.Len(t, out.Circles, 2)
	assert.Len(t, out.Images, 1)
}

func TestRenderEmptyAndInvalid(t *testing.T) {
	out := render(t, 10, 10, nil, Options{})
	assert.Empty(t, out.Circles)

	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, 0, 10, nil, Options{}), cftypes.ErrInvalidInput)
}

func TestRadius(t *testing.T) {
	assert.Equal(t, 2, Radius(1))
	assert.Equal(t, 10, Radius(314))
	assert.Equal(t, 100, Radius(31416))
}
