package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStylesNoColorReturnsUnstyled(t *testing.T) {
	s := GetStyles(true)
	assert.Equal(t, NoColorStyles().Header.Render("x"), s.Header.Render("x"))
}

func TestGetStylesColorReturnsDefault(t *testing.T) {
	s := GetStyles(false)
	assert.Equal(t, DefaultStyles().Success.Render("x"), s.Success.Render("x"))
}
