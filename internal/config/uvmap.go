package config

import (
	"fmt"

	"github.com/Faultbox/morphkit/pkg/uvmap"
)

// Options converts the UV map settings to render options.
func (c UVMapConfig) Options() (uvmap.Options, error) {
	opts := uvmap.Options{
		Size:        c.Size,
		Supersample: c.Supersample,
		Transparent: c.Transparent,
		DrawLines:   c.DrawLines,
		Fill:        c.Fill,
		AutoColor:   c.AutoColor,
	}
	var err error
	if opts.Background, err = uvmap.ParseColor(c.Background); err != nil {
		return opts, fmt.Errorf("uvmap.background: %w", err)
	}
	if opts.LineColor, err = uvmap.ParseColor(c.LineColor); err != nil {
		return opts, fmt.Errorf("uvmap.line_color: %w", err)
	}
	if opts.FillColor, err = uvmap.ParseColor(c.FillColor); err != nil {
		return opts, fmt.Errorf("uvmap.fill_color: %w", err)
	}
	return opts, nil
}
