package blendshape

import (
	"fmt"

	"go.uber.org/zap"
)

// WeightConfiguration maps channel names to weights on the 0-100 scale.
type WeightConfiguration map[string]float32

// WeightController reads and writes renderer weights by channel name.
type WeightController struct {
	r   Renderer
	log *zap.Logger
}

// NewWeightController returns a controller for r. A nil logger discards output.
func NewWeightController(r Renderer, log *zap.Logger) *WeightController {
	if log == nil {
		log = zap.NewNop()
	}
	return &WeightController{r: r, log: log}
}

// Renderer returns the controlled renderer.
func (c *WeightController) Renderer() Renderer {
	return c.r
}

func (c *WeightController) index(name string) int {
	m := c.r.Mesh()
	if m == nil {
		return -1
	}
	return m.ChannelIndex(name)
}

// Weight returns the current weight of the named channel.
func (c *WeightController) Weight(name string) (float32, bool) {
	i := c.index(name)
	if i < 0 {
		return 0, false
	}
	return c.r.BlendShapeWeight(i), true
}

// SetWeight sets the named channel's weight. Unknown names are logged and ignored.
func (c *WeightController) SetWeight(name string, w float32) bool {
	i := c.index(name)
	if i < 0 {
		c.log.Warn("set weight on unknown channel", zap.String("channel", name), zap.Float32("weight", w))
		return false
	}
	c.r.SetBlendShapeWeight(i, w)
	return true
}

// SnapshotAll reads every channel weight.
func (c *WeightController) SnapshotAll() WeightConfiguration {
	m := c.r.Mesh()
	if m == nil {
		return WeightConfiguration{}
	}
	cfg := make(WeightConfiguration, len(m.Channels))
	for i, ch := range m.Channels {
		cfg[ch.Name] = c.r.BlendShapeWeight(i)
	}
	return cfg
}

// RestoreAll writes back a configuration. Names the mesh no longer has are skipped.
func (c *WeightController) RestoreAll(cfg WeightConfiguration) {
	m := c.r.Mesh()
	if m == nil {
		return
	}
	for i, ch := range m.Channels {
		if w, ok := cfg[ch.Name]; ok {
			c.r.SetBlendShapeWeight(i, w)
		}
	}
}

// Apply sets each listed weight, warning about unknown names. Other
// channels keep their weights.
func (c *WeightController) Apply(cfg WeightConfiguration) {
	for name, w := range cfg {
		c.SetWeight(name, w)
	}
}

// ZeroAll sets every channel weight to 0.
func (c *WeightController) ZeroAll() {
	m := c.r.Mesh()
	if m == nil {
		return
	}
	for i := range m.Channels {
		c.r.SetBlendShapeWeight(i, 0)
	}
}

// Isolate sets the named channel to 100 and every other channel to 0.
// It returns the configuration that was active before the call.
func (c *WeightController) Isolate(name string) (WeightConfiguration, error) {
	target := c.index(name)
	if target < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	prior := c.SnapshotAll()
	for i := range c.r.Mesh().Channels {
		w := float32(0)
		if i == target {
			w = 100
		}
		c.r.SetBlendShapeWeight(i, w)
	}
	return prior, nil
}

// Bracket runs fn and then restores the weights that were active before it,
// whether fn returns an error, succeeds or panics.
func (c *WeightController) Bracket(fn func() error) error {
	saved := c.SnapshotAll()
	defer c.RestoreAll(saved)
	return fn()
}
