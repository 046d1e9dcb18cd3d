package compositor

import (
	"context"
	"fmt"

	"github.com/1broseidon/palmwm/internal/config"
)

// Reload applies a new configuration to the running compositor. Outputs
// named in cfg are reconfigured or added, new seats are created and
// desktop options, cursors and bindings are replaced. Seats and outputs
// missing from cfg are left alone.
func (c *Compositor) Reload(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("reload: nil config")
	}
	bindings, err := parseBindings(cfg.Bindings)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	for _, sc := range cfg.Seats {
		if _, err := seatFromConfig(sc, c.logger); err != nil {
			return fmt.Errorf("reload: seat %q: %w", sc.Name, err)
		}
	}

	return c.Do(ctx, func() error {
		c.cfg = cfg
		c.bindings = bindings
		c.swallowed = make(map[string]map[uint32]struct{})
		c.desktop.SetAutoMaximize(cfg.Desktop.AutoMaximize)
		c.input.SetFocusOnMap(cfg.Desktop.FocusOnMap)
		exportCursorTheme(cfg.Desktop)

		for _, oc := range cfg.Outputs {
			want := outputFromConfig(oc)
			if cur := c.desktop.Output(oc.Name); cur != nil {
				if oc.Width == 0 || oc.Height == 0 {
					want.Box.Width, want.Box.Height = cur.Box().Width, cur.Box().Height
				}
				if err := c.desktop.ConfigureOutput(want); err != nil {
					c.logger.Warn("cannot reconfigure output", "output", oc.Name, "error", err)
				}
				continue
			}
			if _, err := c.desktop.AddOutput(want); err != nil {
				c.logger.Warn("cannot add output", "output", oc.Name, "error", err)
			}
		}

		for _, sc := range cfg.Seats {
			if s := c.input.Seat(sc.Name); s != nil {
				s.SetDefaultCursor(sc.DefaultCursor)
				continue
			}
			scfg, _ := seatFromConfig(sc, c.logger)
			if _, err := c.input.AddSeat(scfg); err != nil {
				c.logger.Warn("cannot add seat", "seat", sc.Name, "error", err)
			}
		}
		c.logger.Info("configuration reloaded",
			"outputs", len(cfg.Outputs),
			"seats", len(cfg.Seats),
			"bindings", len(bindings))
		return nil
	})
}
