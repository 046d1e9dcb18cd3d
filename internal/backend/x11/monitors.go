package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor is one active host monitor.
type Monitor struct {
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Monitors lists the active host monitors using XRandR.
func (c *Connection) Monitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, Monitor{
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}

// HostMonitor returns the monitor under the host pointer, falling back to
// the first monitor.
func (c *Connection) HostMonitor() (Monitor, error) {
	monitors, err := c.Monitors()
	if err != nil {
		return Monitor{}, err
	}
	if len(monitors) == 0 {
		return Monitor{}, fmt.Errorf("no monitors found")
	}

	pointer, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return monitors[0], nil
	}
	x, y := int(pointer.RootX), int(pointer.RootY)
	for _, mon := range monitors {
		if x >= mon.X && x < mon.X+mon.Width && y >= mon.Y && y < mon.Y+mon.Height {
			return mon, nil
		}
	}
	return monitors[0], nil
}
