package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/rs/zerolog/log"

	"pomoclock/internal/collector"
	"pomoclock/internal/event"
)

// Probe answers focus queries over a single X connection.
type Probe struct {
	mu sync.Mutex
	X  *xgbutil.XUtil
}

var _ collector.FocusProbe = (*Probe)(nil)

func NewProbe() (*Probe, error) {
	X, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	// _NET_ACTIVE_WINDOW and _NET_WM_NAME need EWMH.
	if _, err := ewmh.CurrentDesktopGet(X); err != nil {
		log.Warn().Err(err).Msg("EWMH potentially not supported by window manager")
	}
	return &Probe{X: X}, nil
}

func (p *Probe) CurrentFocus() (event.FocusInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	activeWinID, err := ewmh.ActiveWindowGet(p.X)
	if err != nil {
		return event.FocusInfo{}, fmt.Errorf("could not get active window ID: %w", err)
	}
	if activeWinID == 0 {
		return event.FocusInfo{AppName: "None", Title: "No Active Window"}, nil
	}

	// _NET_WM_NAME first, WM_NAME as fallback.
	title, err := ewmh.WmNameGet(p.X, activeWinID)
	if err != nil || title == "" {
		title, err = icccm.WmNameGet(p.X, activeWinID)
		if err != nil || title == "" {
			title = "Unknown Title"
		}
	}

	appName := "Unknown App"
	if classHints, err := icccm.WmClassGet(p.X, activeWinID); err == nil && classHints != nil {
		appName = classHints.Class
	}

	return event.FocusInfo{AppName: appName, Title: title}, nil
}

func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.X.Conn().Close()
	return nil
}
