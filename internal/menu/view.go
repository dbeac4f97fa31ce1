// Package menu renders the photo menu and its informational screens.
package menu

import (
	"errors"
	"fmt"
	"strings"
)

// View is a displayable menu screen.
type View int

const (
	// MainMenu is the landing screen the bot returns to after inactivity.
	MainMenu View = iota
	// About introduces the author.
	About
	// Services lists what is on offer.
	Services
)

// ErrUnknownView is returned for view names or values outside the menu.
var ErrUnknownView = errors.New("menu: unknown view")

// Views lists every view in display order.
var Views = []View{MainMenu, About, Services}

func (v View) String() string {
	switch v {
	case MainMenu:
		return "main"
	case About:
		return "about"
	case Services:
		return "services"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// ParseView maps a callback key or config name to a View.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "menu":
		return MainMenu, nil
	case "about":
		return About, nil
	case "services":
		return Services, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownView, s)
}
