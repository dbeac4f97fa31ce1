package menu

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	defaultMainCaption    = "Выберите интересующий вас пункт"
	defaultAboutButton    = "❓Кто я"
	defaultServicesButton = "👨‍💻Услуги"
	defaultTrackedChats   = 1000
)

// Screen is the photo and HTML caption shown for a view.
type Screen struct {
	Image   string `yaml:"image"`
	Caption string `yaml:"caption"`
}

// Buttons holds the labels of the two screen buttons.
type Buttons struct {
	About    string `yaml:"about"`
	Services string `yaml:"services"`
}

// Link is a URL button shown under the screen buttons.
type Link struct {
	Text string `yaml:"text"`
	URL  string `yaml:"url"`
}

// Config is the static menu content.
type Config struct {
	// MediaDir prefixes relative image paths.
	MediaDir string  `yaml:"media_dir" envconfig:"MENU_MEDIA_DIR"`
	Main     Screen  `yaml:"main"`
	About    Screen  `yaml:"about"`
	Services Screen  `yaml:"services"`
	Buttons  Buttons `yaml:"buttons"`
	Links    []Link  `yaml:"links"`
	// TrackedChats bounds how many chats remember their current view.
	TrackedChats int `yaml:"tracked_chats"`
}

// Normalize fills defaults and validates the content.
func (c *Config) Normalize() error {
	if c == nil {
		return errors.New("menu: nil config")
	}
	if strings.TrimSpace(c.Main.Caption) == "" {
		c.Main.Caption = defaultMainCaption
	}
	if strings.TrimSpace(c.Buttons.About) == "" {
		c.Buttons.About = defaultAboutButton
	}
	if strings.TrimSpace(c.Buttons.Services) == "" {
		c.Buttons.Services = defaultServicesButton
	}
	if c.TrackedChats <= 0 {
		c.TrackedChats = defaultTrackedChats
	}

	for _, v := range Views {
		s := c.screen(v)
		if strings.TrimSpace(s.Image) == "" {
			return fmt.Errorf("menu.%s.image is required", v)
		}
		if c.MediaDir != "" && !filepath.IsAbs(s.Image) {
			s.Image = filepath.Join(c.MediaDir, s.Image)
		}
	}
	for i, l := range c.Links {
		if strings.TrimSpace(l.Text) == "" {
			return fmt.Errorf("menu.links[%d].text is required", i)
		}
		u, err := url.Parse(strings.TrimSpace(l.URL))
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "tg") {
			return fmt.Errorf("menu.links[%d].url %q must be an absolute http(s) or tg URL", i, l.URL)
		}
		c.Links[i].URL = u.String()
	}
	// MediaDir is folded into the image paths.
	c.MediaDir = ""
	return nil
}

// Screen returns the content for v.
func (c *Config) Screen(v View) (Screen, error) {
	s := c.screen(v)
	if s == nil {
		return Screen{}, fmt.Errorf("%w: %d", ErrUnknownView, int(v))
	}
	return *s, nil
}

func (c *Config) screen(v View) *Screen {
	switch v {
	case MainMenu:
		return &c.Main
	case About:
		return &c.About
	case Services:
		return &c.Services
	}
	return nil
}
