// Package links builds the deep links sideloading clients register to add a
// source or install a build. Providers register themselves by name; import
// github.com/git-pkgs/altsource/all to load the bundled ones.
package links

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
)

// ErrUnknownProvider is returned by New for names nothing registered.
var ErrUnknownProvider = errors.New("unknown link provider")

// Builder constructs deep links for one client app.
type Builder interface {
	// Name is the provider name, e.g. "altstore".
	Name() string

	// AddSource returns the link that adds the source hosted at sourceURL.
	AddSource(sourceURL string) string

	// Install returns the link that installs the build at downloadURL, or
	// "" when the client has no install link.
	Install(downloadURL string) string
}

// SchemeLinks is a Builder for clients using "<scheme>://<action>?url=" links.
type SchemeLinks struct {
	Provider      string
	Scheme        string
	SourceAction  string
	InstallAction string
}

func (s *SchemeLinks) Name() string {
	return s.Provider
}

func (s *SchemeLinks) AddSource(sourceURL string) string {
	if sourceURL == "" || s.SourceAction == "" {
		return ""
	}
	return s.link(s.SourceAction, sourceURL)
}

func (s *SchemeLinks) Install(downloadURL string) string {
	if downloadURL == "" || s.InstallAction == "" {
		return ""
	}
	return s.link(s.InstallAction, downloadURL)
}

func (s *SchemeLinks) link(action, target string) string {
	return fmt.Sprintf("%s://%s?url=%s", s.Scheme, action, url.QueryEscape(target))
}

// Factory creates a provider's Builder.
type Factory func() Builder

var (
	factories = make(map[string]Factory)
	mu        sync.RWMutex
)

// Register adds a provider. Registering a name twice replaces the factory.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// New returns the Builder for a provider.
func New(name string) (Builder, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return factory(), nil
}

// Supported returns the registered provider names, sorted.
func Supported() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BuildLinks returns the add-source link of every registered provider,
// keyed by provider name.
func BuildLinks(sourceURL string) map[string]string {
	result := make(map[string]string)
	for _, name := range Supported() {
		b, err := New(name)
		if err != nil {
			continue
		}
		if v := b.AddSource(sourceURL); v != "" {
			result[name] = v
		}
	}
	return result
}

// InstallLink returns provider's install link for downloadURL.
func InstallLink(provider, downloadURL string) (string, error) {
	b, err := New(provider)
	if err != nil {
		return "", err
	}
	link := b.Install(downloadURL)
	if link == "" {
		return "", fmt.Errorf("%s has no install link for %q", provider, downloadURL)
	}
	return link, nil
}
