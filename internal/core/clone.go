package core

import (
	"encoding/json"
	"maps"
	"slices"
)

// Clone returns a deep copy of s.
func (s Source) Clone() Source {
	out := s
	out.FeaturedApps = slices.Clone(s.FeaturedApps)
	if s.Apps != nil {
		out.Apps = make([]App, len(s.Apps))
		for i, app := range s.Apps {
			out.Apps[i] = app.Clone()
		}
	}
	if s.News != nil {
		out.News = make([]NewsItem, len(s.News))
		for i, item := range s.News {
			out.News[i] = item.Clone()
		}
	}
	out.Extra = cloneExtra(s.Extra)
	return out
}

// Clone returns a deep copy of a.
func (a App) Clone() App {
	out := a
	if a.Screenshots != nil {
		shots := a.Screenshots.Clone()
		out.Screenshots = &shots
	}
	if a.Versions != nil {
		out.Versions = make([]AppVersion, len(a.Versions))
		for i, v := range a.Versions {
			out.Versions[i] = v.Clone()
		}
	}
	if a.AppPermissions != nil {
		perms := a.AppPermissions.Clone()
		out.AppPermissions = &perms
	}
	out.Extra = cloneExtra(a.Extra)
	return out
}

// Clone returns a deep copy of v.
func (v AppVersion) Clone() AppVersion {
	out := v
	out.Extra = cloneExtra(v.Extra)
	return out
}

// Clone returns a deep copy of s.
func (s Screenshot) Clone() Screenshot {
	out := s
	if s.Width != nil {
		w := *s.Width
		out.Width = &w
	}
	if s.Height != nil {
		h := *s.Height
		out.Height = &h
	}
	return out
}

// Clone returns a deep copy of s.
func (s Screenshots) Clone() Screenshots {
	out := Screenshots{Images: cloneScreenshots(s.Images)}
	if s.Devices != nil {
		out.Devices = &DeviceScreenshots{
			IPhone: cloneScreenshots(s.Devices.IPhone),
			IPad:   cloneScreenshots(s.Devices.IPad),
		}
	}
	return out
}

// Clone returns a deep copy of p.
func (p AppPermissions) Clone() AppPermissions {
	return AppPermissions{
		Entitlements: slices.Clone(p.Entitlements),
		Privacy:      maps.Clone(p.Privacy),
	}
}

// Clone returns a deep copy of n.
func (n NewsItem) Clone() NewsItem {
	out := n
	if n.Notify != nil {
		notify := *n.Notify
		out.Notify = &notify
	}
	out.Extra = cloneExtra(n.Extra)
	return out
}

func cloneScreenshots(in []Screenshot) []Screenshot {
	if in == nil {
		return nil
	}
	out := make([]Screenshot, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func cloneExtra(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}
