// Package sidestore registers deep links for the SideStore client.
package sidestore

import "github.com/git-pkgs/altsource/links"

const Name = "sidestore"

func init() {
	links.Register(Name, New)
}

// New returns SideStore's link builder.
func New() links.Builder {
	return &links.SchemeLinks{
		Provider:      Name,
		Scheme:        "sidestore",
		SourceAction:  "source",
		InstallAction: "install",
	}
}
