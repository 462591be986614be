// Package guard decides, per navigation, whether the current session may
// render a path. Evaluate is a pure function of (path, session) and must be
// re-run on every navigation and on every session change.
package guard

import (
	"strings"

	"github.com/samuelorobosa/jci-conf-client/internal/session"
)

type Action string

const (
	ActionRender   Action = "render"
	ActionLoading  Action = "loading"
	ActionRedirect Action = "redirect"
)

type Decision struct {
	Action   Action `json:"action"`
	Path     string `json:"path"`
	Redirect string `json:"redirect,omitempty"`
}

// Routes names the paths the guard reasons about.
type Routes struct {
	LoginPath   string
	LandingPath string
	Protected   []string
}

// DefaultRoutes mirrors the dashboard's route table.
func DefaultRoutes() Routes {
	return Routes{
		LoginPath:   "/login",
		LandingPath: "/delegates",
		Protected: []string{
			"/delegates",
			"/trainings",
			"/banquet",
			"/qr",
			"/admins",
		},
	}
}

func (r Routes) isProtected(path string) bool {
	for _, prefix := range r.Protected {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (r Routes) isKnown(path string) bool {
	return path == "/" || path == r.LoginPath || r.isProtected(path)
}

// Evaluate applies the guard rules in order: a loading session renders a
// neutral placeholder with no redirect; protected paths require an
// authenticated session; the login path bounces authenticated sessions to
// the landing path; unknown paths redirect to the root, which itself
// resolves by auth state.
func Evaluate(routes Routes, path string, snapshot session.Snapshot) Decision {
	path = normalize(path)

	if snapshot.IsLoading {
		return Decision{Action: ActionLoading, Path: path}
	}
	if !routes.isKnown(path) {
		return Decision{Action: ActionRedirect, Path: path, Redirect: "/"}
	}
	if path == "/" {
		if snapshot.IsAuthenticated {
			return Decision{Action: ActionRedirect, Path: path, Redirect: routes.LandingPath}
		}
		return Decision{Action: ActionRedirect, Path: path, Redirect: routes.LoginPath}
	}
	if path == routes.LoginPath {
		if snapshot.IsAuthenticated {
			return Decision{Action: ActionRedirect, Path: path, Redirect: routes.LandingPath}
		}
		return Decision{Action: ActionRender, Path: path}
	}
	if !snapshot.IsAuthenticated {
		return Decision{Action: ActionRedirect, Path: path, Redirect: routes.LoginPath}
	}
	return Decision{Action: ActionRender, Path: path}
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
