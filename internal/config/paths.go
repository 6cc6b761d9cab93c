// Package config provides configuration loading and path management.
package config

import (
	"os"
	"path/filepath"
)

// Paths contains the standard on-disk locations for codecrew data.
type Paths struct {
	Root  string // ~/.codecrew
	Teams string // ~/.codecrew/teams
	Logs  string // ~/.codecrew/logs
}

// GetPaths returns the standard paths rooted at the user's home directory.
func GetPaths() *Paths {
	root := filepath.Join(homeDir(), ".codecrew")
	return &Paths{
		Root:  root,
		Teams: filepath.Join(root, "teams"),
		Logs:  filepath.Join(root, "logs"),
	}
}

// EnsurePaths creates all required directories.
func (p *Paths) EnsurePaths() error {
	for _, dir := range []string{p.Root, p.Teams, p.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ConfigPath returns the path to the global config file.
func (p *Paths) ConfigPath() string {
	return filepath.Join(p.Root, "config.json")
}

// TeamPath returns the path to a team record. The caller passes the
// filesystem-safe name, not the display name.
func (p *Paths) TeamPath(safeName string) string {
	return filepath.Join(p.Teams, safeName+".json")
}

// CommandsPath returns the directory of global chat command templates.
func (p *Paths) CommandsPath() string {
	return filepath.Join(p.Root, "commands")
}

// LogPath returns the default log file path.
func (p *Paths) LogPath() string {
	return filepath.Join(p.Logs, "codecrew.log")
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
