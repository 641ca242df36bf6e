// Package config reads the python-gitlab configuration file that this tool
// shares with the python-gitlab CLI, so one set of credentials serves both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// SetupDocsURL is printed when the config file is missing or broken.
const SetupDocsURL = "https://python-gitlab.readthedocs.io/en/stable/cli-usage.html"

// ErrNoConfigFile means no configuration file exists at any known location.
var ErrNoConfigFile = errors.New("no python-gitlab configuration file found")

// Config is one resolved connection section.
type Config struct {
	Section    string
	URL        string
	Token      string
	SSLVerify  bool
	Timeout    time.Duration
	APIVersion string
}

// Locate returns the first existing config file among $PYTHON_GITLAB_CFG,
// ~/.python-gitlab.cfg and /etc/python-gitlab.cfg.
func Locate() (string, error) {
	var candidates []string
	if env := os.Getenv("PYTHON_GITLAB_CFG"); env != "" {
		candidates = append(candidates, env)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".python-gitlab.cfg"))
	}
	candidates = append(candidates, "/etc/python-gitlab.cfg")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			log.WithField("path", path).Debug("Using configuration file")
			return path, nil
		}
	}
	return "", ErrNoConfigFile
}

// Load reads the section named by gitlabID from the config file at path. An
// empty gitlabID selects the section that [global] names as default.
func Load(path, gitlabID string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	section := gitlabID
	if section == "" {
		global, err := file.GetSection("global")
		if err != nil {
			return nil, fmt.Errorf("%s: no [global] section and no --gitlab section given", path)
		}
		section = global.Key("default").String()
		if section == "" {
			return nil, fmt.Errorf("%s: [global] has no default section", path)
		}
	}

	sec, err := file.GetSection(section)
	if err != nil {
		return nil, fmt.Errorf("%s: no [%s] section", path, section)
	}

	url := sec.Key("url").String()
	if url == "" {
		return nil, fmt.Errorf("%s: section [%s] has no url", path, section)
	}

	cfg := &Config{
		Section:    section,
		URL:        url,
		Token:      sec.Key("private_token").String(),
		SSLVerify:  sec.Key("ssl_verify").MustBool(true),
		Timeout:    time.Duration(sec.Key("timeout").MustInt(60)) * time.Second,
		APIVersion: sec.Key("api_version").MustString("4"),
	}
	return cfg, nil
}
