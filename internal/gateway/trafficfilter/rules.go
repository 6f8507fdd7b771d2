package trafficfilter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// blockedUserAgents holds signatures of SEO crawlers, scrapers and
// vulnerability scanners that bring no legitimate traffic. Matching is
// case-insensitive substring.
var blockedUserAgents = []string{
	"semrushbot",
	"ahrefsbot",
	"mj12bot",
	"dotbot",
	"blexbot",
	"petalbot",
	"serpstatbot",
	"dataforseobot",
	"megaindex",
	"zoominfobot",
	"python-requests",
	"go-http-client",
	"scrapy",
	"masscan",
	"nikto",
	"sqlmap",
	"zgrab",
}

// blockedPaths holds probe-path fragments: admin panels for software we do
// not run, dotfiles and build or dependency manifests. None of these exist
// here, so any request for them is reconnaissance.
var blockedPaths = []string{
	"/wp-admin",
	"/wp-login",
	"/wp-content",
	"/xmlrpc.php",
	"/phpmyadmin",
	"/admin.php",
	"/config.php",
	"/.env",
	"/.git",
	"/.htaccess",
	"/.aws",
	"/.DS_Store",
	"/composer.json",
	"/package-lock.json",
	"/vendor/phpunit",
	"/actuator",
	"/cgi-bin",
	"/etc/passwd",
}

// Rules holds operator-supplied additions to the built-in blocklists.
type Rules struct {
	BlockedUserAgents []string `yaml:"blocked_user_agents"`
	BlockedPaths      []string `yaml:"blocked_paths"`
}

// LoadRules reads extra rules from a YAML file. An empty path returns empty
// rules, so the filter falls back to built-ins alone.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return Rules{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("trafficfilter: read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("trafficfilter: parse rules file: %w", err)
	}
	return rules, nil
}
