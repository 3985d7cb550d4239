package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
)

// Jira holds connection settings for the Jira-backed CMDB.
type Jira struct {
	// URL is the base URL of the Jira instance.
	URL string `yaml:"url"`
	// User is the account e-mail used for basic auth.
	User string `yaml:"user"`
	// Token is the API token or password.
	Token string `yaml:"token"`
	// Project is the key of the CMDB project.
	Project string `yaml:"project"`
	// IssueType is the issue type of configuration items.
	IssueType string `yaml:"issue_type"`
}

const (
	// DefaultJiraURL mirrors the placeholder used when nothing is configured.
	DefaultJiraURL = "https://your-jira-instance.atlassian.net"
	// DefaultCMDBProject is the default project key holding configuration items.
	DefaultCMDBProject = "CMDB"
	// DefaultCMDBIssueType is the default issue type of configuration items.
	DefaultCMDBIssueType = "Configuration Item"
)

// Environment variables overriding the Jira section.
const (
	envJiraURL       = "JIRA_URL"
	envJiraUser      = "JIRA_USER"
	envJiraToken     = "JIRA_TOKEN"
	envCMDBProject   = "CMDB_PROJECT"
	envCMDBIssueType = "CMDB_ISSUE_TYPE"
)

var errJiraCredentials = errors.New("jira user and token must be provided")

// LoadJira reads the Jira section from the optional settings file at path,
// then applies environment overrides and defaults. A missing file is not an error.
func LoadJira(path string) (*Jira, error) {
	var jira Jira

	cfg, err := read(path)

	switch {
	case err == nil:
		jira = cfg.Jira
	case errors.Is(err, os.ErrNotExist):
		// Environment only.
	default:
		return nil, err
	}

	jira.applyEnv(os.LookupEnv)

	if err := jira.Validate(); err != nil {
		return nil, err
	}

	return &jira, nil
}

// Validate fills defaults and checks the URL and credentials.
func (j *Jira) Validate() error {
	if j.URL == "" {
		j.URL = DefaultJiraURL
	}

	if j.Project == "" {
		j.Project = DefaultCMDBProject
	}

	if j.IssueType == "" {
		j.IssueType = DefaultCMDBIssueType
	}

	if _, err := url.ParseRequestURI(j.URL); err != nil {
		return fmt.Errorf("invalid jira url: %w", err)
	}

	if j.User == "" || j.Token == "" {
		return errJiraCredentials
	}

	return nil
}

func (j *Jira) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key   string
		field *string
	}{
		{envJiraURL, &j.URL},
		{envJiraUser, &j.User},
		{envJiraToken, &j.Token},
		{envCMDBProject, &j.Project},
		{envCMDBIssueType, &j.IssueType},
	}

	for _, o := range overrides {
		if value, ok := lookup(o.key); ok && value != "" {
			*o.field = value
		}
	}
}
