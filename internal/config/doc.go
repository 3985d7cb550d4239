// Package config defines the settings shared by the vessel-alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Jira credentials for the CMDB sync may also come from the environment
// (JIRA_URL, JIRA_USER, JIRA_TOKEN, CMDB_PROJECT, CMDB_ISSUE_TYPE).
package config
