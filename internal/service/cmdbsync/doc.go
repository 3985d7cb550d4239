// Package cmdbsync implements cmdb-sync, which records the deployed build of
// the safety system software as configuration items in the Jira CMDB.
package cmdbsync
