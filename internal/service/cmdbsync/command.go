package cmdbsync

import (
	"context"
	"fmt"

	"github.com/oshokin/vessel-alarm/internal/cmdb"
	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/logger"
	"github.com/oshokin/vessel-alarm/internal/version"
)

// Options controls the sync.
type Options struct {
	// ConfigPath is the optional settings file holding the jira section.
	ConfigPath string
	// JQL overrides the default project query.
	JQL string
	// SkipCreate lists and updates without creating a new item.
	SkipCreate bool
}

// Labels tag items created by the sync.
var Labels = []string{"automation", "cmdb_sync"}

// store is the part of the CMDB client the sync needs.
type store interface {
	QueryItems(ctx context.Context, jql string) ([]cmdb.Item, error)
	UpdateItem(ctx context.Context, key string, fields map[string]any) error
	CreateItem(ctx context.Context, summary, description string, extra map[string]any) (string, error)
}

// Report is what one sync did.
type Report struct {
	Items   []cmdb.Item
	Updated string
	Created string
}

// Run connects to Jira and syncs the current build.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cmdb-sync")

	jira, err := config.LoadJira(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load jira settings: %w", err)
	}

	logger.InfoKV(ctx, "Querying CMDB items", "url", jira.URL, "project", jira.Project)

	_, err = Sync(ctx, cmdb.New(jira), opts)

	return err
}

// Sync lists the items, stamps the first one with the build and creates a
// baseline item for this version.
func Sync(ctx context.Context, client store, opts *Options) (*Report, error) {
	items, err := client.QueryItems(ctx, opts.JQL)
	if err != nil {
		return nil, err
	}

	report := &Report{Items: items}

	for _, item := range items {
		logger.Infof(ctx, "%s: %s (Status: %s)", item.Key, item.Summary, item.Status)
	}

	if len(items) > 0 {
		key := items[0].Key
		description := "Updated by cmdb-sync on deployment of " + version.Full()

		if err = client.UpdateItem(ctx, key, map[string]any{"description": description}); err != nil {
			return report, err
		}

		report.Updated = key

		logger.InfoKV(ctx, "CMDB item description updated", "key", key)
	}

	if opts.SkipCreate {
		return report, nil
	}

	summary := "Safety System Software v" + version.Short()
	description := fmt.Sprintf("Baseline configuration for Safety System Software version %s deployment", version.Short())

	key, err := client.CreateItem(ctx, summary, description, map[string]any{"labels": Labels})
	if err != nil {
		return report, err
	}

	report.Created = key

	logger.InfoKV(ctx, "CMDB item created", "key", key, "summary", summary)

	return report, nil
}
