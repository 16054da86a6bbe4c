// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"encoding/json"
	"fmt"

	"github.com/toeirei/wp-deploy/internal/logging"
	"github.com/toeirei/wp-deploy/internal/model"
	"github.com/toeirei/wp-deploy/internal/security"
)

// ExportSite serializes a site and its keyring credentials into the JSON
// transfer envelope. Missing credentials are omitted rather than treated as
// errors: an export without a stored password is still useful.
func (d Deps) ExportSite(siteID string) ([]byte, error) {
	site, err := d.Store.Site(siteID)
	if err != nil {
		return nil, err
	}

	export := model.SiteExport{
		Version:    model.ExportVersion,
		ExportType: model.ExportType,
		Site:       site,
	}
	if pw, err := d.Secrets.SSHPassword(site.ID); err == nil {
		export.Credentials.SSH = pw.Reveal()
	}
	if pw, err := d.Secrets.DBPassword(site.ID, security.DBLocal); err == nil {
		export.Credentials.DBLocal = pw.Reveal()
	}
	if pw, err := d.Secrets.DBPassword(site.ID, security.DBRemote); err == nil {
		export.Credentials.DBRemote = pw.Reveal()
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal site export: %w", err)
	}
	logging.Infof("exported site %s (%s)", site.Name, site.ID)
	return data, nil
}

// ImportSite reads a transfer envelope and registers the site under a fresh
// ID with cleared sync tracking, so the import never claims another
// machine's push history. Credentials present in the envelope are stored in
// the keyring under the new ID.
func (d Deps) ImportSite(data []byte) (model.Site, error) {
	var export model.SiteExport
	if err := json.Unmarshal(data, &export); err != nil {
		return model.Site{}, fmt.Errorf("parse site export: %w", err)
	}
	if export.ExportType != model.ExportType {
		return model.Site{}, fmt.Errorf("not a site export (type %q)", export.ExportType)
	}
	if export.Version > model.ExportVersion {
		return model.Site{}, fmt.Errorf("site export version %d is newer than supported version %d",
			export.Version, model.ExportVersion)
	}

	site := export.Site
	site.ID = d.NewID()
	site.LastPushedCommit = ""
	site.CreatedAt = ""
	site.UpdatedAt = ""
	if err := d.Store.AddSite(site); err != nil {
		return model.Site{}, err
	}

	creds := export.Credentials
	if creds.SSH != "" {
		if err := d.Secrets.SetSSHPassword(site.ID, security.Secret(creds.SSH)); err != nil {
			logging.Warnf("import %s: store ssh password: %v", site.Name, err)
		}
	}
	if creds.DBLocal != "" {
		if err := d.Secrets.SetDBPassword(site.ID, security.DBLocal, security.Secret(creds.DBLocal)); err != nil {
			logging.Warnf("import %s: store local db password: %v", site.Name, err)
		}
	}
	if creds.DBRemote != "" {
		if err := d.Secrets.SetDBPassword(site.ID, security.DBRemote, security.Secret(creds.DBRemote)); err != nil {
			logging.Warnf("import %s: store remote db password: %v", site.Name, err)
		}
	}

	logging.Infof("imported site %s as %s", site.Name, site.ID)
	return site, nil
}
