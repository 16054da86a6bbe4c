// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keyring service names. SSH passwords are keyed by "site-{id}" under
// ServiceSSH; database passwords by "{id}_local" / "{id}_remote" under
// ServiceDB.
const (
	ServiceSSH = "wp-deploy"
	ServiceDB  = "wp-deploy-db"
)

// Database sides for DB password lookups.
const (
	DBLocal  = "local"
	DBRemote = "remote"
)

// SecretStore is the credential interface the sync pipelines depend on.
// The default implementation is the OS keyring; tests substitute a map.
type SecretStore interface {
	SSHPassword(siteID string) (Secret, error)
	SetSSHPassword(siteID string, password Secret) error
	DeleteSSHPassword(siteID string) error
	DBPassword(siteID, side string) (Secret, error)
	SetDBPassword(siteID, side string, password Secret) error
	DeleteDBPassword(siteID, side string) error
}

// Keyring is the OS credential store pass-through.
type Keyring struct{}

var _ SecretStore = Keyring{}

func sshAccount(siteID string) string      { return "site-" + siteID }
func dbAccount(siteID, side string) string { return siteID + "_" + side }

// SSHPassword retrieves a site's SSH password from the OS keyring.
func (Keyring) SSHPassword(siteID string) (Secret, error) {
	pw, err := keyring.Get(ServiceSSH, sshAccount(siteID))
	if err != nil {
		return nil, fmt.Errorf("get ssh password for site %s: %w", siteID, err)
	}
	return Secret(pw), nil
}

// SetSSHPassword stores a site's SSH password in the OS keyring.
func (Keyring) SetSSHPassword(siteID string, password Secret) error {
	if err := keyring.Set(ServiceSSH, sshAccount(siteID), password.Reveal()); err != nil {
		return fmt.Errorf("store ssh password for site %s: %w", siteID, err)
	}
	return nil
}

// DeleteSSHPassword removes a site's SSH password. A missing entry is not
// an error; delete is best effort during site removal.
func (Keyring) DeleteSSHPassword(siteID string) error {
	err := keyring.Delete(ServiceSSH, sshAccount(siteID))
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}

// DBPassword retrieves a database password for the given side ("local" or
// "remote").
func (Keyring) DBPassword(siteID, side string) (Secret, error) {
	pw, err := keyring.Get(ServiceDB, dbAccount(siteID, side))
	if err != nil {
		return nil, fmt.Errorf("get %s db password for site %s: %w", side, siteID, err)
	}
	return Secret(pw), nil
}

// SetDBPassword stores a database password for the given side.
func (Keyring) SetDBPassword(siteID, side string, password Secret) error {
	if err := keyring.Set(ServiceDB, dbAccount(siteID, side), password.Reveal()); err != nil {
		return fmt.Errorf("store %s db password for site %s: %w", side, siteID, err)
	}
	return nil
}

// DeleteDBPassword removes a database password. Missing entries are ignored.
func (Keyring) DeleteDBPassword(siteID, side string) error {
	err := keyring.Delete(ServiceDB, dbAccount(siteID, side))
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}
