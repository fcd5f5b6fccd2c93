package initialize

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

// DatabaseCredentialsManager handles retrieval and storage of the database
// password in the system keyring.
type DatabaseCredentialsManager struct {
	service string
	user    string
}

// NewDatabaseCredentialsManager creates a new database credentials manager.
func NewDatabaseCredentialsManager(service, user string) *DatabaseCredentialsManager {
	return &DatabaseCredentialsManager{service: service, user: user}
}

// GetDatabasePassword retrieves the database password from the keyring.
func (dcm *DatabaseCredentialsManager) GetDatabasePassword() (string, error) {
	password, err := keyring.Get(dcm.service, dcm.user)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve database password from keyring: %w", err)
	}
	return password, nil
}

// StoreDatabasePassword saves a working database password to the keyring so
// later runs can skip the prompt.
func (dcm *DatabaseCredentialsManager) StoreDatabasePassword(password string) error {
	if err := keyring.Set(dcm.service, dcm.user, password); err != nil {
		return fmt.Errorf("failed to store database password in keyring: %w", err)
	}
	return nil
}
