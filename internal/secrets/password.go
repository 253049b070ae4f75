package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups this tool's secrets in the OS keychain.
	KeyringService = "leadsync"
)

// TargetAccount derives the keychain account name for a target-store DSN,
// e.g. "target:analytics@db.internal:5432".
func TargetAccount(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if u.User == nil || u.User.Username() == "" {
		return "", errors.New("target DSN has no user to look up a password for")
	}
	return fmt.Sprintf("target:%s@%s", u.User.Username(), u.Host), nil
}

func GetTargetPassword(account string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", errors.New("target password not found (set it in keychain or embed it in the DSN)")
}

func SetTargetPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteTargetPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// ResolveDSNPassword injects a keychain password into a DSN that omits one.
// A DSN that already carries a password (or is not URL-shaped) passes
// through untouched.
func ResolveDSNPassword(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, has := u.User.Password(); has {
		return dsn
	}
	account, err := TargetAccount(dsn)
	if err != nil {
		return dsn
	}
	pw, err := GetTargetPassword(account)
	if err != nil {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), pw)
	return u.String()
}
