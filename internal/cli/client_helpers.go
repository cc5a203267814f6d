package cli

import (
	"fmt"

	"remix-console/internal/api"
	"remix-console/internal/logx"
	"remix-console/internal/settings"
)

// newClient builds the backend client for one command invocation. The
// base URL resolves from the --url flag, then $REMIX_CONSOLE_URL, then
// stored settings, then the localhost default.
func newClient(override string) *api.Client {
	stored, err := settings.Read("")
	if err != nil {
		stored = settings.Settings{}
	}
	return api.New(api.Options{
		BaseURL: settings.ResolveBackendURL(override, stored),
		Logger:  logx.New(),
	})
}

// describeBackendError adds a start-the-backend hint to connection
// failures; every other error passes through untouched.
func describeBackendError(client *api.Client, err error) error {
	if err == nil {
		return nil
	}
	if api.IsUnavailable(err) {
		return fmt.Errorf("%w\nis the backend running at %s? start it with: python web/server.py", err, client.BaseURL())
	}
	return err
}
