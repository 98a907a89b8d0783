package dbclient

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKustoOptionValidate(t *testing.T) {

	t.Run("require credentials", func(t *testing.T) {
		o := &KustoOption{}
		assert.Error(t, o.Validate(), tenantIDKey)

		os.Setenv(tenantIDKey, "tenant-id")
		assert.Error(t, o.Validate(), clientIDKey)
		assert.Equal(t, "tenant-id", o.tenantID)

		os.Setenv(clientIDKey, "client-id")
		assert.Error(t, o.Validate(), clientSecretKey)
		assert.Equal(t, "client-id", o.clientID)

		os.Setenv(clientSecretKey, "client-secret")
		assert.Error(t, o.Validate(), "endpoint")
		assert.Equal(t, "client-secret", o.clientSecret)

		o.Endpoint = "fake.kusto.windows.net"
		assert.Error(t, o.Validate(), "database")

		o.Database = "database"
		assert.Error(t, o.Validate(), "event")

		o.Event = "coverage-event"
		assert.NoError(t, o.Validate())

		o.CustomColumns = []string{": :"}
		assert.Error(t, o.Validate(), "wrong custom column")

		o.CustomColumns = []string{"newColumn:string:foo"}
		assert.NoError(t, o.Validate())
		assert.Equal(t, "foo", o.extraData["newColumn"])
	})
}
