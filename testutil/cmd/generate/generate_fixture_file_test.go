package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbnauticus/dibi-go/fixture"
)

func Test_WriteFixture_ShouldProduceAParsableFixture(t *testing.T) {
	// setup
	t.Setenv("ADAPTER_TYPE", "")
	t.Setenv("DIBI_MYSQL_HOST", "mysql.test")
	t.Setenv("DIBI_POSTGRES_PASSWORD", "secret")

	// act
	var out bytes.Buffer
	err := writeFixture(&out)

	// assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "# Connection scenarios for the conformance runner.\n")

	f, err := fixture.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Backends, f.Backends())

	sqlite := f.Scenarios("sqlite")
	require.Len(t, sqlite, 2)
	assert.Equal(t, fixture.OutcomeSuccess, sqlite[0].Expect)
	assert.Equal(t, ":memory:", sqlite[0].Parameters["path"])
	assert.Equal(t, fixture.OutcomeNoSuchDatabase, sqlite[1].Expect)
	assert.Equal(t, "", sqlite[1].Parameters["create"])

	mysql := f.Scenarios("mysql")
	require.Len(t, mysql, 4)
	assert.Equal(t, "mysql.test", mysql[0].Parameters["host"])
	assert.Equal(t, "mysql(authentication error)", mysql[1].Name())
	assert.Equal(t, fixture.OutcomeAuthentication, mysql[1].Expect)
	assert.Equal(t, "mysql.test", mysql[1].Parameters["host"], "variants inherit the base section")

	postgres := f.Scenarios("postgres")
	require.Len(t, postgres, 4)
	assert.Equal(t, "secret", postgres[0].Parameters["password"])
	assert.Equal(t, "1", postgres[3].Parameters["port"])
	assert.Equal(t, fixture.OutcomeConnection, postgres[3].Expect)
}
