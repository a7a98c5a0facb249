package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Setup_ShouldInstallTextOrJSONHandlers(t *testing.T) {
	var text, json bytes.Buffer

	Setup(false, false, &text).Debug("hidden")
	Logger.Info("scenario finished", "status", "success")

	Setup(true, true, &json).Debug("check passed", "check", "create_table")

	assert.NotContains(t, text.String(), "hidden")
	assert.Contains(t, text.String(), "msg=\"scenario finished\" status=success")
	assert.Contains(t, json.String(), `"msg":"check passed","check":"create_table"`)
}
