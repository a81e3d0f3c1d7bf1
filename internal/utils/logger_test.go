package utils

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug", "text").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("nonsense", "text").GetLevel())
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "info", "json")

	log.WithField("manga_id", 7).Info("Updated manga")

	assert.Contains(t, buf.String(), `"manga_id":7`)
	assert.Contains(t, buf.String(), `"msg":"Updated manga"`)
}
