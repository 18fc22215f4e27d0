/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		" DEBUG ": logrus.DebugLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNewLoggerIsRegistered(t *testing.T) {
	l := NewLogger("UTILS_TEST")
	assert.Same(t, l, NewLogger("UTILS_TEST"))
	assert.True(t, SetLoggerLevel("UTILS_TEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("NOT_REGISTERED", "debug"))
}

func TestTextFormatter(t *testing.T) {
	l := logrus.New()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetFormatter(&TextFormatter{Name: "DATABASE", NameWidth: 4})
	l.WithField("table", "users").Info("created")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "[DATA]")
	assert.Contains(t, out, ": created table=users")
}

func TestJSONFormatter(t *testing.T) {
	l := logrus.New()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetFormatter(&JSONFormatter{Name: "DATABASE"})
	l.WithField("rows", 3).Warn("slow")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warning", rec["level"])
	assert.Equal(t, "DATABASE", rec["logger"])
	assert.Equal(t, "slow", rec["message"])
	assert.EqualValues(t, 3, rec["fields"].(map[string]interface{})["rows"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("REPOSIT_UTILS_STR", "value")
	t.Setenv("REPOSIT_UTILS_BOOL", "true")
	assert.Equal(t, "value", EnvDefaultString("REPOSIT_UTILS_STR", "def"))
	assert.Equal(t, "def", EnvDefaultString("REPOSIT_UTILS_MISSING", "def"))
	assert.True(t, EnvDefaultBool("REPOSIT_UTILS_BOOL", false))
	assert.True(t, EnvDefaultBool("REPOSIT_UTILS_MISSING", true))
}
