package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffset(t *testing.T) {
	t.Parallel()

	source := "var x = 1;\nvar é = x.\n"

	tests := []struct {
		name    string
		arg     string
		want    int
		wantErr bool
	}{
		{name: "byte offset", arg: "13", want: 13},
		{name: "first line", arg: "1:5", want: 4},
		{name: "second line", arg: "2:1", want: 11},
		{name: "after multibyte", arg: "2:7", want: 18},
		{name: "end of line", arg: "2:11", want: 22},
		{name: "past end of line", arg: "2:12", wantErr: true},
		{name: "past end of file", arg: "9:1", wantErr: true},
		{name: "zero line", arg: "0:1", wantErr: true},
		{name: "garbage", arg: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseOffset(source, tt.arg)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig_Default(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("", t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.IsScript("main.kls"))
	assert.False(t, cfg.IsScript("Main.kal"))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	_, err := newLogger("debug")
	require.NoError(t, err)

	_, err = newLogger("loud")
	assert.Error(t, err)
}
