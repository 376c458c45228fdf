package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "--config"}

	tests := []struct {
		name      string
		args      []string
		boolFlags []string
		want      []string
	}{
		{name: "separate value", args: []string{"-c", "conf.json", "-a", "x"}, want: []string{"-c", "conf.json"}},
		{name: "equals form", args: []string{"--config=alt.json", "-a", "x"}, want: []string{"--config=alt.json"}},
		{name: "order preserved", args: []string{"--config=1.json", "-c", "2.json"}, want: []string{"--config=1.json", "-c", "2.json"}},
		{name: "unknown ignored", args: []string{"-x", "1", "--y=2", "pos"}, want: []string{}},
		{name: "trailing flag without value", args: []string{"-c"}, want: []string{"-c"}},
		{name: "next arg is a flag", args: []string{"-c", "-other"}, want: []string{"-c"}},
		{name: "bool does not consume", args: []string{"-f", "pos", "-c", "a.json"}, boolFlags: []string{"-f"}, want: []string{"-f", "-c", "a.json"}},
		{name: "bool equals form", args: []string{"-f=false"}, boolFlags: []string{"-f"}, want: []string{"-f=false"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, allowed, tt.boolFlags...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"bin", "-d", "x.db", "-config", "uploader.json"}
	assert.Equal(t, "uploader.json", JsonConfigFlags())

	os.Args = []string{"bin", "-c=short.json"}
	assert.Equal(t, "short.json", JsonConfigFlags())

	os.Args = []string{"bin"}
	assert.Equal(t, "", JsonConfigFlags())
}
