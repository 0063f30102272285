package platform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeRunner simulates tool presence and canned command results.
type fakeRunner struct {
	tools   map[string]bool
	out     map[string]string
	failAll bool
}

func (f fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if f.failAll {
		return "", errors.New("exec format error")
	}
	if v, ok := f.out[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (f fakeRunner) LookPath(name string) bool {
	return f.tools[name]
}

func TestClassifyNativeIdentifiers(t *testing.T) {
	tests := []struct {
		goos string
		want Kind
	}{
		{"linux", Linux},
		{"darwin", Darwin},
		{"windows", Windows},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			got := classify(context.Background(), tt.goos, fakeRunner{failAll: true})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyManagementShellProbe(t *testing.T) {
	r := fakeRunner{tools: map[string]bool{"powershell": true}, failAll: true}
	assert.Equal(t, Windows, classify(context.Background(), "freebsd", r))
}

func TestClassifyManagementQueryFallback(t *testing.T) {
	r := fakeRunner{out: map[string]string{"powershell": "Microsoft Windows Server"}}
	assert.Equal(t, Windows, classify(context.Background(), "js", r))
}

func TestClassifyUnknownNeverFails(t *testing.T) {
	assert.Equal(t, Unknown, classify(context.Background(), "plan9", fakeRunner{failAll: true}))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "linux", Linux.String())
	assert.Equal(t, "unknown", Unknown.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
