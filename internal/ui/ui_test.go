package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRendererForcePlainReturnsPlainRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(Config{Output: &buf, ForcePlain: true})
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewRendererNonTTYReturnsPlainRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(Config{Output: &buf})
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestIsTTYFalseForNonFileWriter(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTTY(&buf))
}

func TestIsTTYFalseForNilWriter(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestDetectCIReadsEnv(t *testing.T) {
	os.Unsetenv("CI")
	os.Unsetenv("GITHUB_ACTIONS")
	os.Unsetenv("GITLAB_CI")
	os.Unsetenv("JENKINS_URL")
	os.Unsetenv("TRAVIS")
	assert.False(t, DetectCI())

	os.Setenv("CI", "true")
	defer os.Unsetenv("CI")
	assert.True(t, DetectCI())
}

func TestDetectNoColorReadsEnv(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	assert.False(t, DetectNoColor())

	os.Setenv("NO_COLOR", "1")
	defer os.Unsetenv("NO_COLOR")
	assert.True(t, DetectNoColor())
}

func TestStageIconAndStringCoverAllStages(t *testing.T) {
	stages := []Stage{StageExtract, StageNormalize, StageChunk, StageEmbed, StagePersist, StageComplete}
	for _, s := range stages {
		assert.NotEmpty(t, s.String())
		assert.NotEmpty(t, s.Icon())
	}
	assert.Equal(t, "Unknown", Stage(99).String())
	assert.Equal(t, "???", Stage(99).Icon())
}
