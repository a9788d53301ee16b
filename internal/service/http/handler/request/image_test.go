package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEditImageValid(t *testing.T) {
	require.Error(t, (&EditImage{Prompt: "x"}).Valid())
	require.Error(t, (&EditImage{Prompt: "x", URLs: []string{"ftp://a"}}).Valid())
	require.Error(t, (&EditImage{URLs: []string{"https://a"}}).Valid())
	require.NoError(t, (&EditImage{Prompt: "x", URLs: []string{"https://a/b.png"}}).Valid())
}

func TestGenerateImageValid(t *testing.T) {
	require.Error(t, (&GenerateImage{}).Valid())
	require.Error(t, (&GenerateImage{Prompt: strings.Repeat("a", maxPromptLength+1)}).Valid())
	require.NoError(t, (&GenerateImage{Prompt: "a red fox"}).Valid())
}

func TestGetImage(t *testing.T) {
	require.Error(t, (&GetImage{}).Valid())
	g := &GetImage{ID: 12}
	require.NoError(t, g.Valid())
	require.Equal(t, "image_get_12", g.CacheKey())
}
