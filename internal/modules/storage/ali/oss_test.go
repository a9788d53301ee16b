package ali

import (
	"strings"
	"testing"

	"github.com/reusedev/chat-image/config"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	InitOSS(config.AliOss{
		Endpoint:  "oss-cn-hangzhou.aliyuncs.com",
		Region:    "cn-hangzhou",
		Bucket:    "chat-image",
		Directory: "outputs/",
	})
	require.NotNil(t, OssClient)

	name := OssClient.imageName([]byte("GIF89a\x01\x00\x01\x00"))
	require.True(t, strings.HasSuffix(name, ".gif"), name)
	require.Equal(t, "outputs/"+name, OssClient.fullPath(name))
}
