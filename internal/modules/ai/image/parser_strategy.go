package image

type DataURLParseStrategy interface {
	ExtractDataURL(body []byte) (DataURL, error)
}

// ChatDataURLStrategy reads chat completion bodies, both the providerResponse
// wrapped form and the plain one.
type ChatDataURLStrategy struct{}

func (c *ChatDataURLStrategy) ExtractDataURL(body []byte) (DataURL, error) {
	return ExtractImageFromBody(body)
}
