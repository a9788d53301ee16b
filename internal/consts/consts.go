package consts

const (
	ChatCompletionsPath = "chat/completions"
	DataURLPrefix       = "data:image/"
)

type Modality string

const (
	ModalityImage Modality = "image"
	ModalityText  Modality = "text"
)

func (m Modality) String() string {
	return string(m)
}

type ImageKind string

const (
	ImageKindGenerate ImageKind = "generate"
	ImageKindEdit     ImageKind = "edit"
)

func (k ImageKind) String() string {
	return string(k)
}

const (
	ContentTypeText     = "text"
	ContentTypeImageURL = "image_url"
	ContentTypeImage    = "image"
)
