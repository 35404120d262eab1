package platform

// Default is a quick, small libx264 encode that keeps the source frame size.
type Default struct{}

func init() {
	Register(&Default{})
}

func (p *Default) GetName() string {
	return "default"
}

func (p *Default) GetMaxDimensions() (width, height int) {
	return 0, 0 // keep source size
}

func (p *Default) GetMaxDuration() int {
	return 0 // unlimited
}

func (p *Default) GetVideoCodec() string {
	return "libx264"
}

func (p *Default) GetAudioCodec() string {
	return "aac"
}

func (p *Default) GetPreset() string {
	return "superfast"
}

func (p *Default) GetCRF() int {
	return 30
}

func (p *Default) GetFPS() int {
	return 30
}

func (p *Default) GetAudioBitrate() string {
	return "192k"
}

func (p *Default) GetOutputFormat() string {
	return "mp4"
}
