package platform

type Reddit struct{}

func init() {
	Register(&Reddit{})
}

func (p *Reddit) GetName() string {
	return "reddit"
}

func (p *Reddit) GetMaxDimensions() (width, height int) {
	return 1920, 1080
}

func (p *Reddit) GetMaxDuration() int {
	return 900
}

func (p *Reddit) GetVideoCodec() string {
	return "libx264"
}

func (p *Reddit) GetAudioCodec() string {
	return "aac"
}

func (p *Reddit) GetPreset() string {
	return "fast"
}

func (p *Reddit) GetCRF() int {
	return 21
}

func (p *Reddit) GetFPS() int {
	return 30
}

func (p *Reddit) GetAudioBitrate() string {
	return "192k"
}

func (p *Reddit) GetOutputFormat() string {
	return "mp4"
}
