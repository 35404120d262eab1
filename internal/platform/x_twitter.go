package platform

type XTwitter struct{}

func init() {
	Register(&XTwitter{})
}

func (p *XTwitter) GetName() string {
	return "x_twitter"
}

func (p *XTwitter) GetMaxDimensions() (width, height int) {
	return 1920, 1200
}

func (p *XTwitter) GetMaxDuration() int {
	return 140
}

func (p *XTwitter) GetVideoCodec() string {
	return "libx264"
}

func (p *XTwitter) GetAudioCodec() string {
	return "aac"
}

func (p *XTwitter) GetPreset() string {
	return "fast"
}

func (p *XTwitter) GetCRF() int {
	return 23
}

func (p *XTwitter) GetFPS() int {
	return 30
}

func (p *XTwitter) GetAudioBitrate() string {
	return "128k"
}

func (p *XTwitter) GetOutputFormat() string {
	return "mp4"
}
