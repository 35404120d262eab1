package platform

type Instagram struct{}

func init() {
	Register(&Instagram{})
}

func (p *Instagram) GetName() string {
	return "instagram_reel"
}

func (p *Instagram) GetMaxDimensions() (width, height int) {
	return 1080, 1920
}

func (p *Instagram) GetMaxDuration() int {
	return 90
}

func (p *Instagram) GetVideoCodec() string {
	return "libx264"
}

func (p *Instagram) GetAudioCodec() string {
	return "aac"
}

func (p *Instagram) GetPreset() string {
	return "veryfast"
}

func (p *Instagram) GetCRF() int {
	return 23
}

func (p *Instagram) GetFPS() int {
	return 30
}

func (p *Instagram) GetAudioBitrate() string {
	return "128k"
}

func (p *Instagram) GetOutputFormat() string {
	return "mp4"
}
