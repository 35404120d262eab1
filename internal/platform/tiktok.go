package platform

type TikTok struct{}

func init() {
	Register(&TikTok{})
}

func (p *TikTok) GetName() string {
	return "tiktok"
}

func (p *TikTok) GetMaxDimensions() (width, height int) {
	return 1080, 1920
}

func (p *TikTok) GetMaxDuration() int {
	return 180
}

func (p *TikTok) GetVideoCodec() string {
	return "libx264"
}

func (p *TikTok) GetAudioCodec() string {
	return "aac"
}

func (p *TikTok) GetPreset() string {
	return "veryfast"
}

func (p *TikTok) GetCRF() int {
	return 23
}

func (p *TikTok) GetFPS() int {
	return 30
}

func (p *TikTok) GetAudioBitrate() string {
	return "128k"
}

func (p *TikTok) GetOutputFormat() string {
	return "mp4"
}
