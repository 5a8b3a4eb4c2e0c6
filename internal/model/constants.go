package model

// LayerType 캔버스 레이어 타입
type LayerType string

const (
	LayerTypeImage   LayerType = "image"
	LayerTypeSticker LayerType = "sticker"
	LayerTypeText    LayerType = "text"
	LayerTypeSketch  LayerType = "sketch"
)

func (t LayerType) String() string {
	return string(t)
}

// Valid 지원하는 레이어 타입인지 확인
func (t LayerType) Valid() bool {
	switch t {
	case LayerTypeImage, LayerTypeSticker, LayerTypeText, LayerTypeSketch:
		return true
	default:
		return false
	}
}

// AuthProvider 로그인 제공자
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

func (p AuthProvider) String() string {
	return string(p)
}

// DefaultColor 습관/이벤트 기본 색상
const DefaultColor = "#6366f1"
