package avatar

import "encoding/json"

type SubmitRequest struct {
	Script   string
	VoiceID  string
	AvatarID string
	Title    string
	// CallbackID is echoed back by the vendor in its completion webhook.
	CallbackID string
}

type Submission struct {
	VendorJobID string
}

type Voice struct {
	ID         string `json:"voice_id"`
	Name       string `json:"name"`
	Language   string `json:"language"`
	Gender     string `json:"gender"`
	PreviewURL string `json:"preview_audio"`
}

// Callback is a completion notification pushed by the vendor.
type Callback struct {
	EventType   string
	VendorJobID string
	CallbackID  string
}

type generateRequest struct {
	Title       string       `json:"title,omitempty"`
	CallbackID  string       `json:"callback_id,omitempty"`
	Caption     bool         `json:"caption"`
	Dimension   dimension    `json:"dimension"`
	VideoInputs []videoInput `json:"video_inputs"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type videoInput struct {
	Character character `json:"character"`
	Voice     voice     `json:"voice"`
}

type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type voice struct {
	Type      string `json:"type"`
	InputText string `json:"input_text"`
	VoiceID   string `json:"voice_id"`
}

type apiError struct {
	Code    json.RawMessage `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Detail  string          `json:"detail,omitempty"`
}

type generateResponse struct {
	Error *apiError `json:"error"`
	Data  *struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

type statusResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    *statusData `json:"data"`
}

type statusData struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	GifURL       string    `json:"gif_url"`
	CaptionURL   string    `json:"caption_url"`
	Duration     float64   `json:"duration"`
	Error        *apiError `json:"error"`
}

type voicesResponse struct {
	Error *apiError `json:"error"`
	Data  *struct {
		Voices []Voice `json:"voices"`
	} `json:"data"`
}

type callbackPayload struct {
	EventType string `json:"event_type"`
	EventData *struct {
		VideoID    string `json:"video_id"`
		URL        string `json:"url"`
		GifURL     string `json:"gif_download_url"`
		CallbackID string `json:"callback_id"`
		Message    string `json:"msg"`
	} `json:"event_data"`
}
